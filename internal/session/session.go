package session

import (
	"time"

	"github.com/inxsource/sales-assistant-go/internal/model"
)

// State identifies where a conversation is in the shopping flow.
//
// The store never validates transitions: any state may be overwritten with
// any other. Legality is decided by the command layer that drives SetState,
// which keeps the state machine a plain data holder with a single external
// driver. This mirrors the behavior the assistant has always had and is a
// deliberate simplification, not an oversight.
type State string

const (
	StateGreeting          State = "greeting"
	StateBusinessSelection State = "business_selection"
	StateBrowsing          State = "browsing"
	StateProductDetails    State = "product_details"
	StateCategoryBrowsing  State = "category_browsing"
	StateCartReview        State = "cart_review"
	StateCheckout          State = "checkout"
	StatePayment           State = "payment"
	StateOrderConfirmation State = "order_confirmation"
	StateSupport           State = "support"
)

// UnassignedBusiness keys the placeholder session a phone holds while the
// customer is still choosing which business to talk to. It is excluded from
// active-business resolution and discarded as soon as a real business
// session is created for the phone.
const UnassignedBusiness = "UNASSIGNED"

// Role distinguishes the two sides of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn kept in the bounded history buffer.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItem pairs a frozen product snapshot with a quantity. The snapshot
// price is taken at first add and never refreshed; adding the same product
// again only bumps the quantity.
type CartItem struct {
	Product  model.ProductSnapshot `json:"product"`
	Quantity int                   `json:"quantity"`
}

// MetaKind tags the variant held by a MetaValue.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaNumber
	MetaProduct
)

// MetaValue is the closed set of values the metadata bag accepts: a string,
// a number, or a product snapshot. Collaborators stash selection context
// here (selected product, selected category, payment reference) without the
// store interpreting any of it.
type MetaValue struct {
	Kind    MetaKind
	Str     string
	Num     float64
	Product *model.ProductSnapshot
}

func StringValue(s string) MetaValue {
	return MetaValue{Kind: MetaString, Str: s}
}

func NumberValue(n float64) MetaValue {
	return MetaValue{Kind: MetaNumber, Num: n}
}

func ProductValue(p model.ProductSnapshot) MetaValue {
	return MetaValue{Kind: MetaProduct, Product: &p}
}

// Session is the full conversation state for one (phone, business) pair.
// Values handed out by the store are copies; all mutation goes back through
// the store's keyed operations so a stale copy can never corrupt live state.
type Session struct {
	Phone        string
	BusinessID   string
	State        State
	LastActivity time.Time
	Cart         []CartItem
	History      []Message
	Metadata     map[string]MetaValue
}

// Placeholder reports whether this is the business-selection placeholder.
func (s Session) Placeholder() bool {
	return s.BusinessID == UnassignedBusiness
}

func (s *Session) clone() Session {
	out := *s
	if s.Cart != nil {
		out.Cart = make([]CartItem, len(s.Cart))
		copy(out.Cart, s.Cart)
	}
	if s.History != nil {
		out.History = make([]Message, len(s.History))
		copy(out.History, s.History)
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]MetaValue, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
