package session

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
	"github.com/inxsource/sales-assistant-go/internal/model"
)

const (
	DefaultTimeout    = 30 * time.Minute
	DefaultMaxHistory = 20
	DefaultCurrency   = "ZMW"
)

// CartTotal summarizes a cart using the price snapshots frozen at add-time.
type CartTotal struct {
	Amount    decimal.Decimal `json:"amount"`
	ItemCount int             `json:"itemCount"`
	Currency  string          `json:"currency"`
}

// Store is the process-wide session manager. It maps (phone, businessID)
// pairs to sessions, grouped by phone so active-business resolution and
// whole-phone clears stay cheap.
//
// One mutex serializes every structural change and entity mutation; traffic
// is per-customer chat, so contention is low and a coarse lock keeps the
// ordering guarantee trivial. The lock is never held across network calls:
// the store's API takes keys and already-computed inputs only.
//
// Expired sessions are swept opportunistically at the start of each access,
// and the cleanup job runs the same sweep on a timer for phones no traffic
// touches anymore.
type Store struct {
	mu     sync.Mutex
	phones map[string]map[string]*Session

	timeout    time.Duration
	maxHistory int
	currency   string

	now func() time.Time
}

func NewStore(timeout time.Duration, maxHistory int, currency string) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Store{
		phones:     make(map[string]map[string]*Session),
		timeout:    timeout,
		maxHistory: maxHistory,
		currency:   currency,
		now:        time.Now,
	}
}

// GetOrCreate returns the session for (phone, businessID), creating it if
// absent and refreshing its activity timestamp. With businessID == "" it
// returns the phone's most recently active business session, or the
// business-selection placeholder when the phone has none. Creating or
// touching a real business session discards the phone's placeholder.
//
// There is no "not found" outcome: absence means creation, the same way a
// guest checkout works.
func (st *Store) GetOrCreate(phone, businessID string) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	return st.getOrCreateLocked(phone, businessID, now).clone()
}

// ActiveBusiness reports the businessID with the most recent activity among
// the phone's non-placeholder sessions. It is a pure lookup: nothing is
// created and no activity timestamp moves.
func (st *Store) ActiveBusiness(phone string) (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked(st.now())

	return st.activeBusinessLocked(phone)
}

// ListBusinesses returns the sorted non-placeholder business IDs the phone
// has live sessions for.
func (st *Store) ListBusinesses(phone string) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked(st.now())

	group := st.phones[phone]
	ids := make([]string, 0, len(group))
	for id := range group {
		if id != UnassignedBusiness {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clear removes one session, or every session for the phone when
// businessID == "". Clearing an unknown key is a no-op.
func (st *Store) Clear(phone, businessID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	group, ok := st.phones[phone]
	if !ok {
		return
	}

	if businessID == "" {
		delete(st.phones, phone)
		log.Debug().Str("phone", phone).Msg("cleared all sessions for phone")
		return
	}

	delete(group, businessID)
	if len(group) == 0 {
		delete(st.phones, phone)
	}
}

// SetState overwrites the conversation state unconditionally. With
// businessID == "" the phone's active session (or placeholder) is targeted.
func (st *Store) SetState(phone, businessID string, state State) Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)
	sess.State = state
	return sess.clone()
}

// AddItem merges product into the session's cart: an already-present
// productID gets its quantity bumped, keeping the price snapshot from the
// first add; anything else is appended. Non-positive quantities are
// rejected and leave the cart untouched.
func (st *Store) AddItem(phone, businessID string, product model.ProductSnapshot, quantity int) ([]CartItem, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidQuantity(quantity)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)

	merged := false
	for i := range sess.Cart {
		if sess.Cart[i].Product.ID == product.ID {
			sess.Cart[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		sess.Cart = append(sess.Cart, CartItem{Product: product, Quantity: quantity})
	}

	return sess.clone().Cart, nil
}

// RemoveItem drops the matching cart entry. Removing an absent productID is
// a no-op, not an error.
func (st *Store) RemoveItem(phone, businessID, productID string) []CartItem {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)

	for i := range sess.Cart {
		if sess.Cart[i].Product.ID == productID {
			sess.Cart = append(sess.Cart[:i], sess.Cart[i+1:]...)
			break
		}
	}

	return sess.clone().Cart
}

// ClearCart empties the session's cart.
func (st *Store) ClearCart(phone, businessID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)
	sess.Cart = nil
}

// CartTotal sums price x quantity over the frozen snapshots. Prices are
// never re-fetched, so the total cannot drift if the catalog changes
// mid-session.
func (st *Store) CartTotal(phone, businessID string) CartTotal {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)

	total := CartTotal{Amount: decimal.Zero, Currency: st.currency}
	for _, item := range sess.Cart {
		qty := decimal.NewFromInt(int64(item.Quantity))
		total.Amount = total.Amount.Add(item.Product.Price.Mul(qty))
		total.ItemCount += item.Quantity
	}
	return total
}

// AppendHistory records one conversation turn, evicting from the front once
// the buffer exceeds its cap.
func (st *Store) AppendHistory(phone, businessID string, role Role, content string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)

	sess.History = append(sess.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if excess := len(sess.History) - st.maxHistory; excess > 0 {
		sess.History = append(sess.History[:0], sess.History[excess:]...)
	}
}

// History returns the session's conversation turns, oldest first.
func (st *Store) History(phone, businessID string) []Message {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	return st.getOrCreateLocked(phone, businessID, now).clone().History
}

// Metadata reads one auxiliary field from the session's metadata bag.
func (st *Store) Metadata(phone, businessID, key string) (MetaValue, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)
	v, ok := sess.Metadata[key]
	return v, ok
}

// SetMetadata writes one auxiliary field into the session's metadata bag.
func (st *Store) SetMetadata(phone, businessID, key string, value MetaValue) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	sess := st.getOrCreateLocked(phone, businessID, now)
	if sess.Metadata == nil {
		sess.Metadata = make(map[string]MetaValue)
	}
	sess.Metadata[key] = value
}

// Sweep removes every session idle past the timeout and reports how many
// were dropped. The cleanup job calls this on a timer; every store access
// runs the same pass first.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(now)
}

// Len reports the number of live sessions across all phones.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for _, group := range st.phones {
		n += len(group)
	}
	return n
}

func (st *Store) sweepLocked(now time.Time) int {
	removed := 0
	for phone, group := range st.phones {
		for businessID, sess := range group {
			if now.Sub(sess.LastActivity) > st.timeout {
				delete(group, businessID)
				removed++
				log.Info().
					Str("phone", phone).
					Str("businessId", businessID).
					Msg("removed expired session")
			}
		}
		if len(group) == 0 {
			delete(st.phones, phone)
		}
	}
	return removed
}

func (st *Store) getOrCreateLocked(phone, businessID string, now time.Time) *Session {
	group, ok := st.phones[phone]
	if !ok {
		group = make(map[string]*Session)
		st.phones[phone] = group
	}

	if businessID == "" {
		if active, ok := st.activeBusinessLocked(phone); ok {
			businessID = active
		} else {
			businessID = UnassignedBusiness
		}
	}

	sess, ok := group[businessID]
	if !ok {
		state := StateGreeting
		if businessID == UnassignedBusiness {
			state = StateBusinessSelection
		}
		sess = &Session{
			Phone:      phone,
			BusinessID: businessID,
			State:      state,
			Metadata:   make(map[string]MetaValue),
		}
		group[businessID] = sess
	}

	sess.LastActivity = now

	// A real business session supersedes the selection placeholder.
	if businessID != UnassignedBusiness {
		delete(group, UnassignedBusiness)
	}

	return sess
}

func (st *Store) activeBusinessLocked(phone string) (string, bool) {
	group, ok := st.phones[phone]
	if !ok {
		return "", false
	}

	best := ""
	var bestAt time.Time
	for businessID, sess := range group {
		if businessID == UnassignedBusiness {
			continue
		}
		// Ties break toward the smaller key so the answer is deterministic.
		if best == "" || sess.LastActivity.After(bestAt) ||
			(sess.LastActivity.Equal(bestAt) && businessID < best) {
			best = businessID
			bestAt = sess.LastActivity
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}
