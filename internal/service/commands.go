package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/session"
)

var (
	searchPattern = regexp.MustCompile(`^(?:search|find|look for)\s+(.+)$`)
	addPattern    = regexp.MustCompile(`^add\s+(?:to\s+cart\s+)?(.+)$`)
	removePattern = regexp.MustCompile(`^remove\s+(.+)$`)
)

// CommandReply is a fully formed response to a recognized command.
type CommandReply struct {
	Message  string
	MediaURL *string
}

// CommandService is the intent layer that drives the session store: it
// inspects message text, decides which state transition or cart operation
// applies, and performs it. The store itself never interprets text.
type CommandService struct {
	store   *session.Store
	catalog *CatalogService
	orders  *OrderService
}

func NewCommandService(store *session.Store, catalog *CatalogService, orders *OrderService) *CommandService {
	return &CommandService{
		store:   store,
		catalog: catalog,
		orders:  orders,
	}
}

// Process matches the message against the command table. A nil reply with a
// nil error means no command matched and the AI should answer instead.
func (s *CommandService) Process(ctx context.Context, phone string, business *model.Business, text string) (*CommandReply, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	businessID := business.ID
	name := business.Name

	switch {
	case lower == "help":
		return &CommandReply{Message: helpMessage(name)}, nil

	case lower == "reset":
		s.store.SetState(phone, businessID, session.StateGreeting)
		s.store.ClearCart(phone, businessID)
		return &CommandReply{
			Message: fmt.Sprintf("I've reset our conversation. How can I help you with %s today?", name),
		}, nil

	case lower == "switch to business" || lower == "change business" ||
		strings.HasPrefix(lower, "switch to business") || strings.HasPrefix(lower, "change business"):
		s.store.SetState(phone, businessID, session.StateBusinessSelection)
		return &CommandReply{
			Message: "Sure - send the name or number of the business you'd like to chat with.",
		}, nil

	case lower == "show products" || lower == "products" || lower == "browse" || lower == "show me products":
		return s.listProducts(ctx, phone, business)

	case lower == "show categories" || lower == "categories" || lower == "what categories":
		return s.listCategories(ctx, phone, business)

	case lower == "view cart" || lower == "show cart" || lower == "my cart" || lower == "cart":
		return s.viewCart(phone, business), nil

	case lower == "checkout" || lower == "pay" || lower == "purchase":
		return s.checkout(ctx, phone, business)
	}

	if m := searchPattern.FindStringSubmatch(lower); m != nil {
		return s.search(ctx, phone, business, m[1])
	}
	if m := addPattern.FindStringSubmatch(lower); m != nil {
		return s.addToCart(ctx, phone, business, m[1])
	}
	if m := removePattern.FindStringSubmatch(lower); m != nil {
		return s.removeFromCart(ctx, phone, business, m[1])
	}

	// Bare text depends on where the conversation stands: a category name
	// while browsing categories, a product name while browsing products.
	sess := s.store.GetOrCreate(phone, businessID)
	switch sess.State {
	case session.StateCategoryBrowsing:
		return s.pickCategory(ctx, phone, business, lower)
	case session.StateBrowsing, session.StateProductDetails:
		return s.pickProduct(ctx, phone, business, strings.TrimSpace(text))
	}

	return nil, nil
}

// pickCategory matches a category by name or menu number; anything else
// falls through to the AI.
func (s *CommandService) pickCategory(ctx context.Context, phone string, business *model.Business, input string) (*CommandReply, error) {
	categories, err := s.catalog.Categories(ctx, business.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	picked := ""
	if n, convErr := strconv.Atoi(input); convErr == nil && n >= 1 && n <= len(categories) {
		picked = categories[n-1]
	} else {
		for _, category := range categories {
			if strings.EqualFold(category, input) {
				picked = category
				break
			}
		}
	}
	if picked == "" {
		return nil, nil
	}

	products, err := s.catalog.ListByCategory(ctx, business.ID, picked)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(products) == 0 {
		return &CommandReply{
			Message: fmt.Sprintf("Sorry, there's nothing in %s right now.", picked),
		}, nil
	}

	s.store.SetState(phone, business.ID, session.StateBrowsing)
	return &CommandReply{
		Message: FormatProductList(products, fmt.Sprintf("%s - %s", business.Name, picked)),
	}, nil
}

// pickProduct shows details when the text names exactly one product.
func (s *CommandService) pickProduct(ctx context.Context, phone string, business *model.Business, input string) (*CommandReply, error) {
	products, err := s.catalog.Search(ctx, business.ID, input)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(products) != 1 {
		return nil, nil
	}

	product := products[0]
	s.store.SetState(phone, business.ID, session.StateProductDetails)
	s.store.SetMetadata(phone, business.ID, "selectedProduct", session.ProductValue(product.Snapshot()))

	body, mediaURL := FormatProductDetails(product)
	return &CommandReply{Message: body, MediaURL: mediaURL}, nil
}

func (s *CommandService) listProducts(ctx context.Context, phone string, business *model.Business) (*CommandReply, error) {
	products, err := s.catalog.ListProducts(ctx, business.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(products) == 0 {
		return &CommandReply{
			Message: fmt.Sprintf("Sorry, I couldn't find any products for %s.", business.Name),
		}, nil
	}

	s.store.SetState(phone, business.ID, session.StateBrowsing)
	return &CommandReply{
		Message: FormatProductList(products, business.Name+" Products"),
	}, nil
}

func (s *CommandService) listCategories(ctx context.Context, phone string, business *model.Business) (*CommandReply, error) {
	categories, err := s.catalog.Categories(ctx, business.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(categories) == 0 {
		return &CommandReply{
			Message: fmt.Sprintf("Sorry, I couldn't find any product categories for %s.", business.Name),
		}, nil
	}

	s.store.SetState(phone, business.ID, session.StateCategoryBrowsing)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s Product Categories*\n\n", business.Name)
	for i, category := range categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, category)
	}
	b.WriteString("\nTo browse a category, reply with its name or number.")
	return &CommandReply{Message: b.String()}, nil
}

func (s *CommandService) viewCart(phone string, business *model.Business) *CommandReply {
	sess := s.store.GetOrCreate(phone, business.ID)
	if len(sess.Cart) == 0 {
		return &CommandReply{
			Message: fmt.Sprintf("Your %s cart is empty. Browse our products to add something!", business.Name),
		}
	}

	total := s.store.CartTotal(phone, business.ID)
	s.store.SetState(phone, business.ID, session.StateCartReview)

	var b strings.Builder
	fmt.Fprintf(&b, "*Your %s Shopping Cart*\n\n", business.Name)
	for i, item := range sess.Cart {
		fmt.Fprintf(&b, "%d. %s - %d x K%s\n", i+1, item.Product.Name, item.Quantity, item.Product.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: K%s (%d items)", total.Amount.StringFixed(2), total.ItemCount)
	b.WriteString("\n\nReply with 'checkout' to proceed or 'continue shopping' to browse more products.")
	return &CommandReply{Message: b.String()}
}

func (s *CommandService) checkout(ctx context.Context, phone string, business *model.Business) (*CommandReply, error) {
	result, err := s.orders.Checkout(ctx, phone, business.ID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeEmptyCart {
			return &CommandReply{
				Message: fmt.Sprintf("Your %s cart is empty. Browse our products to add something!", business.Name),
			}, nil
		}
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s Checkout*\n\n", business.Name)
	fmt.Fprintf(&b, "Order %s confirmed - K%s (%s).\n",
		shortID(result.Order.ID), result.Order.TotalAmount.StringFixed(2), result.Order.Currency)
	fmt.Fprintf(&b, "Complete your payment here: %s\n", result.PayLink)
	b.WriteString("\nWe'll confirm as soon as the payment lands.")
	return &CommandReply{Message: b.String()}, nil
}

func (s *CommandService) search(ctx context.Context, phone string, business *model.Business, term string) (*CommandReply, error) {
	products, err := s.catalog.Search(ctx, business.ID, term)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(products) == 0 {
		return &CommandReply{
			Message: fmt.Sprintf("Sorry, I couldn't find any %s products matching '%s'.", business.Name, term),
		}, nil
	}

	s.store.SetState(phone, business.ID, session.StateBrowsing)
	return &CommandReply{
		Message: FormatProductList(products, fmt.Sprintf("%s Products - '%s'", business.Name, term)),
	}, nil
}

func (s *CommandService) addToCart(ctx context.Context, phone string, business *model.Business, term string) (*CommandReply, error) {
	product, err := s.resolveAddTarget(ctx, phone, business, term)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return &CommandReply{
			Message: fmt.Sprintf("I couldn't find '%s' in the %s catalog. Try 'show products' to browse.", term, business.Name),
		}, nil
	}
	cart, err := s.store.AddItem(phone, business.ID, product.Snapshot(), 1)
	if err != nil {
		return nil, err
	}
	s.store.SetMetadata(phone, business.ID, "selectedProduct", session.ProductValue(product.Snapshot()))

	total := s.store.CartTotal(phone, business.ID)
	return &CommandReply{
		Message: fmt.Sprintf("Added %s to your cart (%d item(s), total K%s). Reply 'view cart' to review or 'checkout' to pay.",
			product.Name, len(cart), total.Amount.StringFixed(2)),
	}, nil
}

// resolveAddTarget turns the add argument into a catalog product. A pronoun
// refers back to the product the customer last viewed; its row is re-read so
// the cart snapshot carries the current catalog price.
func (s *CommandService) resolveAddTarget(ctx context.Context, phone string, business *model.Business, term string) (*model.Product, error) {
	switch term {
	case "it", "this", "that", "this one", "that one":
		meta, ok := s.store.Metadata(phone, business.ID, "selectedProduct")
		if !ok || meta.Product == nil {
			return nil, nil
		}
		product, err := s.catalog.FindProduct(ctx, meta.Product.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		return product, nil
	}

	products, err := s.catalog.Search(ctx, business.ID, term)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (s *CommandService) removeFromCart(ctx context.Context, phone string, business *model.Business, term string) (*CommandReply, error) {
	sess := s.store.GetOrCreate(phone, business.ID)

	productID := ""
	for _, item := range sess.Cart {
		if strings.EqualFold(item.Product.Name, term) || item.Product.ID == term {
			productID = item.Product.ID
			break
		}
	}

	// Removing something that isn't there is a no-op, same as the store.
	cart := s.store.RemoveItem(phone, business.ID, productID)
	return &CommandReply{
		Message: fmt.Sprintf("Done - your cart has %d item(s) now. Reply 'view cart' to review.", len(cart)),
	}, nil
}

func helpMessage(businessName string) string {
	return fmt.Sprintf("Welcome to %s! Here's what you can do:\n\n"+
		"- Browse products: Say 'show products' or 'browse'\n"+
		"- Search: Say 'search for [product name]'\n"+
		"- Categories: Say 'show categories'\n"+
		"- Cart: Say 'view cart', 'add [product]', or 'checkout'\n"+
		"- Help: Say 'help' anytime\n"+
		"- Start over: Say 'reset' to start a new conversation\n"+
		"- Switch businesses: Say 'switch to business' to interact with a different business", businessName)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
