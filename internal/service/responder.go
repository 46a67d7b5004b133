package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/ai"
	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
	"github.com/inxsource/sales-assistant-go/internal/messenger"
	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/session"
	"github.com/inxsource/sales-assistant-go/internal/sse"
)

var shoppingIntentWords = []string{"buy", "purchase", "shop", "product", "price", "order"}

var checkoutIntentWords = []string{"checkout", "pay", "payment", "complete order"}

var supportIntentWords = []string{"complaint", "refund", "not working", "wrong order", "speak to someone"}

// EventPublisher pushes conversation events toward listening dashboards.
// *sse.Broker is the production implementation.
type EventPublisher interface {
	Publish(ctx context.Context, businessID string, event sse.Event) error
}

// Responder runs the full inbound message pipeline: resolve the business,
// record the message, try the command table, fall back to the AI, deliver
// the reply and fan events out to listening dashboards.
type Responder struct {
	store        *session.Store
	resolver     *ResolverService
	commands     *CommandService
	generator    ai.Generator
	sender       messenger.Sender
	broker       EventPublisher
	customerRepo repository.CustomerRepository
}

func NewResponder(
	store *session.Store,
	resolver *ResolverService,
	commands *CommandService,
	generator ai.Generator,
	sender messenger.Sender,
	broker EventPublisher,
	customerRepo repository.CustomerRepository,
) *Responder {
	return &Responder{
		store:        store,
		resolver:     resolver,
		commands:     commands,
		generator:    generator,
		sender:       sender,
		broker:       broker,
		customerRepo: customerRepo,
	}
}

// HandleIncoming processes one inbound WhatsApp message end to end.
// Holding no store lock across any of the network calls here is what keeps
// the session store responsive under load.
func (r *Responder) HandleIncoming(ctx context.Context, customerPhone, toNumber, body string) error {
	business, err := r.resolver.Resolve(ctx, customerPhone, toNumber)
	if err != nil {
		return err
	}

	if business == nil {
		return r.handleBusinessSelection(ctx, customerPhone, body)
	}

	// An explicit switch request re-enters the selection flow even though
	// the customer still has an active business.
	sess := r.store.GetOrCreate(customerPhone, business.ID)
	if sess.State == session.StateBusinessSelection {
		return r.handleBusinessSelection(ctx, customerPhone, body)
	}

	// Snapshot before recording the new message; the model receives the
	// prior turns plus the input as its own turn.
	history := r.store.History(customerPhone, business.ID)

	r.store.AppendHistory(customerPhone, business.ID, session.RoleUser, body)
	r.publish(ctx, business.ID, sse.EventMessageReceived, map[string]string{
		"phone":   customerPhone,
		"message": body,
	})
	r.touchCustomer(ctx, business.ID, customerPhone)

	reply, mediaURL, err := r.buildReply(ctx, customerPhone, business, body, history)
	if err != nil {
		return err
	}

	r.store.AppendHistory(customerPhone, business.ID, session.RoleAssistant, reply)
	if err := r.sender.SendWhatsApp(customerPhone, reply, mediaURL); err != nil {
		return err
	}
	r.publish(ctx, business.ID, sse.EventReplySent, map[string]string{
		"phone":   customerPhone,
		"message": reply,
	})
	return nil
}

func (r *Responder) buildReply(ctx context.Context, phone string, business *model.Business, body string, history []session.Message) (string, *string, error) {
	cmdReply, err := r.commands.Process(ctx, phone, business, body)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			log.Warn().
				Str("code", string(appErr.Code)).
				Str("phone", phone).
				Str("businessId", business.ID).
				Msg("command failed")
			return appErr.Message, nil, nil
		}
		return "", nil, err
	}
	if cmdReply != nil {
		return cmdReply.Message, cmdReply.MediaURL, nil
	}

	sess := r.store.GetOrCreate(phone, business.ID)
	convCtx := ai.Context{
		BusinessName: business.Name,
		BusinessInfo: business.Description,
		State:        sess.State,
		CartSummary:  r.cartSummary(phone, business.ID),
	}

	reply, err := r.generator.GenerateReply(ctx, body, history, convCtx)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("ai generation failed")
		reply = "I apologize, but I'm having trouble generating a response right now. Please try again later."
	}

	r.updateConversationState(phone, business.ID, body, sess.State)
	return reply, nil, nil
}

// handleBusinessSelection runs when no business could be resolved for the
// customer, or when they asked to switch. The reply is either a numbered
// menu or a greeting from the business they picked.
func (r *Responder) handleBusinessSelection(ctx context.Context, phone, body string) error {
	businesses, err := r.resolver.ListBusinesses(ctx)
	if err != nil {
		return err
	}
	if len(businesses) == 0 {
		return r.sender.SendWhatsApp(phone, "Sorry, no businesses are available right now. Please try again later.", nil)
	}

	if picked := matchBusiness(businesses, body); picked != nil {
		r.store.GetOrCreate(phone, picked.ID)
		r.store.SetState(phone, picked.ID, session.StateGreeting)
		r.touchCustomer(ctx, picked.ID, phone)

		greeting := fmt.Sprintf("Welcome to %s! %s\n\nSay 'help' to see what I can do, or 'show products' to start browsing.",
			picked.Name, picked.Description)
		return r.sender.SendWhatsApp(phone, greeting, nil)
	}

	r.store.GetOrCreate(phone, session.UnassignedBusiness)

	var b strings.Builder
	b.WriteString("Hi! Which business would you like to chat with?\n\n")
	for i, biz := range businesses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, biz.Name)
	}
	b.WriteString("\nReply with the number or name of the business.")
	return r.sender.SendWhatsApp(phone, b.String(), nil)
}

// updateConversationState nudges the flow forward when the free-form text
// signals intent the command table didn't catch.
func (r *Responder) updateConversationState(phone, businessID, body string, current session.State) {
	lower := strings.ToLower(body)

	if containsAny(lower, supportIntentWords) {
		r.store.SetState(phone, businessID, session.StateSupport)
		return
	}
	if current == session.StateGreeting && containsAny(lower, shoppingIntentWords) {
		r.store.SetState(phone, businessID, session.StateBrowsing)
		return
	}
	if containsAny(lower, checkoutIntentWords) {
		sess := r.store.GetOrCreate(phone, businessID)
		if len(sess.Cart) > 0 {
			r.store.SetState(phone, businessID, session.StateCheckout)
		}
	}
}

func (r *Responder) cartSummary(phone, businessID string) string {
	sess := r.store.GetOrCreate(phone, businessID)
	if len(sess.Cart) == 0 {
		return "empty"
	}

	total := r.store.CartTotal(phone, businessID)
	parts := make([]string, 0, len(sess.Cart))
	for _, item := range sess.Cart {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.Product.Name))
	}
	return fmt.Sprintf("%s (total %s %s)", strings.Join(parts, ", "), total.Currency, total.Amount.StringFixed(2))
}

func (r *Responder) touchCustomer(ctx context.Context, businessID, phone string) {
	customer, err := r.customerRepo.FindByBusinessAndPhone(ctx, businessID, phone)
	if err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("customer lookup failed")
		return
	}

	if customer == nil {
		if _, err := r.customerRepo.Create(ctx, model.CreateCustomerParams{
			BusinessID: businessID,
			Phone:      phone,
		}); err != nil {
			log.Warn().Err(err).Str("phone", phone).Msg("failed to create customer")
		}
		return
	}

	if err := r.customerRepo.TouchLastInteraction(ctx, customer.ID); err != nil {
		log.Warn().Err(err).Str("customerId", customer.ID).Msg("failed to touch last interaction")
	}
}

func (r *Responder) publish(ctx context.Context, businessID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := r.broker.Publish(ctx, businessID, sse.Event{Type: eventType, Data: data}); err != nil {
		log.Warn().Err(err).Str("businessId", businessID).Msg("failed to publish event")
	}
}

func matchBusiness(businesses []model.Business, input string) *model.Business {
	trimmed := strings.TrimSpace(input)

	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(businesses) {
		return &businesses[n-1]
	}

	lower := strings.ToLower(trimmed)
	for i := range businesses {
		if strings.Contains(strings.ToLower(businesses[i].Name), lower) && lower != "" {
			return &businesses[i]
		}
	}
	return nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
