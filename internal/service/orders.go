package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/session"
	"github.com/inxsource/sales-assistant-go/internal/sse"
)

// OrderService turns carts into orders. Checkout snapshots the cart under
// the store's lock (via CartTotal/GetOrCreate), then does all database and
// payment work outside it.
type OrderService struct {
	store          *session.Store
	orderRepo      repository.OrderRepository
	publisher      EventPublisher
	paymentBaseURL string
}

func NewOrderService(store *session.Store, orderRepo repository.OrderRepository, publisher EventPublisher, paymentBaseURL string) *OrderService {
	return &OrderService{
		store:          store,
		orderRepo:      orderRepo,
		publisher:      publisher,
		paymentBaseURL: paymentBaseURL,
	}
}

type CheckoutResult struct {
	Order   *model.Order
	PayLink string
}

// Checkout creates a pending order from the session's cart, clears the
// cart, and moves the conversation to order confirmation. An empty cart is
// rejected before anything is written.
func (s *OrderService) Checkout(ctx context.Context, phone, businessID string) (*CheckoutResult, error) {
	sess := s.store.GetOrCreate(phone, businessID)
	if len(sess.Cart) == 0 {
		return nil, apperrors.EmptyCart()
	}
	total := s.store.CartTotal(phone, businessID)

	orderID := uuid.NewString()
	paymentRef := uuid.NewString()

	params := model.CreateOrderParams{
		ID:            orderID,
		BusinessID:    businessID,
		CustomerPhone: phone,
		TotalAmount:   total.Amount,
		Currency:      total.Currency,
		PaymentRef:    &paymentRef,
	}
	for _, item := range sess.Cart {
		params.Items = append(params.Items, model.CreateOrderItemParams{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
		})
	}

	order, err := s.orderRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	s.store.ClearCart(phone, businessID)
	s.store.SetState(phone, businessID, session.StateOrderConfirmation)
	s.store.SetMetadata(phone, businessID, "paymentRef", session.StringValue(paymentRef))

	log.Info().
		Str("orderId", order.ID).
		Str("businessId", businessID).
		Str("phone", phone).
		Str("amount", total.Amount.String()).
		Msg("order created")

	if s.publisher != nil {
		if data, err := json.Marshal(order); err == nil {
			if err := s.publisher.Publish(ctx, businessID, sse.Event{Type: sse.EventOrderCreated, Data: data}); err != nil {
				log.Warn().Err(err).Str("orderId", order.ID).Msg("failed to publish order event")
			}
		}
	}

	return &CheckoutResult{
		Order:   order,
		PayLink: fmt.Sprintf("%s/%s", s.paymentBaseURL, paymentRef),
	}, nil
}

// MarkPaid transitions a pending order to paid.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return apperrors.Database(err)
	}
	if order == nil {
		return apperrors.OrderNotFound(orderID)
	}
	if order.Status != model.OrderStatusPending {
		return apperrors.InvalidOrderState(string(order.Status), string(model.OrderStatusPaid))
	}
	if err := s.orderRepo.SetStatus(ctx, orderID, model.OrderStatusPaid); err != nil {
		return apperrors.Database(err)
	}

	s.store.SetState(order.CustomerPhone, order.BusinessID, session.StatePayment)
	return nil
}

// OrderDetails fetches one order with its line items. Orders belonging to
// another business are reported as not found rather than forbidden.
func (s *OrderService) OrderDetails(ctx context.Context, businessID, orderID string) (*model.Order, []model.OrderItem, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if order == nil || order.BusinessID != businessID {
		return nil, nil, apperrors.OrderNotFound(orderID)
	}

	items, err := s.orderRepo.FindItems(ctx, orderID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	return order, items, nil
}

// RecentOrders lists a customer's order history with one business.
func (s *OrderService) RecentOrders(ctx context.Context, businessID, phone string, limit int) ([]model.Order, error) {
	return s.orderRepo.ListByCustomer(ctx, businessID, phone, limit)
}
