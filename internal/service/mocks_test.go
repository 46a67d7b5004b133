package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inxsource/sales-assistant-go/internal/ai"
	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/session"
	"github.com/inxsource/sales-assistant-go/internal/sse"
)

type mockBusinessRepo struct {
	findByIDFunc             func(ctx context.Context, id string) (*model.Business, error)
	findByWhatsAppNumberFunc func(ctx context.Context, number string) (*model.Business, error)
	findByAPITokenHashFunc   func(ctx context.Context, tokenHash string) (*model.Business, error)
	listActiveFunc           func(ctx context.Context) ([]model.Business, error)
}

func (m *mockBusinessRepo) FindByID(ctx context.Context, id string) (*model.Business, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBusinessRepo) FindByWhatsAppNumber(ctx context.Context, number string) (*model.Business, error) {
	if m.findByWhatsAppNumberFunc != nil {
		return m.findByWhatsAppNumberFunc(ctx, number)
	}
	return nil, nil
}

func (m *mockBusinessRepo) FindByAPITokenHash(ctx context.Context, tokenHash string) (*model.Business, error) {
	if m.findByAPITokenHashFunc != nil {
		return m.findByAPITokenHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockBusinessRepo) ListActive(ctx context.Context) ([]model.Business, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx)
	}
	return nil, nil
}

type mockCustomerRepo struct {
	findByPhoneFunc            func(ctx context.Context, phone string) ([]model.Customer, error)
	findByBusinessAndPhoneFunc func(ctx context.Context, businessID, phone string) (*model.Customer, error)
	createFunc                 func(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error)
	created                    []model.CreateCustomerParams
	touchedIDs                 []string
}

func (m *mockCustomerRepo) FindByPhone(ctx context.Context, phone string) ([]model.Customer, error) {
	if m.findByPhoneFunc != nil {
		return m.findByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

func (m *mockCustomerRepo) FindByBusinessAndPhone(ctx context.Context, businessID, phone string) (*model.Customer, error) {
	if m.findByBusinessAndPhoneFunc != nil {
		return m.findByBusinessAndPhoneFunc(ctx, businessID, phone)
	}
	return nil, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error) {
	m.created = append(m.created, params)
	if m.createFunc != nil {
		return m.createFunc(ctx, params)
	}
	return &model.Customer{ID: "cust-1", BusinessID: params.BusinessID, Phone: params.Phone}, nil
}

func (m *mockCustomerRepo) TouchLastInteraction(ctx context.Context, id string) error {
	m.touchedIDs = append(m.touchedIDs, id)
	return nil
}

type mockProductRepo struct {
	findByIDFunc       func(ctx context.Context, id string) (*model.Product, error)
	listByBusinessFunc func(ctx context.Context, businessID string, limit int) ([]model.Product, error)
	listByCategoryFunc func(ctx context.Context, businessID, category string, limit int) ([]model.Product, error)
	searchFunc         func(ctx context.Context, businessID, query string, limit int) ([]model.Product, error)
	listCategoriesFunc func(ctx context.Context, businessID string) ([]string, error)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockProductRepo) ListByBusiness(ctx context.Context, businessID string, limit int) ([]model.Product, error) {
	if m.listByBusinessFunc != nil {
		return m.listByBusinessFunc(ctx, businessID, limit)
	}
	return nil, nil
}

func (m *mockProductRepo) ListByCategory(ctx context.Context, businessID, category string, limit int) ([]model.Product, error) {
	if m.listByCategoryFunc != nil {
		return m.listByCategoryFunc(ctx, businessID, category, limit)
	}
	return nil, nil
}

func (m *mockProductRepo) Search(ctx context.Context, businessID, query string, limit int) ([]model.Product, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, businessID, query, limit)
	}
	return nil, nil
}

func (m *mockProductRepo) ListCategories(ctx context.Context, businessID string) ([]string, error) {
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc(ctx, businessID)
	}
	return nil, nil
}

type mockOrderRepo struct {
	findByIDFunc   func(ctx context.Context, id string) (*model.Order, error)
	findItemsFunc  func(ctx context.Context, orderID string) ([]model.OrderItem, error)
	createFunc     func(ctx context.Context, params model.CreateOrderParams) (*model.Order, error)
	listFunc       func(ctx context.Context, businessID, phone string, limit int) ([]model.Order, error)
	setStatusCalls []model.OrderStatus
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockOrderRepo) FindItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	if m.findItemsFunc != nil {
		return m.findItemsFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, businessID, phone string, limit int) ([]model.Order, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, businessID, phone, limit)
	}
	return nil, nil
}

func (m *mockOrderRepo) Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, params)
	}
	return &model.Order{
		ID:            params.ID,
		BusinessID:    params.BusinessID,
		CustomerPhone: params.CustomerPhone,
		Status:        model.OrderStatusPending,
		TotalAmount:   params.TotalAmount,
		Currency:      params.Currency,
		PaymentRef:    params.PaymentRef,
	}, nil
}

func (m *mockOrderRepo) SetStatus(ctx context.Context, id string, status model.OrderStatus) error {
	m.setStatusCalls = append(m.setStatusCalls, status)
	return nil
}

func (m *mockOrderRepo) ExpirePending(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockGenerator struct {
	reply string
	err   error
	calls []string
}

func (m *mockGenerator) GenerateReply(ctx context.Context, userInput string, history []session.Message, convCtx ai.Context) (string, error) {
	m.calls = append(m.calls, userInput)
	return m.reply, m.err
}

type sentMessage struct {
	To       string
	Body     string
	MediaURL *string
}

type mockSender struct {
	sent []sentMessage
	err  error
}

func (m *mockSender) SendWhatsApp(to, body string, mediaURL *string) error {
	m.sent = append(m.sent, sentMessage{To: to, Body: body, MediaURL: mediaURL})
	return m.err
}

type mockPublisher struct {
	events []sse.Event
}

func (m *mockPublisher) Publish(ctx context.Context, businessID string, event sse.Event) error {
	m.events = append(m.events, event)
	return nil
}

func testProduct(id, name string, price string) model.Product {
	p, _ := decimal.NewFromString(price)
	return model.Product{
		ID:         id,
		BusinessID: "biz-1",
		Name:       name,
		Price:      p,
		Currency:   "ZMW",
		Category:   "General",
		InStock:    true,
	}
}

func testBusiness() *model.Business {
	return &model.Business{
		ID:             "biz-1",
		Name:           "Acme Traders",
		Description:    "Everything under the sun.",
		WhatsAppNumber: "+260970000001",
		IsActive:       true,
	}
}
