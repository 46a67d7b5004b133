package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/session"
)

func newCommandFixture(productRepo *mockProductRepo, orderRepo *mockOrderRepo) (*CommandService, *session.Store) {
	store := session.NewStore(session.DefaultTimeout, session.DefaultMaxHistory, "ZMW")
	catalog := NewCatalogService(productRepo)
	orders := NewOrderService(store, orderRepo, &mockPublisher{}, "https://pay.example.com/p")
	return NewCommandService(store, catalog, orders), store
}

func TestCommandHelp(t *testing.T) {
	svc, _ := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})

	reply, err := svc.Process(context.Background(), "+260971234567", testBusiness(), "help")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message, "Acme Traders")
	assert.Contains(t, reply.Message, "show products")
}

func TestCommandReset(t *testing.T) {
	svc, store := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	store.SetState(phone, biz.ID, session.StateCartReview)
	_, err := store.AddItem(phone, biz.ID, testProduct("p1", "Rice", "50").Snapshot(), 2)
	require.NoError(t, err)

	reply, err := svc.Process(context.Background(), phone, biz, "reset")
	require.NoError(t, err)
	require.NotNil(t, reply)

	sess := store.GetOrCreate(phone, biz.ID)
	assert.Equal(t, session.StateGreeting, sess.State)
	assert.Empty(t, sess.Cart)
}

func TestCommandShowProducts(t *testing.T) {
	products := []model.Product{
		testProduct("p1", "Rice 5kg", "120"),
		testProduct("p2", "Sugar 2kg", "45.50"),
	}
	productRepo := &mockProductRepo{
		listByBusinessFunc: func(ctx context.Context, businessID string, limit int) ([]model.Product, error) {
			assert.Equal(t, "biz-1", businessID)
			return products, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"

	reply, err := svc.Process(context.Background(), phone, testBusiness(), "show products")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message, "Rice 5kg")
	assert.Contains(t, reply.Message, "K45.50")

	sess := store.GetOrCreate(phone, "biz-1")
	assert.Equal(t, session.StateBrowsing, sess.State)
}

func TestCommandShowProductsEmpty(t *testing.T) {
	svc, store := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})
	phone := "+260971234567"
	store.SetState(phone, "biz-1", session.StateGreeting)

	reply, err := svc.Process(context.Background(), phone, testBusiness(), "browse")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message, "couldn't find any products")

	// No products means no transition.
	sess := store.GetOrCreate(phone, "biz-1")
	assert.Equal(t, session.StateGreeting, sess.State)
}

func TestCommandCategories(t *testing.T) {
	productRepo := &mockProductRepo{
		listCategoriesFunc: func(ctx context.Context, businessID string) ([]string, error) {
			return []string{"Groceries", "Hardware"}, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"

	reply, err := svc.Process(context.Background(), phone, testBusiness(), "show categories")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message, "1. Groceries")
	assert.Contains(t, reply.Message, "2. Hardware")

	sess := store.GetOrCreate(phone, "biz-1")
	assert.Equal(t, session.StateCategoryBrowsing, sess.State)
}

func TestCommandViewCart(t *testing.T) {
	svc, store := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	t.Run("empty cart", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, biz, "view cart")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "cart is empty")
	})

	t.Run("with items", func(t *testing.T) {
		_, err := store.AddItem(phone, biz.ID, testProduct("p1", "Rice 5kg", "120").Snapshot(), 2)
		require.NoError(t, err)

		reply, err := svc.Process(context.Background(), phone, biz, "cart")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Rice 5kg - 2 x K120.00")
		assert.Contains(t, reply.Message, "Total: K240.00 (2 items)")

		sess := store.GetOrCreate(phone, biz.ID)
		assert.Equal(t, session.StateCartReview, sess.State)
	})
}

func TestCommandCheckout(t *testing.T) {
	orderRepo := &mockOrderRepo{}
	svc, store := newCommandFixture(&mockProductRepo{}, orderRepo)
	phone := "+260971234567"
	biz := testBusiness()

	t.Run("empty cart", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, biz, "checkout")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "cart is empty")
	})

	t.Run("creates order and clears cart", func(t *testing.T) {
		_, err := store.AddItem(phone, biz.ID, testProduct("p1", "Rice 5kg", "120").Snapshot(), 1)
		require.NoError(t, err)

		reply, err := svc.Process(context.Background(), phone, biz, "checkout")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "https://pay.example.com/p/")
		assert.Contains(t, reply.Message, "K120.00")

		sess := store.GetOrCreate(phone, biz.ID)
		assert.Empty(t, sess.Cart)
		assert.Equal(t, session.StateOrderConfirmation, sess.State)
	})
}

func TestCommandSearch(t *testing.T) {
	productRepo := &mockProductRepo{
		searchFunc: func(ctx context.Context, businessID, query string, limit int) ([]model.Product, error) {
			if query == "rice" {
				return []model.Product{testProduct("p1", "Rice 5kg", "120")}, nil
			}
			return nil, nil
		},
	}
	svc, _ := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"

	t.Run("match", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, testBusiness(), "search rice")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Rice 5kg")
	})

	t.Run("look for variant", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, testBusiness(), "look for rice")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Rice 5kg")
	})

	t.Run("no match", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, testBusiness(), "find gold bars")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "couldn't find")
	})
}

func TestCommandAddToCart(t *testing.T) {
	productRepo := &mockProductRepo{
		searchFunc: func(ctx context.Context, businessID, query string, limit int) ([]model.Product, error) {
			return []model.Product{testProduct("p1", "Rice 5kg", "120")}, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"

	reply, err := svc.Process(context.Background(), phone, testBusiness(), "add rice")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message, "Added Rice 5kg")

	sess := store.GetOrCreate(phone, "biz-1")
	require.Len(t, sess.Cart, 1)
	assert.Equal(t, 1, sess.Cart[0].Quantity)

	meta, ok := store.Metadata(phone, "biz-1", "selectedProduct")
	require.True(t, ok)
	assert.Equal(t, session.MetaProduct, meta.Kind)
}

func TestCommandAddSelectedProduct(t *testing.T) {
	productRepo := &mockProductRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Product, error) {
			if id == "p1" {
				p := testProduct("p1", "Rice 5kg", "120")
				return &p, nil
			}
			return nil, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	t.Run("pronoun adds the last viewed product", func(t *testing.T) {
		store.SetMetadata(phone, biz.ID, "selectedProduct",
			session.ProductValue(testProduct("p1", "Rice 5kg", "120").Snapshot()))

		reply, err := svc.Process(context.Background(), phone, biz, "add it")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Added Rice 5kg")

		sess := store.GetOrCreate(phone, biz.ID)
		require.Len(t, sess.Cart, 1)
		assert.Equal(t, "p1", sess.Cart[0].Product.ID)
	})

	t.Run("pronoun with nothing viewed", func(t *testing.T) {
		other := "+260977777777"
		reply, err := svc.Process(context.Background(), other, biz, "add it")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "couldn't find")
	})
}

func TestCommandRemoveFromCart(t *testing.T) {
	svc, store := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	_, err := store.AddItem(phone, biz.ID, testProduct("p1", "Rice 5kg", "120").Snapshot(), 1)
	require.NoError(t, err)

	t.Run("by name", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, biz, "remove Rice 5kg")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "0 item(s)")
	})

	t.Run("unknown item is a no-op", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, biz, "remove unicorn")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "0 item(s)")
	})
}

func TestCommandSwitchBusiness(t *testing.T) {
	svc, store := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})
	phone := "+260971234567"

	reply, err := svc.Process(context.Background(), phone, testBusiness(), "switch to business")
	require.NoError(t, err)
	require.NotNil(t, reply)

	sess := store.GetOrCreate(phone, "biz-1")
	assert.Equal(t, session.StateBusinessSelection, sess.State)
}

func TestCommandUnrecognized(t *testing.T) {
	svc, _ := newCommandFixture(&mockProductRepo{}, &mockOrderRepo{})

	reply, err := svc.Process(context.Background(), "+260971234567", testBusiness(), "do you deliver to Kitwe?")
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestCommandCategoryPick(t *testing.T) {
	productRepo := &mockProductRepo{
		listCategoriesFunc: func(ctx context.Context, businessID string) ([]string, error) {
			return []string{"Groceries", "Hardware"}, nil
		},
		listByCategoryFunc: func(ctx context.Context, businessID, category string, limit int) ([]model.Product, error) {
			if category == "Hardware" {
				return []model.Product{testProduct("p9", "Claw Hammer", "85")}, nil
			}
			return nil, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	store.SetState(phone, biz.ID, session.StateCategoryBrowsing)

	t.Run("by number", func(t *testing.T) {
		reply, err := svc.Process(context.Background(), phone, biz, "2")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Claw Hammer")

		sess := store.GetOrCreate(phone, biz.ID)
		assert.Equal(t, session.StateBrowsing, sess.State)
	})

	t.Run("by name", func(t *testing.T) {
		store.SetState(phone, biz.ID, session.StateCategoryBrowsing)

		reply, err := svc.Process(context.Background(), phone, biz, "hardware")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "Claw Hammer")
	})

	t.Run("unknown falls through", func(t *testing.T) {
		store.SetState(phone, biz.ID, session.StateCategoryBrowsing)

		reply, err := svc.Process(context.Background(), phone, biz, "tell me a joke")
		require.NoError(t, err)
		assert.Nil(t, reply)
	})
}

func TestCommandProductPick(t *testing.T) {
	imageURL := "https://cdn.example.com/hammer.jpg"
	hammer := testProduct("p9", "Claw Hammer", "85")
	hammer.Description = "16oz steel claw hammer"
	hammer.ImageURL = &imageURL

	productRepo := &mockProductRepo{
		searchFunc: func(ctx context.Context, businessID, query string, limit int) ([]model.Product, error) {
			if query == "claw hammer" {
				return []model.Product{hammer}, nil
			}
			// Ambiguous query.
			return []model.Product{hammer, testProduct("p10", "Sledge Hammer", "150")}, nil
		},
	}
	svc, store := newCommandFixture(productRepo, &mockOrderRepo{})
	phone := "+260971234567"
	biz := testBusiness()

	t.Run("single match shows details", func(t *testing.T) {
		store.SetState(phone, biz.ID, session.StateBrowsing)

		reply, err := svc.Process(context.Background(), phone, biz, "claw hammer")
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Contains(t, reply.Message, "16oz steel claw hammer")
		assert.Contains(t, reply.Message, "K85.00")
		require.NotNil(t, reply.MediaURL)
		assert.Equal(t, imageURL, *reply.MediaURL)

		sess := store.GetOrCreate(phone, biz.ID)
		assert.Equal(t, session.StateProductDetails, sess.State)
	})

	t.Run("ambiguous match falls through", func(t *testing.T) {
		store.SetState(phone, biz.ID, session.StateBrowsing)

		reply, err := svc.Process(context.Background(), phone, biz, "hammer")
		require.NoError(t, err)
		assert.Nil(t, reply)
	})
}
