package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/repository"
)

const productListLimit = 5

// CatalogService reads the product catalog and renders it for WhatsApp.
// Snapshots handed to the session store are frozen here; the store never
// calls back into the catalog.
type CatalogService struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{productRepo: productRepo}
}

func (s *CatalogService) ListProducts(ctx context.Context, businessID string) ([]model.Product, error) {
	return s.productRepo.ListByBusiness(ctx, businessID, productListLimit)
}

func (s *CatalogService) ListByCategory(ctx context.Context, businessID, category string) ([]model.Product, error) {
	return s.productRepo.ListByCategory(ctx, businessID, category, productListLimit)
}

func (s *CatalogService) Search(ctx context.Context, businessID, query string) ([]model.Product, error) {
	return s.productRepo.Search(ctx, businessID, query, productListLimit)
}

func (s *CatalogService) Categories(ctx context.Context, businessID string) ([]string, error) {
	return s.productRepo.ListCategories(ctx, businessID)
}

func (s *CatalogService) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// FormatProductList renders a numbered product list the way the assistant
// presents catalogs on WhatsApp.
func FormatProductList(products []model.Product, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", title)
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s - K%s\n", i+1, p.Name, p.Price.StringFixed(2))
		if p.Description != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(p.Description, 80))
		}
	}
	b.WriteString("\nReply with a product's number or name to see details, or 'add <name>' to add it to your cart.")
	return b.String()
}

// FormatProductDetails renders one product, returning the body and an
// optional image URL to attach.
func FormatProductDetails(p model.Product) (string, *string) {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Description)
	}
	fmt.Fprintf(&b, "Price: K%s\n", p.Price.StringFixed(2))
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	b.WriteString("\nReply 'add " + p.Name + "' to add it to your cart.")
	return b.String(), p.ImageURL
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
