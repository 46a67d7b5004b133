package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/model"
	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/session"
)

// ResolverService decides which business an inbound message belongs to.
// Priority chain: the phone's active session, then an existing customer
// association, then the WhatsApp number the customer messaged. The session
// store is only consulted and updated; resolution policy lives here.
type ResolverService struct {
	store        *session.Store
	businessRepo repository.BusinessRepository
	customerRepo repository.CustomerRepository
}

func NewResolverService(
	store *session.Store,
	businessRepo repository.BusinessRepository,
	customerRepo repository.CustomerRepository,
) *ResolverService {
	return &ResolverService{
		store:        store,
		businessRepo: businessRepo,
		customerRepo: customerRepo,
	}
}

// Resolve returns the business for (customerPhone, toNumber), or nil when
// the customer still has to pick one. A database hit registers the business
// in the session store so the next message short-circuits on the session.
func (s *ResolverService) Resolve(ctx context.Context, customerPhone, toNumber string) (*model.Business, error) {
	if businessID, ok := s.store.ActiveBusiness(customerPhone); ok {
		business, err := s.businessRepo.FindByID(ctx, businessID)
		if err != nil {
			return nil, err
		}
		if business != nil {
			return business, nil
		}
		// The session points at a business that has since been
		// deactivated; fall through to the other resolution steps.
		log.Warn().
			Str("phone", customerPhone).
			Str("businessId", businessID).
			Msg("active session references unknown business")
	}

	customers, err := s.customerRepo.FindByPhone(ctx, customerPhone)
	if err != nil {
		return nil, err
	}
	for _, customer := range customers {
		business, err := s.businessRepo.FindByID(ctx, customer.BusinessID)
		if err != nil {
			return nil, err
		}
		if business != nil {
			s.store.GetOrCreate(customerPhone, business.ID)
			log.Info().
				Str("phone", customerPhone).
				Str("businessId", business.ID).
				Msg("business resolved via customer association")
			return business, nil
		}
	}

	business, err := s.businessRepo.FindByWhatsAppNumber(ctx, toNumber)
	if err != nil {
		return nil, err
	}
	if business != nil {
		s.store.GetOrCreate(customerPhone, business.ID)
		log.Info().
			Str("phone", customerPhone).
			Str("businessId", business.ID).
			Msg("business resolved via destination number")
		return business, nil
	}

	log.Warn().
		Str("phone", customerPhone).
		Str("to", toNumber).
		Msg("could not resolve business")
	return nil, nil
}

// ListBusinesses exposes the selection menu for unresolved customers.
func (s *ResolverService) ListBusinesses(ctx context.Context) ([]model.Business, error) {
	return s.businessRepo.ListActive(ctx)
}
