package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/YK-03/SharePlate/internal/metrics"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Geocoder resolves a free-text address. A nil result with a nil error
// means the address was not found.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.Coordinates, error)
}

// Notifier tells volunteers about a new item.
type Notifier interface {
	NotifyVolunteers(ctx context.Context, item model.Item) error
}

// CreateItemInput is the payload for posting a donation.
type CreateItemInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Address     string `json:"address" validate:"required,max=255"`
	Quantity    *int   `json:"quantity" validate:"omitempty,min=1"`
	ExpiryDate  string `json:"expiry_date" validate:"required"`
}

// ItemOptions tunes the collaborator budgets of ItemService.
type ItemOptions struct {
	GeocodeTimeout time.Duration
	NotifyTimeout  time.Duration
}

// ItemService is the item registry: it creates, lists and relocates
// donation items and fans new ones out to volunteers.
type ItemService struct {
	items    repository.ItemRepository
	geocoder Geocoder
	notifier Notifier
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      *zap.SugaredLogger
	opts     ItemOptions

	pending sync.WaitGroup
}

// NewItemService wires an item registry. geocoder and notifier may be nil.
func NewItemService(
	items repository.ItemRepository,
	geocoder Geocoder,
	notifier Notifier,
	m *metrics.Metrics,
	opts ItemOptions,
	log *zap.SugaredLogger,
) *ItemService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 10 * time.Second
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 30 * time.Second
	}
	return &ItemService{
		items:    items,
		geocoder: geocoder,
		notifier: notifier,
		metrics:  m,
		validate: newValidator(),
		log:      log.Named("items"),
		opts:     opts,
	}
}

// Create validates and stores a new available item owned by donor.
func (s *ItemService) Create(ctx context.Context, donor *model.User, in CreateItemInput) (*model.Item, error) {
	const op = "service.CreateItem"

	if err := Authorize(donor, CapCreateItem); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.ExpiryDate = strings.TrimSpace(in.ExpiryDate)
	if err := validateStruct(s.validate, op, in); err != nil {
		return nil, err
	}
	expiry, err := model.ParseDate(in.ExpiryDate)
	if err != nil {
		return nil, invalid(op, "expiry_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}

	item := &model.Item{
		Name:        in.Name,
		Description: in.Description,
		Address:     in.Address,
		Quantity:    1,
		ExpiryDate:  expiry,
		DonorID:     donor.ID,
		DonorEmail:  donor.Email,
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	item.SetCoordinates(s.geocode(ctx, item.Address))

	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ObserveItemCreated()
	s.log.Infow("[ItemService] Item created", "item_id", item.ID, "donor_id", donor.ID, "geocoded", item.Latitude != nil)

	s.notifyAsync(ctx, *item)
	return item, nil
}

// Get returns an item by ID.
func (s *ItemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := s.items.GetItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, OpError{Op: "service.GetItem", Kind: ErrNotFound, Msg: "Item not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("service.GetItem: %w", err)
	}
	return item, nil
}

// ListAvailable returns available items, newest first.
func (s *ItemService) ListAvailable(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	items, err := s.items.ListAvailableItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service.ListAvailable: %w", err)
	}
	return items, nil
}

// UpdateAddress changes an item's address. Only the donor who posted the
// item may do so. Coordinates are refreshed when the address changed and
// kept as they were when geocoding fails.
func (s *ItemService) UpdateAddress(ctx context.Context, actor *model.User, id int64, address string) (*model.Item, error) {
	const op = "service.UpdateAddress"

	if err := Authorize(actor, CapUpdateItem); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, invalid(op, "address", "This field may not be blank.")
	}
	if len(address) > 255 {
		return nil, invalid(op, "address", "Ensure this field has no more than 255 characters.")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.DonorID != actor.ID {
		return nil, OpError{Op: op, Kind: ErrForbidden, Msg: "You can only edit your own items."}
	}

	var coords *model.Coordinates
	if address != item.Address {
		coords = s.geocode(ctx, address)
	}
	if err := s.items.UpdateItemLocation(ctx, id, address, coords); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, OpError{Op: op, Kind: ErrNotFound, Msg: "Item not found."}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item.Address = address
	item.SetCoordinates(coords)
	return item, nil
}

// geocode is best-effort: failures are logged and yield nil.
func (s *ItemService) geocode(ctx context.Context, address string) *model.Coordinates {
	if s.geocoder == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.GeocodeTimeout)
	defer cancel()

	coords, err := s.geocoder.Geocode(ctx, address)
	switch {
	case err != nil:
		s.metrics.ObserveCollaborator("geocoder", "degraded")
		s.log.Warnw("[ItemService] Geocoding failed, continuing without coordinates", "address", address, "error", err)
		return nil
	case coords == nil:
		s.metrics.ObserveCollaborator("geocoder", "no_result")
		s.log.Infow("[ItemService] Address not found by geocoder", "address", address)
		return nil
	}
	s.metrics.ObserveCollaborator("geocoder", "ok")
	return coords
}

// notifyAsync runs the notifier in the background on a context detached
// from the caller's cancellation, bounded by NotifyTimeout.
func (s *ItemService) notifyAsync(parent context.Context, item model.Item) {
	if s.notifier == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.metrics.ObserveCollaborator("notifier", "panic")
				s.log.Errorw("[ItemService] Notifier panicked", "item_id", item.ID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.opts.NotifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyVolunteers(ctx, item); err != nil {
			s.metrics.ObserveCollaborator("notifier", "degraded")
			s.log.Warnw("[ItemService] Volunteer notification failed", "item_id", item.ID, "error", err)
			return
		}
		s.metrics.ObserveCollaborator("notifier", "ok")
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (s *ItemService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
