package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YK-03/SharePlate/internal/metrics"
	"github.com/YK-03/SharePlate/internal/model"
	"github.com/YK-03/SharePlate/internal/repository"
)

type fakeGeocoder struct {
	mu     sync.Mutex
	coords *model.Coordinates
	err    error
	block  bool
	calls  []string
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*model.Coordinates, error) {
	g.mu.Lock()
	g.calls = append(g.calls, address)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.coords, g.err
}

func (g *fakeGeocoder) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeNotifier struct {
	mu    sync.Mutex
	items []model.Item
	err   error
	panic bool
}

func (n *fakeNotifier) NotifyVolunteers(ctx context.Context, item model.Item) error {
	if n.panic {
		panic("smtp exploded")
	}
	n.mu.Lock()
	n.items = append(n.items, item)
	n.mu.Unlock()
	return n.err
}

func (n *fakeNotifier) notified() []model.Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Item(nil), n.items...)
}

func intPtr(n int) *int { return &n }

func validItem() CreateItemInput {
	return CreateItemInput{
		Name:       "Vegetable curry",
		Address:    "221B Baker Street",
		ExpiryDate: time.Now().AddDate(0, 0, 1).Format(model.DateLayout),
	}
}

type itemFixture struct {
	store    repository.Store
	items    *ItemService
	geocoder *fakeGeocoder
	notifier *fakeNotifier
	donor    *model.User
}

func newItemFixture(t *testing.T) *itemFixture {
	t.Helper()
	store := testStore(t)
	auth := testAuth(t, store)
	f := &itemFixture{
		store:    store,
		geocoder: &fakeGeocoder{coords: &model.Coordinates{Latitude: 51.52, Longitude: -0.158}},
		notifier: &fakeNotifier{},
		donor:    mustRegister(t, auth, "donor@example.com", model.RoleDonor),
	}
	f.items = NewItemService(store, f.geocoder, f.notifier, metrics.New(),
		ItemOptions{GeocodeTimeout: 50 * time.Millisecond, NotifyTimeout: time.Second}, nil)
	return f
}

func (f *itemFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.items.Wait(ctx); err != nil {
		t.Fatalf("wait for notifications: %v", err)
	}
}

func TestCreateItem(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.items.Create(ctx, f.donor, validItem())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == 0 || !item.IsAvailable || item.Quantity != 1 || item.DonorID != f.donor.ID {
		t.Errorf("created item = %+v", item)
	}
	if item.Latitude == nil || *item.Latitude != 51.52 {
		t.Errorf("coordinates not set: %v", item.Latitude)
	}

	f.drain(t)
	if got := f.notifier.notified(); len(got) != 1 || got[0].ID != item.ID {
		t.Errorf("notifier saw %+v", got)
	}

	stored, err := f.items.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Latitude == nil || stored.DonorEmail != "donor@example.com" {
		t.Errorf("stored item = %+v", stored)
	}
}

func TestCreateItemValidation(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*CreateItemInput)
		field string
	}{
		{"zero quantity", func(in *CreateItemInput) { in.Quantity = intPtr(0) }, "quantity"},
		{"blank address", func(in *CreateItemInput) { in.Address = "   " }, "address"},
		{"missing name", func(in *CreateItemInput) { in.Name = "" }, "name"},
		{"missing expiry", func(in *CreateItemInput) { in.ExpiryDate = "" }, "expiry_date"},
		{"bad expiry", func(in *CreateItemInput) { in.ExpiryDate = "tomorrow" }, "expiry_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validItem()
			tt.edit(&in)
			_, err := f.items.Create(ctx, f.donor, in)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Fields[0].Field, tt.field)
			}
		})
	}

	items, _ := f.items.ListAvailable(ctx, model.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("invalid input persisted %d items", len(items))
	}
}

func TestCreateItemRequiresDonor(t *testing.T) {
	f := newItemFixture(t)
	recipient := &model.User{ID: 99, Role: model.RoleRecipient, IsActive: true}

	if _, err := f.items.Create(context.Background(), recipient, validItem()); !errors.Is(err, ErrForbidden) {
		t.Errorf("recipient create: err = %v", err)
	}
	if _, err := f.items.Create(context.Background(), nil, validItem()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous create: err = %v", err)
	}
}

func TestCreateItemGeocoderTimeout(t *testing.T) {
	f := newItemFixture(t)
	f.geocoder.block = true

	start := time.Now()
	item, err := f.items.Create(context.Background(), f.donor, validItem())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Latitude != nil || item.Longitude != nil {
		t.Errorf("expected no coordinates after timeout, got %v,%v", item.Latitude, item.Longitude)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("create took %v, geocode budget not enforced", elapsed)
	}
	f.drain(t)
}

func TestCreateItemNotifierFailuresAreContained(t *testing.T) {
	f := newItemFixture(t)
	f.notifier.panic = true

	if _, err := f.items.Create(context.Background(), f.donor, validItem()); err != nil {
		t.Fatalf("create with panicking notifier: %v", err)
	}
	f.drain(t)

	f.notifier.panic = false
	f.notifier.err = errors.New("smtp down")
	if _, err := f.items.Create(context.Background(), f.donor, validItem()); err != nil {
		t.Fatalf("create with failing notifier: %v", err)
	}
	f.drain(t)
}

func TestCreateItemNotifierOutlivesRequest(t *testing.T) {
	f := newItemFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := f.items.Create(ctx, f.donor, validItem()); err != nil {
		t.Fatalf("create: %v", err)
	}
	cancel()
	f.drain(t)

	if len(f.notifier.notified()) != 1 {
		t.Error("notification dropped when request context was cancelled")
	}
}

func TestUpdateAddress(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()

	item, err := f.items.Create(ctx, f.donor, validItem())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.drain(t)
	before := f.geocoder.callCount()

	// Same address: no geocoding.
	if _, err := f.items.UpdateAddress(ctx, f.donor, item.ID, item.Address); err != nil {
		t.Fatalf("update same address: %v", err)
	}
	if f.geocoder.callCount() != before {
		t.Error("geocoder called for unchanged address")
	}

	f.geocoder.coords = &model.Coordinates{Latitude: 1, Longitude: 2}
	updated, err := f.items.UpdateAddress(ctx, f.donor, item.ID, "10 Downing Street")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Address != "10 Downing Street" || *updated.Latitude != 1 || !updated.IsAvailable {
		t.Errorf("updated item = %+v", updated)
	}

	// Geocoder failure keeps the previous coordinates.
	f.geocoder.coords = nil
	f.geocoder.err = errors.New("nominatim 503")
	updated, err = f.items.UpdateAddress(ctx, f.donor, item.ID, "Somewhere else")
	if err != nil {
		t.Fatalf("update with failing geocoder: %v", err)
	}
	stored, _ := f.items.Get(ctx, item.ID)
	if stored.Address != "Somewhere else" || stored.Latitude == nil || *stored.Latitude != 1 {
		t.Errorf("stored after degraded geocode = %+v", stored)
	}
}

func TestUpdateAddressOwnership(t *testing.T) {
	f := newItemFixture(t)
	ctx := context.Background()
	item, err := f.items.Create(ctx, f.donor, validItem())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f.drain(t)

	other := &model.User{ID: f.donor.ID + 100, Role: model.RoleDonor, IsActive: true}
	if _, err := f.items.UpdateAddress(ctx, other, item.ID, "Elsewhere"); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner update: err = %v", err)
	}
	if _, err := f.items.UpdateAddress(ctx, f.donor, item.ID, "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank address: err = %v", err)
	}
	if _, err := f.items.UpdateAddress(ctx, f.donor, 999, "Anywhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item: err = %v", err)
	}
}
