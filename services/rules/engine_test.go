package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	reservationRepo "reserva/database/repository/reservation"
	"reserva/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuleRepo struct {
	rules []models.AutoConfirmRule
	err   error
}

func (f *fakeRuleRepo) ListEnabledForAsset(ctx context.Context, assetType models.AssetType, assetID string) ([]models.AutoConfirmRule, error) {
	return f.rules, f.err
}
func (f *fakeRuleRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.AutoConfirmRule, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRuleRepo) GetByID(ctx context.Context, id string) (*models.AutoConfirmRule, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRuleRepo) Create(ctx context.Context, rule *models.AutoConfirmRule) error { return nil }
func (f *fakeRuleRepo) Update(ctx context.Context, rule *models.AutoConfirmRule) error { return nil }
func (f *fakeRuleRepo) Delete(ctx context.Context, id string) error                    { return nil }

// fakeResRepo serves the two read paths the engine uses.
type fakeResRepo struct {
	holders   []models.Reservation
	completed int
	err       error
}

func (f *fakeResRepo) FindHolding(ctx context.Context, q reservationRepo.ConflictQuery) ([]models.Reservation, error) {
	return f.holders, f.err
}
func (f *fakeResRepo) CountCompletedByCustomer(ctx context.Context, customerID string) (int, error) {
	return f.completed, f.err
}
func (f *fakeResRepo) CreateWithConflictCheck(ctx context.Context, res *models.Reservation, q reservationRepo.ConflictQuery, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error {
	return errors.New("not implemented")
}
func (f *fakeResRepo) UpdateVersioned(ctx context.Context, res *models.Reservation, expectedVersion int64, history models.ChangeHistoryEntry, outbox []models.OutboxEntry) error {
	return errors.New("not implemented")
}
func (f *fakeResRepo) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeResRepo) GetByConfirmationCode(ctx context.Context, code string) (*models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeResRepo) ListByAsset(ctx context.Context, assetType models.AssetType, assetID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeResRepo) ListForSweep(ctx context.Context, filter reservationRepo.SweepFilter) ([]models.Reservation, error) {
	return nil, errors.New("not implemented")
}

type fakeAssets struct {
	capacity int
	err      error
}

func (f *fakeAssets) SlotCapacity(ctx context.Context, assetType models.AssetType, assetID string) (int, error) {
	return f.capacity, f.err
}
func (f *fakeAssets) QuantityBounds(ctx context.Context, assetType models.AssetType, assetID string) (int, int, error) {
	return 1, 0, nil
}

type fakeCustomers struct {
	blacklisted bool
	err         error
}

func (f *fakeCustomers) Blacklisted(ctx context.Context, customerID string) (bool, error) {
	return f.blacklisted, f.err
}

// decisionNow is a Saturday; the evening slot below starts at 19:30 two days later.
var decisionNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func slotCandidate() *models.Reservation {
	return &models.Reservation{
		ID:         "res-1",
		AssetType:  models.AssetRestaurant,
		AssetID:    "table-9",
		CustomerID: "cust-1",
		SlotDate:   "2026-03-16", // a Monday
		SlotTime:   "19:30",
		Quantity:   2,
		Price:      models.Price{EstimatedCents: 12000, Currency: "BRL"},
	}
}

func newEngine(rules []models.AutoConfirmRule, res *fakeResRepo) *Engine {
	return &Engine{
		Rules:        &fakeRuleRepo{rules: rules},
		Reservations: res,
		Assets:       &fakeAssets{capacity: 10},
		Customers:    &fakeCustomers{},
		Logger:       zap.NewNop(),
	}
}

func unconditionalRule(id string, priority int) models.AutoConfirmRule {
	return models.AutoConfirmRule{ID: id, Priority: priority, Enabled: true}
}

func TestDecideNoRulesMeansManualApproval(t *testing.T) {
	engine := newEngine(nil, &fakeResRepo{})

	ok, ruleID, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ruleID)
}

func TestDecideUnconditionalRuleMatches(t *testing.T) {
	engine := newEngine([]models.AutoConfirmRule{unconditionalRule("rule-1", 1)}, &fakeResRepo{})

	ok, ruleID, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rule-1", ruleID)
}

func TestDecideFirstMatchWins(t *testing.T) {
	// the repo returns rules already sorted by priority
	strict := models.AutoConfirmRule{
		ID: "strict", Priority: 1, Enabled: true,
		Amount: models.AmountPredicate{Enabled: true, MinCents: 1_000_000},
	}
	engine := newEngine([]models.AutoConfirmRule{strict, unconditionalRule("fallback", 2)}, &fakeResRepo{})

	ok, ruleID, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fallback", ruleID, "non-matching rules are skipped, not fatal")
}

func TestTimePredicate(t *testing.T) {
	tests := []struct {
		name  string
		pred  models.TimePredicate
		match bool
	}{
		{"inside window", models.TimePredicate{Enabled: true, StartHour: 18, EndHour: 22}, true},
		{"before window", models.TimePredicate{Enabled: true, StartHour: 20, EndHour: 23}, false},
		{"end hour is exclusive", models.TimePredicate{Enabled: true, StartHour: 10, EndHour: 19}, false},
		{"matching weekday", models.TimePredicate{Enabled: true, StartHour: 18, EndHour: 22, DaysOfWeek: []string{"Mon", "Tue"}}, true},
		{"wrong weekday", models.TimePredicate{Enabled: true, StartHour: 18, EndHour: 22, DaysOfWeek: []string{"Sat", "Sun"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.AutoConfirmRule{ID: "r", Enabled: true, Time: tt.pred}
			engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})
			ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
		})
	}
}

func TestAmountPredicate(t *testing.T) {
	tests := []struct {
		name  string
		pred  models.AmountPredicate
		match bool
	}{
		{"within bounds", models.AmountPredicate{Enabled: true, MinCents: 10000, MaxCents: 20000}, true},
		{"below minimum", models.AmountPredicate{Enabled: true, MinCents: 15000}, false},
		{"above maximum", models.AmountPredicate{Enabled: true, MaxCents: 10000}, false},
		{"zero max is unbounded", models.AmountPredicate{Enabled: true, MinCents: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.AutoConfirmRule{ID: "r", Enabled: true, Amount: tt.pred}
			engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})
			ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
		})
	}
}

func TestAmountPredicateUsesBindingPrice(t *testing.T) {
	rule := models.AutoConfirmRule{
		ID: "r", Enabled: true,
		Amount: models.AmountPredicate{Enabled: true, MaxCents: 20000},
	}
	engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})

	candidate := slotCandidate()
	final := int64(30000)
	candidate.Price.FinalCents = &final

	ok, _, err := engine.Decide(context.Background(), candidate, decisionNow)
	require.NoError(t, err)
	assert.False(t, ok, "a confirmed final price overrides the estimate")
}

func TestBookingPredicate(t *testing.T) {
	tests := []struct {
		name  string
		pred  models.BookingPredicate
		match bool
	}{
		{"guests within bounds", models.BookingPredicate{Enabled: true, MinGuests: 1, MaxGuests: 4}, true},
		{"too few guests", models.BookingPredicate{Enabled: true, MinGuests: 4}, false},
		{"too many guests", models.BookingPredicate{Enabled: true, MaxGuests: 1}, false},
		// the slot is ~57.5 hours ahead of decisionNow
		{"enough lead time", models.BookingPredicate{Enabled: true, MinAdvanceHrs: 48}, true},
		{"too little lead time", models.BookingPredicate{Enabled: true, MinAdvanceHrs: 72}, false},
		{"too far ahead", models.BookingPredicate{Enabled: true, MaxAdvanceDays: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.AutoConfirmRule{ID: "r", Enabled: true, Booking: tt.pred}
			engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})
			ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
		})
	}
}

func TestCustomerPredicate(t *testing.T) {
	rule := models.AutoConfirmRule{
		ID: "r", Enabled: true,
		Customer: models.CustomerPredicate{Enabled: true, RejectBlacklisted: true, MinCompletedBookings: 3},
	}

	t.Run("trusted customer passes", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{completed: 5})
		ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("blacklisted customer fails", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{completed: 5})
		engine.Customers = &fakeCustomers{blacklisted: true}
		ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("thin history fails", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{completed: 1})
		ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("identity lookup failure propagates", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})
		engine.Customers = &fakeCustomers{err: errors.New("identity down")}
		_, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		assert.Equal(t, models.KindExternalDependency, models.KindOf(err))
	})
}

func TestAvailabilityPredicateSlot(t *testing.T) {
	rule := models.AutoConfirmRule{
		ID: "r", Enabled: true,
		Availability: models.AvailabilityPredicate{Enabled: true, MaxOccupancyPct: 50},
	}

	t.Run("below the cap", func(t *testing.T) {
		// 4 of 10 seats held = 40%
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{
			holders: []models.Reservation{{Quantity: 4, Status: models.StatusConfirmed}},
		})
		ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("above the cap", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{
			holders: []models.Reservation{{Quantity: 6, Status: models.StatusConfirmed}},
		})
		ok, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAvailabilityPredicateRanged(t *testing.T) {
	rule := models.AutoConfirmRule{
		ID: "r", Enabled: true,
		Availability: models.AvailabilityPredicate{Enabled: true, MaxOccupancyPct: 50},
	}

	start := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	candidate := &models.Reservation{
		ID:        "res-1",
		AssetType: models.AssetVehicle,
		AssetID:   "car-7",
		Window:    &models.Window{Start: start, End: start.Add(48 * time.Hour)},
		Quantity:  1,
		Price:     models.Price{EstimatedCents: 90000, Currency: "BRL"},
	}

	t.Run("free vehicle", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{})
		ok, _, err := engine.Decide(context.Background(), candidate, decisionNow)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("held vehicle is fully occupied", func(t *testing.T) {
		engine := newEngine([]models.AutoConfirmRule{rule}, &fakeResRepo{
			holders: []models.Reservation{{Quantity: 1, Status: models.StatusConfirmed}},
		})
		ok, _, err := engine.Decide(context.Background(), candidate, decisionNow)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDecideRuleRepoFailurePropagates(t *testing.T) {
	engine := newEngine(nil, &fakeResRepo{})
	engine.Rules = &fakeRuleRepo{err: errors.New("rules collection unavailable")}

	_, _, err := engine.Decide(context.Background(), slotCandidate(), decisionNow)
	assert.Error(t, err, "an unreadable rule set must not silently auto-confirm")
}
