package rules

import (
	"context"
	"time"

	reservationRepo "reserva/database/repository/reservation"
	rulesRepo "reserva/database/repository/rules"
	"reserva/models"
	"reserva/services/reservation"

	"go.uber.org/zap"
)

// CustomerDirectory is the narrow identity collaborator the customer
// predicate needs: only the blacklist flag, nothing else.
type CustomerDirectory interface {
	Blacklisted(ctx context.Context, customerID string) (bool, error)
}

// Engine evaluates the per-asset auto-confirmation rule set. Rules are read
// in ascending priority order and the first full match wins; if nothing
// matches the reservation goes to manual approval.
type Engine struct {
	Rules        rulesRepo.RuleRepository
	Reservations reservationRepo.ReservationRepository
	Assets       reservation.AssetDirectory
	Customers    CustomerDirectory
	Logger       *zap.Logger
}

// Decide implements reservation.RuleDecider.
func (e *Engine) Decide(ctx context.Context, candidate *models.Reservation, now time.Time) (bool, string, error) {
	enabled, err := e.Rules.ListEnabledForAsset(ctx, candidate.AssetType, candidate.AssetID)
	if err != nil {
		return false, "", err
	}

	for i := range enabled {
		rule := &enabled[i]
		match, err := e.matches(ctx, rule, candidate, now)
		if err != nil {
			return false, "", err
		}
		if match {
			e.Logger.Debug("auto-confirm rule matched",
				zap.String("rule", rule.ID),
				zap.String("reservation", candidate.ID),
			)
			return true, rule.ID, nil
		}
	}
	return false, "", nil
}

// matches requires every enabled predicate group to pass. A rule with all
// groups disabled matches unconditionally.
func (e *Engine) matches(ctx context.Context, rule *models.AutoConfirmRule, candidate *models.Reservation, now time.Time) (bool, error) {
	if rule.Unconditional() {
		return true, nil
	}

	if rule.Time.Enabled && !matchTime(rule.Time, bookingStart(candidate)) {
		return false, nil
	}
	if rule.Amount.Enabled && !matchAmount(rule.Amount, candidate.Price.BindingCents()) {
		return false, nil
	}
	if rule.Booking.Enabled && !matchBooking(rule.Booking, candidate, now) {
		return false, nil
	}
	if rule.Customer.Enabled {
		ok, err := e.matchCustomer(ctx, rule.Customer, candidate.CustomerID)
		if err != nil || !ok {
			return false, err
		}
	}
	if rule.Availability.Enabled {
		ok, err := e.matchAvailability(ctx, rule.Availability, candidate)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// bookingStart resolves the instant the reservation begins: window start for
// ranged assets, the slot instant for slot assets.
func bookingStart(candidate *models.Reservation) time.Time {
	if candidate.Window != nil {
		return candidate.Window.Start
	}
	t, err := time.Parse("2006-01-02 15:04", candidate.SlotDate+" "+candidate.SlotTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

func matchTime(p models.TimePredicate, start time.Time) bool {
	if start.IsZero() {
		return false
	}
	hour := start.Hour()
	if hour < p.StartHour || hour >= p.EndHour {
		return false
	}
	if len(p.DaysOfWeek) == 0 {
		return true
	}
	day := start.Weekday().String()[:3]
	for _, d := range p.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

func matchAmount(p models.AmountPredicate, amountCents int64) bool {
	if amountCents < p.MinCents {
		return false
	}
	if p.MaxCents > 0 && amountCents > p.MaxCents {
		return false
	}
	return true
}

func matchBooking(p models.BookingPredicate, candidate *models.Reservation, now time.Time) bool {
	if candidate.Quantity < p.MinGuests {
		return false
	}
	if p.MaxGuests > 0 && candidate.Quantity > p.MaxGuests {
		return false
	}
	start := bookingStart(candidate)
	if start.IsZero() {
		return false
	}
	advance := start.Sub(now)
	if advance < time.Duration(p.MinAdvanceHrs)*time.Hour {
		return false
	}
	if p.MaxAdvanceDays > 0 && advance > time.Duration(p.MaxAdvanceDays)*24*time.Hour {
		return false
	}
	return true
}

func (e *Engine) matchCustomer(ctx context.Context, p models.CustomerPredicate, customerID string) (bool, error) {
	if p.RejectBlacklisted {
		blocked, err := e.Customers.Blacklisted(ctx, customerID)
		if err != nil {
			return false, models.NewExternalDependencyError("identity provider", err)
		}
		if blocked {
			return false, nil
		}
	}
	if p.MinCompletedBookings > 0 {
		n, err := e.Reservations.CountCompletedByCustomer(ctx, customerID)
		if err != nil {
			return false, err
		}
		if n < p.MinCompletedBookings {
			return false, nil
		}
	}
	return true, nil
}

// matchAvailability caps how full the asset may already be before the rule
// still auto-confirms. Ranged assets are either free (0%) or taken (100%)
// for the requested window; slot assets compare held quantity to capacity.
func (e *Engine) matchAvailability(ctx context.Context, p models.AvailabilityPredicate, candidate *models.Reservation) (bool, error) {
	q := reservationRepo.ConflictQuery{
		AssetType: candidate.AssetType,
		AssetID:   candidate.AssetID,
		Window:    candidate.Window,
		SlotDate:  candidate.SlotDate,
		SlotTime:  candidate.SlotTime,
	}
	holders, err := e.Reservations.FindHolding(ctx, q)
	if err != nil {
		return false, err
	}

	var occupancyPct int
	if candidate.AssetType.IsRanged() {
		if len(holders) > 0 {
			occupancyPct = 100
		}
	} else {
		capacity, err := e.Assets.SlotCapacity(ctx, candidate.AssetType, candidate.AssetID)
		if err != nil {
			return false, models.NewExternalDependencyError("asset catalog", err)
		}
		if capacity <= 0 {
			return false, nil
		}
		held := 0
		for i := range holders {
			held += holders[i].Quantity
		}
		occupancyPct = held * 100 / capacity
	}
	return occupancyPct <= p.MaxOccupancyPct, nil
}
