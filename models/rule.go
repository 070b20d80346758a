package models

import "time"

// TimePredicate restricts when (booking slot time) a rule applies.
type TimePredicate struct {
	Enabled    bool     `bson:"enabled" json:"enabled"`
	StartHour  int      `bson:"start_hour" json:"startHour"` // inclusive, 0-23
	EndHour    int      `bson:"end_hour" json:"endHour"`     // exclusive, 1-24
	DaysOfWeek []string `bson:"days_of_week,omitempty" json:"daysOfWeek,omitempty"`
}

// AmountPredicate bounds the estimated amount of the candidate reservation.
type AmountPredicate struct {
	Enabled  bool  `bson:"enabled" json:"enabled"`
	MinCents int64 `bson:"min_cents" json:"minCents"`
	MaxCents int64 `bson:"max_cents" json:"maxCents"` // 0 = unbounded
}

// CustomerPredicate gates on the customer's history with the platform.
type CustomerPredicate struct {
	Enabled              bool `bson:"enabled" json:"enabled"`
	RejectBlacklisted    bool `bson:"reject_blacklisted" json:"rejectBlacklisted"`
	MinCompletedBookings int  `bson:"min_completed_bookings" json:"minCompletedBookings"`
}

// BookingPredicate bounds guest count and booking lead time.
type BookingPredicate struct {
	Enabled        bool `bson:"enabled" json:"enabled"`
	MinGuests      int  `bson:"min_guests" json:"minGuests"`
	MaxGuests      int  `bson:"max_guests" json:"maxGuests"` // 0 = unbounded
	MinAdvanceHrs  int  `bson:"min_advance_hrs" json:"minAdvanceHrs"`
	MaxAdvanceDays int  `bson:"max_advance_days" json:"maxAdvanceDays"` // 0 = unbounded
}

// AvailabilityPredicate caps how full the asset may already be.
type AvailabilityPredicate struct {
	Enabled         bool `bson:"enabled" json:"enabled"`
	MaxOccupancyPct int  `bson:"max_occupancy_pct" json:"maxOccupancyPct"`
}

// AutoConfirmRule decides whether a candidate reservation may skip manual
// approval. Rules are owned by the partner organization that owns the asset
// and evaluated in ascending Priority order; the first match wins. A rule
// with every predicate group disabled matches unconditionally.
type AutoConfirmRule struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"ownerId"`
	AssetType AssetType `bson:"asset_type" json:"assetType"`
	AssetID   string    `bson:"asset_id" json:"assetId"`
	Priority  int       `bson:"priority" json:"priority"`
	Enabled   bool      `bson:"enabled" json:"enabled"`

	Time         TimePredicate         `bson:"time" json:"time"`
	Amount       AmountPredicate       `bson:"amount" json:"amount"`
	Customer     CustomerPredicate     `bson:"customer" json:"customer"`
	Booking      BookingPredicate      `bson:"booking" json:"booking"`
	Availability AvailabilityPredicate `bson:"availability" json:"availability"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Unconditional reports whether every predicate group is disabled, in which
// case the rule always matches.
func (r *AutoConfirmRule) Unconditional() bool {
	return !r.Time.Enabled && !r.Amount.Enabled && !r.Customer.Enabled &&
		!r.Booking.Enabled && !r.Availability.Enabled
}
