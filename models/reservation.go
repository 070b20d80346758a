package models

import "time"

// AssetType identifies which marketplace vertical a reservation belongs to.
type AssetType string

const (
	AssetActivity      AssetType = "activity"
	AssetEvent         AssetType = "event"
	AssetRestaurant    AssetType = "restaurant"
	AssetVehicle       AssetType = "vehicle"
	AssetAccommodation AssetType = "accommodation"
)

// IsValid returns true if the asset type is recognized.
func (a AssetType) IsValid() bool {
	switch a {
	case AssetActivity, AssetEvent, AssetRestaurant, AssetVehicle, AssetAccommodation:
		return true
	}
	return false
}

// IsRanged returns true for assets booked over a {start, end} window. Slot
// assets (activities, events, restaurant tables) are booked for a single
// date+time instead.
func (a AssetType) IsRanged() bool {
	return a == AssetVehicle || a == AssetAccommodation
}

// Window is a half-open [Start, End) occupation interval.
type Window struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// Overlaps reports whether two half-open windows intersect. Touching
// boundaries do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// Price carries the money amounts of a reservation in integer cents.
// FinalCents stays nil until an admin confirms the binding price or the asset
// pricing rules compute it deterministically.
type Price struct {
	EstimatedCents int64  `bson:"estimated_cents" json:"estimatedCents"`
	FinalCents     *int64 `bson:"final_cents,omitempty" json:"finalCents,omitempty"`
	PaidCents      int64  `bson:"paid_cents" json:"paidCents"`
	Currency       string `bson:"currency" json:"currency"`
}

// BindingCents returns the amount the customer must actually pay: the
// confirmed final price when set, otherwise the estimate.
func (p Price) BindingCents() int64 {
	if p.FinalCents != nil {
		return *p.FinalCents
	}
	return p.EstimatedCents
}

// ActivityDetails carries the fields specific to activity reservations.
type ActivityDetails struct {
	Title        string `bson:"title" json:"title"`
	MeetingPoint string `bson:"meeting_point,omitempty" json:"meetingPoint,omitempty"`
}

// EventDetails carries the fields specific to event ticket reservations.
type EventDetails struct {
	EventName string `bson:"event_name" json:"eventName"`
	Section   string `bson:"section,omitempty" json:"section,omitempty"`
}

// RestaurantDetails carries the fields specific to table reservations.
type RestaurantDetails struct {
	TableArea string `bson:"table_area,omitempty" json:"tableArea,omitempty"`
	Notes     string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// VehicleDetails carries the fields specific to vehicle rentals.
type VehicleDetails struct {
	PlateNumber    string `bson:"plate_number,omitempty" json:"plateNumber,omitempty"`
	PickupLocation string `bson:"pickup_location,omitempty" json:"pickupLocation,omitempty"`
}

// AccommodationDetails carries the fields specific to accommodation stays.
type AccommodationDetails struct {
	RoomType string `bson:"room_type,omitempty" json:"roomType,omitempty"`
}

// ReservationDetails is a tagged union over the per-asset payloads. Exactly
// one member is set, matching the reservation's AssetType.
type ReservationDetails struct {
	Activity      *ActivityDetails      `bson:"activity,omitempty" json:"activity,omitempty"`
	Event         *EventDetails         `bson:"event,omitempty" json:"event,omitempty"`
	Restaurant    *RestaurantDetails    `bson:"restaurant,omitempty" json:"restaurant,omitempty"`
	Vehicle       *VehicleDetails       `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
	Accommodation *AccommodationDetails `bson:"accommodation,omitempty" json:"accommodation,omitempty"`
}

// Reservation is the aggregate root of the booking domain. Status and
// PaymentStatus move only through the guarded transition methods below;
// repositories persist mutations with an optimistic check on Version.
type Reservation struct {
	ID         string    `bson:"id" json:"id"`
	AssetType  AssetType `bson:"asset_type" json:"assetType"`
	AssetID    string    `bson:"asset_id" json:"assetId"`
	CustomerID string    `bson:"customer_id" json:"customerId"`

	// Window is set for ranged assets; SlotDate/SlotTime for slot assets.
	Window   *Window `bson:"window,omitempty" json:"window,omitempty"`
	SlotDate string  `bson:"slot_date,omitempty" json:"slotDate,omitempty"` // "2006-01-02"
	SlotTime string  `bson:"slot_time,omitempty" json:"slotTime,omitempty"` // "15:04"

	Quantity  int                `bson:"quantity" json:"quantity"`
	IsPackage bool               `bson:"is_package,omitempty" json:"isPackage,omitempty"`
	Details   ReservationDetails `bson:"details" json:"details"`

	Status        ReservationStatus `bson:"status" json:"status"`
	PaymentStatus PaymentStatus     `bson:"payment_status" json:"paymentStatus"`
	Price         Price             `bson:"price" json:"price"`

	// ConfirmationCode is generated once at creation and never changes.
	ConfirmationCode string `bson:"confirmation_code" json:"confirmationCode"`

	// PaymentDeadline is set when the reservation enters awaiting_payment.
	PaymentDeadline *time.Time `bson:"payment_deadline,omitempty" json:"paymentDeadline,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`

	// At most one terminal timestamp is ever set.
	ConfirmedAt *time.Time `bson:"confirmed_at,omitempty" json:"confirmedAt,omitempty"`
	PaidAt      *time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	CanceledAt  *time.Time `bson:"canceled_at,omitempty" json:"canceledAt,omitempty"`
	RejectedAt  *time.Time `bson:"rejected_at,omitempty" json:"rejectedAt,omitempty"`
	ExpiredAt   *time.Time `bson:"expired_at,omitempty" json:"expiredAt,omitempty"`

	// Version supports optimistic concurrency; bumped on every persisted write.
	Version int64 `bson:"version" json:"version"`
}

// OccupiedWindow returns the interval this reservation holds on its asset.
// Slot reservations occupy a zero-length marker window at their slot instant;
// slot conflicts are resolved by slot equality plus capacity, not by overlap.
func (r *Reservation) OccupiedWindow() (Window, bool) {
	if r.Window != nil {
		return *r.Window, true
	}
	return Window{}, false
}

// SameSlot reports whether two slot reservations compete for the same slot.
func (r *Reservation) SameSlot(date, timeOfDay string) bool {
	return r.SlotDate == date && r.SlotTime == timeOfDay
}

func (r *Reservation) touch(now time.Time) {
	r.UpdatedAt = now
}

// MoveTo applies a guarded status transition. It is the single write path for
// Status: all domain operations and sweeps go through it.
func (r *Reservation) MoveTo(target ReservationStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(r.ID, string(r.Status), string(target))
	}
	r.Status = target
	switch target {
	case StatusConfirmed:
		t := now
		r.ConfirmedAt = &t
	case StatusCanceled:
		t := now
		r.CanceledAt = &t
	case StatusRejected:
		t := now
		r.RejectedAt = &t
	case StatusExpired:
		t := now
		r.ExpiredAt = &t
	}
	r.touch(now)
	return nil
}

// MovePaymentTo applies a guarded payment-status transition and keeps the
// status/payment pair inside the valid cross-product.
func (r *Reservation) MovePaymentTo(target PaymentStatus, now time.Time) error {
	if !r.PaymentStatus.CanTransitionTo(target) {
		return NewInvalidTransitionError(r.ID, string(r.PaymentStatus), string(target))
	}
	if !ValidStatusPair(r.Status, target) {
		return NewInvalidTransitionError(r.ID, string(r.Status)+"/"+string(r.PaymentStatus), string(r.Status)+"/"+string(target))
	}
	r.PaymentStatus = target
	if target == PaymentPaid {
		t := now
		r.PaidAt = &t
	}
	r.touch(now)
	return nil
}

// OpenPaymentWindow moves the reservation into awaiting_payment with the
// given deadline. The binding price must already be set.
func (r *Reservation) OpenPaymentWindow(deadline, now time.Time) error {
	if err := r.MoveTo(StatusAwaitingPayment, now); err != nil {
		return err
	}
	d := deadline
	r.PaymentDeadline = &d
	if r.PaymentStatus == PaymentNotRequired {
		if err := r.MovePaymentTo(PaymentPending, now); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPayment applies a successful payment: the reservation becomes
// confirmed and the payment axis becomes paid.
func (r *Reservation) RegisterPayment(amountCents int64, now time.Time) error {
	if err := r.MoveTo(StatusConfirmed, now); err != nil {
		return err
	}
	if err := r.MovePaymentTo(PaymentPaid, now); err != nil {
		return err
	}
	r.Price.PaidCents = amountCents
	return nil
}

// Expire moves an unpaid reservation to expired. The payment axis is closed
// as canceled unless it already ended in failed.
func (r *Reservation) Expire(now time.Time) error {
	if err := r.MoveTo(StatusExpired, now); err != nil {
		return err
	}
	if r.PaymentStatus != PaymentFailed && r.PaymentStatus != PaymentNotRequired {
		if err := r.MovePaymentTo(PaymentCanceled, now); err != nil {
			return err
		}
	}
	return nil
}

// Cancel moves any non-terminal reservation to canceled.
func (r *Reservation) Cancel(now time.Time) error {
	return r.MoveTo(StatusCanceled, now)
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.Version++
}
