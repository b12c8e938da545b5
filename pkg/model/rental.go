package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RentalStatus string

const (
	RentalActive    RentalStatus = "active"
	RentalCompleted RentalStatus = "completed"
	RentalCancelled RentalStatus = "cancelled"

	DefaultLocation = "Default Location"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalActive, RentalCompleted, RentalCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes active -> {completed, cancelled}; completed and
// cancelled are terminal. Writing the current status again is allowed.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	if s == next {
		return true
	}
	return s == RentalActive && (next == RentalCompleted || next == RentalCancelled)
}

type Rental struct {
	ObjectID        primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID              LegacyID           `json:"id" bson:"id"`
	CarID           LegacyID           `json:"carId" bson:"carId"`
	UserID          LegacyID           `json:"userId" bson:"userId"`
	UserEmail       string             `json:"userEmail" bson:"userEmail"`
	UserName        string             `json:"userName" bson:"userName"`
	StartDate       Date               `json:"startDate" bson:"startDate"`
	EndDate         Date               `json:"endDate" bson:"endDate"`
	PickupLocation  string             `json:"pickupLocation" bson:"pickupLocation"`
	DropoffLocation string             `json:"dropoffLocation" bson:"dropoffLocation"`
	SpecialRequests string             `json:"specialRequests" bson:"specialRequests"`
	TotalDays       int                `json:"totalDays" bson:"totalDays"`
	PricePerDay     float64            `json:"pricePerDay" bson:"pricePerDay"`
	TotalPrice      float64            `json:"totalPrice" bson:"totalPrice"`
	Status          RentalStatus       `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	CancelledAt     *time.Time         `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
	PaymentInfo     map[string]any     `json:"paymentInfo,omitempty" bson:"paymentInfo,omitempty"`
}

func (r *Rental) Normalize() {
	if r.ID.IsZero() && !r.ObjectID.IsZero() {
		r.ID = StringID(r.ObjectID.Hex())
	}
	if r.Status == "" {
		r.Status = RentalActive
	}
}

func (r *Rental) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

func (r *Rental) IsActive() bool {
	return r.Status == RentalActive
}

// SameRecord reports whether two values describe the same stored rental.
func (r *Rental) SameRecord(other *Rental) bool {
	if !r.ObjectID.IsZero() && r.ObjectID == other.ObjectID {
		return true
	}
	return !r.ID.IsZero() && r.ID.Equal(other.ID)
}

// RentalPatch carries the mutable fields of a rental. Nil fields are
// left untouched.
type RentalPatch struct {
	StartDate   *Date
	EndDate     *Date
	TotalDays   *int
	PricePerDay *float64
	TotalPrice  *float64
	Status      *RentalStatus
	CancelledAt *time.Time
}

func (p *RentalPatch) IsEmpty() bool {
	return p.StartDate == nil && p.EndDate == nil && p.TotalDays == nil &&
		p.PricePerDay == nil && p.TotalPrice == nil && p.Status == nil && p.CancelledAt == nil
}

func (p *RentalPatch) Apply(r *Rental) {
	if p.StartDate != nil {
		r.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		r.EndDate = *p.EndDate
	}
	if p.TotalDays != nil {
		r.TotalDays = *p.TotalDays
	}
	if p.PricePerDay != nil {
		r.PricePerDay = *p.PricePerDay
	}
	if p.TotalPrice != nil {
		r.TotalPrice = *p.TotalPrice
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		r.CancelledAt = &t
	}
}

// RentalView is a rental joined with display data.
type RentalView struct {
	*Rental
	Car  *CarSummary  `json:"car"`
	User *UserSummary `json:"user,omitempty"`
}

type RentRequest struct {
	StartDate       string         `json:"startDate"`
	EndDate         string         `json:"endDate"`
	PickupLocation  string         `json:"pickupLocation" validate:"omitempty,max=200"`
	DropoffLocation string         `json:"dropoffLocation" validate:"omitempty,max=200"`
	SpecialRequests string         `json:"specialRequests" validate:"omitempty,max=1000"`
	PaymentInfo     map[string]any `json:"paymentInfo"`
}

type AvailabilityRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type RentalUpdate struct {
	StartDate *string       `json:"startDate,omitempty"`
	EndDate   *string       `json:"endDate,omitempty"`
	Status    *RentalStatus `json:"status,omitempty" validate:"omitempty,oneof=active completed cancelled"`
}

type AvailabilityResult struct {
	Available bool        `json:"available"`
	Car       *CarSummary `json:"car"`
}

// RentalResult is the body returned by rental mutations.
type RentalResult struct {
	Message string  `json:"message"`
	Rental  *Rental `json:"rental"`
	Car     *Car    `json:"car,omitempty"`
}

// RentalLock is an advisory lock document serialising bookings of one car
// across API instances.
type RentalLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
