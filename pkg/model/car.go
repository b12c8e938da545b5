package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Car struct {
	ObjectID    primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID          LegacyID           `json:"id" bson:"id,omitempty"`
	Make        string             `json:"make" bson:"make" validate:"required,min=1,max=100"`
	Model       string             `json:"model" bson:"model" validate:"required,min=1,max=100"`
	Year        int                `json:"year" bson:"year" validate:"required,min=1886,max=2100"`
	PricePerDay float64            `json:"price_per_day" bson:"price_per_day" validate:"gt=0"`
	Images      []string           `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,dive,required"`
	Category    string             `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,max=50"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Specs       map[string]any     `json:"specs,omitempty" bson:"specs,omitempty"`
	CreatedAt   *time.Time         `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

// Normalize gives documents that only carry an ObjectID a usable id.
func (c *Car) Normalize() {
	if c.ID.IsZero() && !c.ObjectID.IsZero() {
		c.ID = StringID(c.ObjectID.Hex())
	}
}

func (c *Car) CanonicalID() string {
	c.Normalize()
	return c.ID.String()
}

// Aliases lists every identifier a rental may have recorded for this car.
func (c *Car) Aliases() []LegacyID {
	return aliasesOf(c.ObjectID, c.ID)
}

func (c *Car) Summary() *CarSummary {
	return &CarSummary{
		ID:          c.ID,
		Make:        c.Make,
		Model:       c.Model,
		Year:        c.Year,
		Images:      c.Images,
		PricePerDay: c.PricePerDay,
	}
}

type CarSummary struct {
	ID          LegacyID `json:"id"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Year        int      `json:"year"`
	Images      []string `json:"images,omitempty"`
	PricePerDay float64  `json:"price_per_day,omitempty"`
}

// CarUpdate is a shallow merge patch; nil fields are left untouched.
type CarUpdate struct {
	ID          *LegacyID       `json:"id,omitempty"`
	Make        *string         `json:"make,omitempty" validate:"omitempty,min=1,max=100"`
	Model       *string         `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Year        *int            `json:"year,omitempty" validate:"omitempty,min=1886,max=2100"`
	PricePerDay *float64        `json:"price_per_day,omitempty" validate:"omitempty,gt=0"`
	Images      *[]string       `json:"images,omitempty"`
	Category    *string         `json:"category,omitempty" validate:"omitempty,max=50"`
	Description *string         `json:"description,omitempty"`
	Specs       *map[string]any `json:"specs,omitempty"`
}

func (u *CarUpdate) Apply(c *Car) {
	if u.ID != nil && !u.ID.IsZero() {
		c.ID = *u.ID
	}
	if u.Make != nil {
		c.Make = *u.Make
	}
	if u.Model != nil {
		c.Model = *u.Model
	}
	if u.Year != nil {
		c.Year = *u.Year
	}
	if u.PricePerDay != nil {
		c.PricePerDay = *u.PricePerDay
	}
	if u.Images != nil {
		c.Images = *u.Images
	}
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Specs != nil {
		c.Specs = *u.Specs
	}
}
