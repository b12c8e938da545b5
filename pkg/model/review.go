package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ObjectID  primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID        string             `json:"id" bson:"id"`
	CarID     LegacyID           `json:"carId" bson:"carId"`
	UserID    LegacyID           `json:"userId" bson:"userId"`
	UserName  string             `json:"userName" bson:"userName"`
	Rating    int                `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Comment   string             `json:"comment" bson:"comment" validate:"max=1000"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ReviewCreate struct {
	CarID   string `json:"carId" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type ReviewUpdate struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type ReviewEligibility struct {
	Eligible        bool   `json:"eligible"`
	AlreadyReviewed bool   `json:"alreadyReviewed"`
	Reason          string `json:"reason,omitempty"`
}

type ReviewPage struct {
	Reviews       []*Review `json:"reviews"`
	Total         int64     `json:"total"`
	Page          int       `json:"page"`
	Limit         int       `json:"limit"`
	AverageRating float64   `json:"averageRating"`
}

func (r *Review) Normalize() {
	if r.ID == "" && !r.ObjectID.IsZero() {
		r.ID = r.ObjectID.Hex()
	}
}

func (r *ReviewUpdate) Apply(review *Review) {
	if r.Rating != nil {
		review.Rating = *r.Rating
	}
	if r.Comment != nil {
		review.Comment = *r.Comment
	}
}
