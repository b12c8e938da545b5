// Package events publishes rental lifecycle changes to Kafka, keyed by car
// so consumers see the events of one car in order.
package events

import (
	"context"
	"time"

	"carrental/pkg/kafka"
	"carrental/pkg/logger"
	"carrental/pkg/middleware"
	"carrental/pkg/model"
)

const (
	RentalCreated   = "rental.created"
	RentalCancelled = "rental.cancelled"
	RentalUpdated   = "rental.updated"

	HeaderRentalStatus = "rental-status"

	source        = "carrental-api"
	schemaVersion = "1"
)

// RentalEvent is the message payload.
type RentalEvent struct {
	Type       string             `json:"type"`
	RentalID   string             `json:"rentalId"`
	CarID      string             `json:"carId"`
	UserID     string             `json:"userId"`
	StartDate  model.Date         `json:"startDate"`
	EndDate    model.Date         `json:"endDate"`
	Status     model.RentalStatus `json:"status"`
	TotalPrice float64            `json:"totalPrice"`
	OccurredAt time.Time          `json:"occurredAt"`
}

type Publisher struct {
	publisher kafka.Publisher
	log       *logger.Logger
}

func NewPublisher(publisher kafka.Publisher, log *logger.Logger) *Publisher {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &Publisher{publisher: publisher, log: log}
}

// Publish never fails the caller; the rental is already persisted when it
// runs, so errors are only logged.
func (p *Publisher) Publish(ctx context.Context, eventType string, rental *model.Rental) {
	event := RentalEvent{
		Type:       eventType,
		RentalID:   rental.ID.String(),
		CarID:      rental.CarID.String(),
		UserID:     rental.UserID.String(),
		StartDate:  rental.StartDate,
		EndDate:    rental.EndDate,
		Status:     rental.Status,
		TotalPrice: rental.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(event.CarID).
		WithValue(event).
		WithEventType(eventType).
		WithHeader(HeaderRentalStatus, string(rental.Status)).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()
	if err != nil {
		p.log.Error("Failed to build rental event", "event_type", eventType, "rental_id", event.RentalID, "error", err)
		return
	}

	if err := p.publisher.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish rental event",
			"event_type", eventType,
			"rental_id", event.RentalID,
			"car_id", event.CarID,
			"error", err,
		)
	}
}
