package calendar

import "time"

type DayAvailabilityChanged struct {
	PropertyID string    `json:"property_id"`
	Date       string    `json:"date"`
	Available  bool      `json:"available"`
	Price      *int64    `json:"price,omitempty"`
	At         time.Time `json:"at"`
}

func (e DayAvailabilityChanged) EventName() string     { return "calendar.day_updated" }
func (e DayAvailabilityChanged) AggregateID() string   { return e.PropertyID }
func (e DayAvailabilityChanged) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	PropertyID    string    `json:"property_id"`
	ReservationID string    `json:"reservation_id"`
	At            time.Time `json:"at"`
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return e.PropertyID }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type ReservationCreated struct {
	PropertyID    string    `json:"property_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	At            time.Time `json:"at"`
}

func (e ReservationCreated) EventName() string     { return "reservation.created" }
func (e ReservationCreated) AggregateID() string   { return e.PropertyID }
func (e ReservationCreated) OccurredAt() time.Time { return e.At }
