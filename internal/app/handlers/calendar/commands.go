package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lajuana/internal/app/commands"
	"lajuana/internal/app/dto"
	"lajuana/internal/app/policies"
	"lajuana/internal/app/queries"
	domaincal "lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

const (
	SetDayAvailabilityKey = "calendar.set_day_availability"
	RepriceDayKey         = "calendar.reprice_day"
	CancelReservationKey  = "reservations.cancel"
	CreateReservationKey  = "reservations.create"
)

// ErrDayNotInFeed is returned when a re-price targets a date the provider did
// not report; re-sending an unknown state could reopen a blocked day.
var ErrDayNotInFeed = errors.New("calendar: day not reported by provider")

type SetDayAvailabilityCommand struct {
	Date      string `validate:"required,datetime=2006-01-02"`
	Available bool
	Price     *int64 `validate:"omitempty,gte=0"`
}

func (SetDayAvailabilityCommand) Key() string     { return SetDayAvailabilityKey }
func (SetDayAvailabilityCommand) AdminOnly() bool { return true }

type RepriceDayCommand struct {
	Date   string `validate:"required,datetime=2006-01-02"`
	Amount int64  `validate:"gte=0"`
}

func (RepriceDayCommand) Key() string     { return RepriceDayKey }
func (RepriceDayCommand) AdminOnly() bool { return true }

type CancelReservationCommand struct {
	ReservationID string `validate:"required,max=128"`
}

func (CancelReservationCommand) Key() string     { return CancelReservationKey }
func (CancelReservationCommand) AdminOnly() bool { return true }

// CreateReservationCommand forwards a reservation payload. A non-empty
// RequestKey makes client retries return the first successful result.
type CreateReservationCommand struct {
	RequestKey string         `validate:"omitempty,max=128"`
	Payload    map[string]any `validate:"required,min=1"`
}

func (CreateReservationCommand) Key() string              { return CreateReservationKey }
func (CreateReservationCommand) AdminOnly() bool          { return true }
func (c CreateReservationCommand) IdempotencyKey() string { return c.RequestKey }
func (CreateReservationCommand) ResultPrototype() any     { return &dto.MutationResult{} }

// Mutations is the write side against the provider. Every handler forwards
// exactly one request and never retries.
type Mutations struct {
	Provider   policies.CalendarProvider
	PropertyID string
	Logger     *slog.Logger
	Now        func() time.Time
}

func (m *Mutations) SetDayAvailability(ctx context.Context, cmd SetDayAvailabilityCommand) (dto.MutationResult, error) {
	update := domaincal.AvailabilityUpdate(cmd.Date, cmd.Available, cmd.Price)
	return m.sendUpdate(ctx, update)
}

// RepriceDay reads the day's current state and re-sends it with the new price,
// since the provider replaces every attribute of the day on update.
func (m *Mutations) RepriceDay(ctx context.Context, cmd RepriceDayCommand) (dto.MutationResult, error) {
	day, err := daterange.ParseDay(cmd.Date)
	if err != nil {
		return dto.MutationResult{}, err
	}
	rng := daterange.DateRange{Start: day, End: daterange.NextDay(day)}
	days, _, err := fetchDays(ctx, m.Provider, rng, m.Logger)
	if err != nil {
		return dto.MutationResult{}, err
	}
	current, ok := days[cmd.Date]
	if !ok {
		return dto.MutationResult{}, fmt.Errorf("%w: %s", ErrDayNotInFeed, cmd.Date)
	}
	return m.sendUpdate(ctx, domaincal.RepriceUpdate(current, cmd.Amount))
}

func (m *Mutations) CancelReservation(ctx context.Context, cmd CancelReservationCommand) (dto.MutationResult, error) {
	body, err := m.Provider.CancelReservation(ctx, cmd.ReservationID)
	if err != nil {
		return dto.MutationResult{}, err
	}
	ev := domaincal.ReservationCancelled{PropertyID: m.PropertyID, ReservationID: cmd.ReservationID, At: m.now()}
	return dto.NewMutationResult(http.StatusOK, body, ev), nil
}

func (m *Mutations) CreateReservation(ctx context.Context, cmd CreateReservationCommand) (dto.MutationResult, error) {
	body, err := m.Provider.CreateReservation(ctx, cmd.Payload)
	if err != nil {
		return dto.MutationResult{}, err
	}
	ev := domaincal.ReservationCreated{PropertyID: m.PropertyID, ReservationID: createdID(body), At: m.now()}
	return dto.NewMutationResult(http.StatusCreated, body, ev), nil
}

func (m *Mutations) sendUpdate(ctx context.Context, update domaincal.DayUpdate) (dto.MutationResult, error) {
	body, err := m.Provider.UpdateCalendar(ctx, domaincal.DayUpdateRequest{Dates: []domaincal.DayUpdate{update}})
	if err != nil {
		return dto.MutationResult{}, err
	}
	ev := domaincal.DayAvailabilityChanged{
		PropertyID: m.PropertyID,
		Date:       update.Date,
		Available:  update.Available,
		At:         m.now(),
	}
	if update.Price != nil {
		amount := update.Price.Amount
		ev.Price = &amount
	}
	return dto.NewMutationResult(http.StatusOK, body, ev), nil
}

func (m *Mutations) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// createdID pulls the new reservation id out of {"data":{"id"}} or {"id"}.
func createdID(body []byte) string {
	var envelope struct {
		ID   string `json:"id"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Data.ID != "" {
		return envelope.Data.ID
	}
	return envelope.ID
}

// Register wires every calendar handler onto the buses.
func Register(cmdBus *commands.InMemoryBus, qBus *queries.InMemoryBus, m *Mutations, reads Reads) {
	commands.RegisterHandler[SetDayAvailabilityCommand, dto.MutationResult](cmdBus, SetDayAvailabilityKey, commands.HandlerFunc[SetDayAvailabilityCommand, dto.MutationResult](m.SetDayAvailability))
	commands.RegisterHandler[RepriceDayCommand, dto.MutationResult](cmdBus, RepriceDayKey, commands.HandlerFunc[RepriceDayCommand, dto.MutationResult](m.RepriceDay))
	commands.RegisterHandler[CancelReservationCommand, dto.MutationResult](cmdBus, CancelReservationKey, commands.HandlerFunc[CancelReservationCommand, dto.MutationResult](m.CancelReservation))
	commands.RegisterHandler[CreateReservationCommand, dto.MutationResult](cmdBus, CreateReservationKey, commands.HandlerFunc[CreateReservationCommand, dto.MutationResult](m.CreateReservation))

	queries.RegisterHandler[GetCalendarQuery, dto.CalendarView](qBus, GetCalendarKey, reads.Calendar)
	queries.RegisterHandler[GetOccupancyQuery, dto.Occupancy](qBus, GetOccupancyKey, reads.Occupancy)
	queries.RegisterHandler[QuoteStayQuery, dto.StayQuote](qBus, QuoteStayKey, reads.Quote)
}

// Reads groups the query handlers for registration.
type Reads struct {
	Calendar  *GetCalendarHandler
	Occupancy *GetOccupancyHandler
	Quote     *QuoteStayHandler
}
