package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"lajuana/internal/app/commands"
	"lajuana/internal/app/dto"
	calendarapp "lajuana/internal/app/handlers/calendar"
	"lajuana/internal/app/queries"
)

// CalendarHandler is the admin panel surface: the calendar view and the
// mutations forwarded to the provider.
type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
	Now      func() time.Time
}

type setDayRequest struct {
	Available *bool  `json:"available" binding:"required"`
	Price     *int64 `json:"price"`
}

type repriceRequest struct {
	Amount *int64 `json:"amount" binding:"required"`
}

// View defaults to the current month when start/end are omitted.
func (h CalendarHandler) View(c *gin.Context) {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	rng, err := rangeFromQuery(c, first, first.AddDate(0, 1, 0))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[calendarapp.GetCalendarQuery, dto.CalendarView](c.Request.Context(), h.Queries, calendarapp.GetCalendarQuery{Range: rng})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) SetDay(c *gin.Context) {
	var req setDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "available is required"})
		return
	}
	cmd := calendarapp.SetDayAvailabilityCommand{Date: c.Param("date"), Available: *req.Available, Price: req.Price}
	h.dispatch(c, func() (dto.MutationResult, error) {
		return commands.Dispatch[calendarapp.SetDayAvailabilityCommand, dto.MutationResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h CalendarHandler) RepriceDay(c *gin.Context) {
	var req repriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	cmd := calendarapp.RepriceDayCommand{Date: c.Param("date"), Amount: *req.Amount}
	h.dispatch(c, func() (dto.MutationResult, error) {
		return commands.Dispatch[calendarapp.RepriceDayCommand, dto.MutationResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h CalendarHandler) CancelReservation(c *gin.Context) {
	cmd := calendarapp.CancelReservationCommand{ReservationID: c.Param("id")}
	h.dispatch(c, func() (dto.MutationResult, error) {
		return commands.Dispatch[calendarapp.CancelReservationCommand, dto.MutationResult](c.Request.Context(), h.Commands, cmd)
	})
}

// CreateReservation forwards the body unchanged apart from the property id;
// an Idempotency-Key header makes retries safe.
func (h CalendarHandler) CreateReservation(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := calendarapp.CreateReservationCommand{
		RequestKey: c.GetHeader("Idempotency-Key"),
		Payload:    payload,
	}
	h.dispatch(c, func() (dto.MutationResult, error) {
		return commands.Dispatch[calendarapp.CreateReservationCommand, dto.MutationResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h CalendarHandler) dispatch(c *gin.Context, send func() (dto.MutationResult, error)) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	result, err := send()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	status := result.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

var _ CalendarHTTP = CalendarHandler{}
