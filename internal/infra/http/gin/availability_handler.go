package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"lajuana/internal/app/dto"
	calendarapp "lajuana/internal/app/handlers/calendar"
	"lajuana/internal/app/queries"
	"lajuana/internal/domain/shared/daterange"
	"lajuana/internal/infra/ical"
)

// AvailabilityHandler serves the guest-facing date picker, stay quotes and
// the iCal export.
type AvailabilityHandler struct {
	Queries     queries.Bus
	Logger      *slog.Logger
	HorizonDays int
	FeedName    string
	Now         func() time.Time
}

func (h AvailabilityHandler) Occupancy(c *gin.Context) {
	rng, ok := h.windowFromQuery(c)
	if !ok {
		return
	}
	nights := 0
	if raw := strings.TrimSpace(c.Query("nights")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nights must be a number"})
			return
		}
		nights = n
	}
	query := calendarapp.GetOccupancyQuery{Range: rng, Nights: nights}
	result, err := queries.Ask[calendarapp.GetOccupancyQuery, dto.Occupancy](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	checkIn, checkOut := c.Query("check_in"), c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in and check_out are required"})
		return
	}
	stay, err := daterange.Parse(checkIn, checkOut)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[calendarapp.QuoteStayQuery, dto.StayQuote](c.Request.Context(), h.Queries, calendarapp.QuoteStayQuery{Stay: stay})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Feed exports occupied ranges as iCalendar. A provider failure or an
// unreadable day feed yields 503 rather than an empty calendar, which
// subscribers would read as all free.
func (h AvailabilityHandler) Feed(c *gin.Context) {
	rng, ok := h.windowFromQuery(c)
	if !ok {
		return
	}
	result, err := queries.Ask[calendarapp.GetOccupancyQuery, dto.Occupancy](c.Request.Context(), h.Queries, calendarapp.GetOccupancyQuery{Range: rng})
	if err == nil && len(result.Warnings) > 0 {
		err = fmt.Errorf("unreadable day feed: %s", strings.Join(result.Warnings, "; "))
	}
	if err != nil {
		logError(h.Logger, "ical export failed", err)
		c.Header("Retry-After", "300")
		c.String(http.StatusServiceUnavailable, "calendar temporarily unavailable")
		return
	}
	body := ical.Serialize(ical.Feed{Name: h.FeedName, Occupied: result.Occupied, Stamp: h.now()})
	c.Header("Content-Disposition", `inline; filename="lajuana.ics"`)
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// windowFromQuery reads start/end, defaulting to today through the horizon.
func (h AvailabilityHandler) windowFromQuery(c *gin.Context) (daterange.DateRange, bool) {
	today := daterange.Day(h.now())
	horizon := h.HorizonDays
	if horizon <= 0 {
		horizon = 365
	}
	rng, err := rangeFromQuery(c, today, today.AddDate(0, 0, horizon))
	if err != nil {
		respondError(c, h.Logger, err)
		return daterange.DateRange{}, false
	}
	return rng, true
}

func (h AvailabilityHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// rangeFromQuery parses start/end query params; a missing bound takes its
// default.
func rangeFromQuery(c *gin.Context, defStart, defEnd time.Time) (daterange.DateRange, error) {
	start, end := defStart, defEnd
	if raw := strings.TrimSpace(c.Query("start")); raw != "" {
		day, err := daterange.ParseDay(raw)
		if err != nil {
			return daterange.DateRange{}, err
		}
		start = day
	}
	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		day, err := daterange.ParseDay(raw)
		if err != nil {
			return daterange.DateRange{}, err
		}
		end = day
	}
	return daterange.New(start, end)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
