// Package hospitable talks to the property-management API that owns the
// property's calendar and reservations.
package hospitable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

const DefaultBaseURL = "https://public.api.hospitable.com/v2"

// reservationIncludes asks the provider to embed the data the admin calendar renders.
const reservationIncludes = "financials,guest,properties,listings"

// Client is a thin wrapper over the provider's REST API. Responses are returned
// raw; shape handling belongs to the calendar normalizers.
type Client struct {
	BaseURL    string
	PropertyID string
	Token      string
	HTTP       *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL, propertyID, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		PropertyID: propertyID,
		Token:      token,
		HTTP:       &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// FetchCalendar returns the day-by-day availability feed for the range.
func (c *Client) FetchCalendar(ctx context.Context, rng daterange.DateRange) ([]byte, error) {
	q := url.Values{}
	start, end := daterange.Format(rng.Start), daterange.Format(rng.End)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("start_date", start)
	q.Set("end_date", end)
	return c.do(ctx, "fetch calendar", http.MethodGet, c.calendarPath(), q, nil)
}

// FetchReservations returns the property's reservations overlapping the range.
func (c *Client) FetchReservations(ctx context.Context, rng daterange.DateRange) ([]byte, error) {
	q := url.Values{}
	q.Set("start_date", daterange.Format(rng.Start))
	q.Set("end_date", daterange.Format(rng.End))
	q.Add("properties[]", c.PropertyID)
	q.Set("include", reservationIncludes)
	return c.do(ctx, "fetch reservations", http.MethodGet, "/reservations", q, nil)
}

// UpdateCalendar replaces the listed days on the provider.
func (c *Client) UpdateCalendar(ctx context.Context, req calendar.DayUpdateRequest) ([]byte, error) {
	if len(req.Dates) == 0 {
		return nil, errors.New("hospitable: calendar update without dates")
	}
	return c.do(ctx, "update calendar", http.MethodPut, c.calendarPath(), nil, req)
}

// CancelReservation cancels a reservation on behalf of the host.
func (c *Client) CancelReservation(ctx context.Context, reservationID string) ([]byte, error) {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return nil, errors.New("hospitable: reservation id required")
	}
	body := map[string]string{"initiated_by": "host"}
	return c.do(ctx, "cancel reservation", http.MethodPost, "/reservations/"+url.PathEscape(reservationID)+"/cancel", nil, body)
}

// CreateReservation forwards a reservation payload, forcing it onto the configured property.
func (c *Client) CreateReservation(ctx context.Context, payload map[string]any) ([]byte, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["property_id"] = c.PropertyID
	return c.do(ctx, "create reservation", http.MethodPost, "/reservations", nil, body)
}

func (c *Client) calendarPath() string {
	return "/properties/" + url.PathEscape(c.PropertyID) + "/calendar"
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("hospitable: http client not configured")
	}
	if c.Token == "" {
		return nil, ErrMissingToken
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("hospitable: %s: encode body: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("hospitable: %s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("hospitable: %s: timeout: %w", op, err)
		} else {
			err = fmt.Errorf("hospitable: %s: %w", op, err)
		}
		c.logError("request failed", op, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hospitable: %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: data}
		c.logError("upstream returned error", op, upstreamErr)
		return nil, upstreamErr
	}
	if c.Logger != nil {
		c.Logger.Debug("hospitable call", "op", op, "status", resp.StatusCode, "duration", time.Since(started))
	}
	return data, nil
}

func (c *Client) logError(msg, op string, err error) {
	if c.Logger != nil {
		c.Logger.Error(msg, "op", op, "error", err)
	}
}
