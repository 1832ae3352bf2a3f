package ginserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"lajuana/internal/app/commands"
	calendarapp "lajuana/internal/app/handlers/calendar"
	"lajuana/internal/app/middleware"
	"lajuana/internal/app/queries"
	authsvc "lajuana/internal/app/services/auth"
	"lajuana/internal/domain/shared/events"
	"lajuana/internal/infra/config"
	"lajuana/internal/infra/hospitable"
	"lajuana/internal/infra/obs"
	"lajuana/internal/infra/security"
	"lajuana/internal/infra/storage/memory"
)

const upstreamDays = `{"data":{"days":[
	{"date":"2026-02-10","status":{"available":false,"reason":"RESERVED"},"reservation_id":"r1"},
	{"date":"2026-02-11","status":{"available":false,"reason":"RESERVED"},"reservation_id":"r1"},
	{"date":"2026-02-12","status":{"available":true},"price":{"amount":2800000,"formatted":"$2,800,000"}},
	{"date":"2026-02-14","status":{"available":false,"reason":"Maintenance"}}
]}}`

const upstreamReservations = `{"data":[{"id":"r1","platform":"airbnb","arrival_date":"2026-02-10","departure_date":"2026-02-12",
	"guest":{"first_name":"Ana","last_name":"Gomez"},"reservation_status":{"current":{"category":"accepted"}}}]}`

var longUpstreamText = strings.Repeat("reserva no cancelable ñ ", 100)

type upstream struct {
	server         *httptest.Server
	failCalendar   atomic.Bool
	garbleCalendar atomic.Bool
	creates        atomic.Int32
	updates        atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/properties/p1/calendar":
			if u.failCalendar.Load() {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, `{"message":"down"}`)
				return
			}
			if u.garbleCalendar.Load() {
				_, _ = io.WriteString(w, `{"listings":"moved"}`)
				return
			}
			_, _ = io.WriteString(w, upstreamDays)
		case r.Method == http.MethodPut && r.URL.Path == "/properties/p1/calendar":
			u.updates.Add(1)
			body, _ := io.ReadAll(r.Body)
			if strings.Contains(string(body), "2026-02-20") {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, `{"message":"date locked"}`)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"updated":1}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/reservations":
			_, _ = io.WriteString(w, upstreamReservations)
		case r.Method == http.MethodPost && r.URL.Path == "/reservations":
			u.creates.Add(1)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"id":"new-1"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/reservations/r1/cancel":
			_, _ = io.WriteString(w, `{"data":{"id":"r1"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/reservations/long/cancel":
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, longUpstreamText)
		case r.Method == http.MethodPost && r.URL.Path == "/reservations/broken/cancel":
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "boom")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

type testServer struct {
	router   *gin.Engine
	upstream *upstream
	notifier *memory.Notifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	up := newUpstream(t)
	logger := obs.NewDiscardLogger()
	now := func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }

	hasher := security.BcryptHasher{Cost: 4}
	hash, err := hasher.Hash("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	auth := &authsvc.Service{
		Admin:     authsvc.Admin{Username: "admin", PasswordHash: hash},
		Sessions:  memory.NewSessionStore(),
		Passwords: hasher,
		Tokens:    security.RandomTokenGenerator{},
		Logger:    logger,
	}

	client := hospitable.NewClient(up.server.URL, "p1", "token", 2*time.Second, logger)
	notifier := memory.NewNotifier(logger)
	validator := middleware.NewStructValidator()

	cmdBus := commands.NewInMemoryBus()
	qBus := queries.NewInMemoryBus()
	calendarapp.Register(cmdBus, qBus,
		&calendarapp.Mutations{Provider: client, PropertyID: "p1", Logger: logger, Now: now},
		calendarapp.Reads{
			Calendar:  &calendarapp.GetCalendarHandler{Provider: client, Logger: logger},
			Occupancy: &calendarapp.GetOccupancyHandler{Provider: client, Logger: logger, Now: now},
			Quote:     &calendarapp.QuoteStayHandler{Provider: client, Logger: logger, DefaultRate: 2500000, Currency: "COP"},
		},
	)
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Validation(validator),
		middleware.Authorization(auth),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Publish(notifier, events.JSONEncoder{}, logger),
	)
	qs := middleware.ChainQueries(qBus,
		middleware.QueryValidation(validator),
		middleware.QueryAuthorization(auth),
	)

	cfg := config.Config{CORSOrigins: []string{"http://localhost:3000"}}
	router := NewRouter(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Availability:   AvailabilityHandler{Queries: qs, Logger: logger, HorizonDays: 60, Now: now},
		Calendar:       CalendarHandler{Commands: cmds, Queries: qs, Logger: logger, Now: now},
		Auth:           AuthHandler{Service: auth, Logger: logger},
		AuthMiddleware: AuthMiddleware{Service: auth, Logger: logger}.Handle,
	})
	return &testServer{router: router, upstream: up, notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"secret-pass"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return resp.Token, c
		}
	}
	t.Fatalf("session cookie not set")
	return "", nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/livez", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("livez: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
}

func TestCORSWildcardNeverReflectsForeignOrigins(t *testing.T) {
	router := gin.New()
	router.Use(cors.New(corsConfig([]string{"*"})))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, allowed := range map[string]bool{
		"https://attacker.example": false,
		"http://localhost:3000":    true,
	} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		got := rec.Header().Get("Access-Control-Allow-Origin")
		if allowed && got != origin {
			t.Errorf("%s: expected to be allowed, got %q", origin, got)
		}
		if !allowed && got != "" {
			t.Errorf("%s: credentialed origin reflected as %q", origin, got)
		}
	}
}

func TestOccupancyIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/availability?start=2026-02-01&end=2026-03-01&nights=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Range    map[string]string   `json:"range"`
		Occupied []map[string]string `json:"occupied"`
		Stay     map[string]string   `json:"suggested_stay"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Range["start"] != "2026-02-01" || body.Range["end"] != "2026-03-01" {
		t.Fatalf("range not echoed: %v", body.Range)
	}
	if len(body.Occupied) != 2 {
		t.Fatalf("expected 2 occupied ranges, got %v", body.Occupied)
	}
	if body.Occupied[0]["start"] != "2026-02-10" || body.Occupied[0]["end"] != "2026-02-12" {
		t.Fatalf("unexpected first range %v", body.Occupied[0])
	}
	if body.Stay["start"] != "2026-02-01" {
		t.Fatalf("unexpected suggestion %v", body.Stay)
	}
}

func TestOccupancyRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{
		"/api/v1/availability?start=2026-03-01&end=2026-02-01",
		"/api/v1/availability?start=not-a-date",
		"/api/v1/availability?nights=abc",
		"/api/v1/availability?nights=90",
		"/api/v1/availability/quote?check_in=2026-02-10",
	} {
		if rec := s.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400, got %d", path, rec.Code)
		}
	}
}

func TestQuote(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/availability/quote?check_in=2026-02-12&check_out=2026-02-14", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var quote struct {
		Available bool   `json:"available"`
		Nights    int    `json:"nights"`
		Total     int64  `json:"total"`
		Currency  string `json:"currency"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !quote.Available || quote.Nights != 2 || quote.Total != 5300000 || quote.Currency != "COP" {
		t.Fatalf("unexpected quote %+v", quote)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/availability/quote?check_in=2026-02-09&check_out=2026-02-11", "", nil)
	if !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Fatalf("overlapping stay must be unavailable: %s", rec.Body.String())
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	cases := []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/admin/calendar", ""},
		{http.MethodPut, "/api/v1/admin/calendar/days/2026-02-12", `{"available":false}`},
		{http.MethodPost, "/api/v1/admin/reservations/r1/cancel", ""},
		{http.MethodGet, "/api/v1/auth/me", ""},
	}
	for _, tc := range cases {
		if rec := s.do(t, tc.method, tc.path, tc.body, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: want 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
	if got := s.upstream.updates.Load(); got != 0 {
		t.Fatalf("unauthenticated mutation reached the provider")
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: want 401, got %d", rec.Code)
	}

	token, cookie := s.login(t)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.MaxAge <= 0 {
		t.Fatalf("unexpected cookie %+v", cookie)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", "", map[string]string{"Cookie": cookie.Name + "=" + cookie.Value})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Fatalf("me with cookie: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusOK {
		t.Fatalf("me with bearer: %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("session must be gone after logout, got %d", rec.Code)
	}
}

func TestAdminCalendarView(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	rec := s.do(t, http.MethodGet, "/api/v1/admin/calendar?start=2026-02-01&end=2026-03-01", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		Events []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"events"`
		Prices map[string]json.RawMessage `json:"prices_by_date"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Events) != 2 || view.Events[0].ID != "r1" || view.Events[1].ID != "block-2026-02-14" {
		t.Fatalf("unexpected events %+v", view.Events)
	}
	if _, ok := view.Prices["2026-02-12"]; !ok || len(view.Prices) != 1 {
		t.Fatalf("unexpected prices %v", view.Prices)
	}
}

func TestAdminMutations(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	rec := s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/2026-02-12", `{"available":false}`, auth)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("set day: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/2026-02-12", `{}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing available flag: want 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/12-02-2026", `{"available":true}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: want 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/2026-02-14/price", `{"amount":3000000}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("reprice: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/2026-02-13/price", `{"amount":3000000}`, auth)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reprice of unreported day: want 404, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/admin/reservations/r1/cancel", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
	}

	if got := len(s.notifier.Records()); got != 3 {
		t.Fatalf("expected 3 change notifications, got %d", got)
	}
}

func TestUpstreamErrorsPassThrough(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t)
	auth := map[string]string{"Authorization": "Bearer " + token}

	rec := s.do(t, http.MethodPut, "/api/v1/admin/calendar/days/2026-02-20", `{"available":false}`, auth)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want provider status 422, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"message":"date locked"}` {
		t.Fatalf("json body must be re-emitted verbatim, got %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/admin/reservations/broken/cancel", "", auth)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"boom"`) {
		t.Fatalf("text body must be wrapped, got %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/admin/reservations/long/cancel", "", auth)
	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
	var wrapped map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &wrapped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wrapped["error"] != longUpstreamText {
		t.Fatalf("long text body must pass through whole: got %d bytes, want %d", len(wrapped["error"]), len(longUpstreamText))
	}
}

func TestCreateReservationIdempotent(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t)
	headers := map[string]string{"Authorization": "Bearer " + token, "Idempotency-Key": "abc-123"}
	payload := `{"arrival_date":"2026-03-01","departure_date":"2026-03-03","guest":{"first_name":"Ana"}}`

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/v1/admin/reservations", payload, headers)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status %d body %s", i, rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "new-1") {
			t.Fatalf("attempt %d: upstream body missing: %s", i, rec.Body.String())
		}
	}
	if got := s.upstream.creates.Load(); got != 1 {
		t.Fatalf("retry must not reach the provider again, creates=%d", got)
	}
	if got := len(s.notifier.Records()); got != 1 {
		t.Fatalf("replay must not notify again, got %d records", got)
	}
}

func TestFeed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/calendar/feed.ics?start=2026-02-01&end=2026-03-01", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || strings.Count(body, "BEGIN:VEVENT") != 2 {
		t.Fatalf("unexpected feed:\n%s", body)
	}

	s.upstream.failCalendar.Store(true)
	rec = s.do(t, http.MethodGet, "/api/v1/calendar/feed.ics", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("provider failure must not export an empty calendar, got %d", rec.Code)
	}
}

func TestUnreadableDayFeedIsNeverReportedFree(t *testing.T) {
	s := newTestServer(t)
	s.upstream.garbleCalendar.Store(true)

	rec := s.do(t, http.MethodGet, "/api/v1/calendar/feed.ics?start=2026-02-01&end=2026-03-01", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unreadable feed must not export an empty calendar, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/availability/quote?check_in=2026-02-10&check_out=2026-02-12", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"available":false`) || !strings.Contains(rec.Body.String(), `"warnings"`) {
		t.Fatalf("quote over an unreadable feed must not be available: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/availability?start=2026-02-01&end=2026-03-01", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"warnings"`) {
		t.Fatalf("occupancy must carry the warning: %d %s", rec.Code, rec.Body.String())
	}
}
