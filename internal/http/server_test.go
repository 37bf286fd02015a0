package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"recorridos/internal/backend"
	"recorridos/internal/calendar"
	"recorridos/internal/export"
	"recorridos/internal/log"
	"recorridos/internal/ports"
	"recorridos/internal/session"
)

const (
	testSecret    = "0123456789abcdef0123"
	adminEmail    = "admin@example.com"
	adminPassword = "admin12345"
)

type testEnv struct {
	srv      *Server
	sessions *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{
		Type:      backend.MemoryBackend,
		SeedFile:  "../memory/testdata/seed.yaml",
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		CacheTTL:  time.Minute,
	})
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() { _ = res.Cleanup() })

	sessions := session.NewStore(100, time.Hour, false)
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	srv, err := NewServer(":0", res.Backend, sessions,
		WithClock(calendar.FixedClock{T: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}),
		WithLogger(logger),
		WithCaches(res.Caches),
		WithCleanupInterval(0))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, sessions: sessions}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookie *http.Cookie, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return e.do(req)
}

func (e *testEnv) send(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return e.do(req)
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{
		"email":    {email},
		"password": {password},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login %s: status %d, body %s", email, rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("login %s: no session cookie", email)
	return nil
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/", nil, false)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("plain request: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = env.get("/ui/calendar", nil, true)
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("htmx request: status %d HX-Redirect %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		body     string
	}{
		{"wrong password", adminEmail, "nope", http.StatusUnauthorized, "incorrectos"},
		{"unknown email", "nadie@example.com", "whatever1", http.StatusUnauthorized, "incorrectos"},
		{"disabled account", "operador@example.com", "operador123", http.StatusUnauthorized, "deshabilitada"},
		{"missing fields", "", "", http.StatusUnprocessableEntity, "Ingrese correo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{
				"email":    {tt.email},
				"password": {tt.password},
			}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := env.do(req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("body missing %q", tt.body)
			}
		})
	}

	cookie := env.login(t, adminEmail, adminPassword)
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if env.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", env.sessions.Len())
	}

	rec := env.get("/login", cookie, false)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("login page with session: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.send(http.MethodPost, "/logout", url.Values{}, cookie)
	if rec.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}
	if env.sessions.Len() != 0 {
		t.Errorf("sessions after logout = %d", env.sessions.Len())
	}
	if rec := env.get("/", cookie, false); rec.Code != http.StatusSeeOther {
		t.Errorf("dashboard after logout: status %d", rec.Code)
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.sessions.Login(rec, ports.Credentials{Token: "not-a-jwt"})
	cookie := rec.Result().Cookies()[0]

	res := env.get("/ninos", cookie, true)
	if res.Code != http.StatusUnauthorized || res.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("status %d HX-Redirect %q", res.Code, res.Header().Get("HX-Redirect"))
	}
	if env.sessions.Len() != 0 {
		t.Errorf("session not cleared")
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.get("/", cookie, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Marzo 2024",
		`class="day has today"`,
		"Recorridos: 1",
		"Asientos: 2",
		"Costo total: $3.500",
		"Niños: 2",
		"Vehículos: 1",
		"Usuarios",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers not applied")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id not set")
	}
}

func TestCalendarPartial(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"selected month", "?year=2024&month=2", []string{"Febrero 2024", "Recorridos: 0"}},
		{"invalid month falls back", "?year=2024&month=13", []string{"Marzo 2024", "Recorridos: 1"}},
		{"non numeric month falls back", "?month=marzo", []string{"Marzo 2024"}},
		{"default is clock month", "", []string{"Marzo 2024"}},
		{"navigation wraps the year", "?year=2024&month=12", []string{"year=2025&month=1", "year=2024&month=11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get("/ui/calendar"+tt.query, cookie, true)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			for _, want := range tt.want {
				if !strings.Contains(rec.Body.String(), want) {
					t.Errorf("missing %q", want)
				}
			}
		})
	}
}

func TestCalendarDay(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.get("/ui/calendar/day?year=2024&month=3&day=5", cookie, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"07:30", "Furgón blanco", "Ana Pérez", "Baja en la esquina", "$3.500"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("day view missing %q", want)
		}
	}

	rec = env.get("/ui/calendar/day?year=2024&month=3&day=6", cookie, true)
	if !strings.Contains(rec.Body.String(), "Sin recorridos") {
		t.Errorf("empty day: %s", rec.Body.String())
	}

	rec = env.get("/ui/calendar/day?year=2024&month=2&day=30", cookie, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("day 30 of February: status %d", rec.Code)
	}
}

func TestUsuariosRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(t, adminEmail, adminPassword)

	rec := env.send(http.MethodPost, "/usuarios", url.Values{
		"nombre":           {"Chofer"},
		"email":            {"chofer@example.com"},
		"rol":              {"usuario"},
		"activo":           {"1"},
		"password":         {"chofer12345"},
		"password_confirm": {"chofer12345"},
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("create usuario: status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "usuarios:changed") {
		t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
	}

	user := env.login(t, "chofer@example.com", "chofer12345")
	if rec := env.get("/usuarios", user, false); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin /usuarios: status %d", rec.Code)
	}
	if rec := env.send(http.MethodDelete, "/usuarios/1", url.Values{}, user); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin delete: status %d", rec.Code)
	}
	if rec := env.get("/", user, false); strings.Contains(rec.Body.String(), `href="/usuarios"`) {
		t.Error("usuarios link shown to non-admin")
	}
	if rec := env.get("/usuarios", admin, false); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "chofer@example.com") {
		t.Errorf("admin /usuarios: status %d", rec.Code)
	}
}

func TestCreateNinoValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.send(http.MethodPost, "/ninos", url.Values{"nombre": {"Sofía"}}, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "field-error") || !strings.Contains(rec.Body.String(), `value="Sofía"`) {
		t.Errorf("form not re-rendered with errors: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("missing error toast: %q", rec.Header().Get("HX-Trigger"))
	}

	rec = env.send(http.MethodPost, "/ninos", url.Values{"nombre": {"Sofía"}, "apellido": {"Muñoz"}}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "ninos:changed") || !strings.Contains(trigger, "show-notification") {
		t.Errorf("HX-Trigger = %q", trigger)
	}

	list := env.get("/ninos?fragment=list", cookie, true)
	if !strings.Contains(list.Body.String(), "Sofía Muñoz") {
		t.Errorf("new niño not listed")
	}
}

func TestVehiculoCapacidadNotNumber(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.send(http.MethodPost, "/vehiculos", url.Values{
		"patente":     {"ZZZZ99"},
		"descripcion": {"Bus"},
		"capacidad":   {"muchos"},
	}, cookie)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "número entero") {
		t.Errorf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRecorridoWrites(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	t.Run("invalid costo", func(t *testing.T) {
		rec := env.send(http.MethodPost, "/recorridos", url.Values{
			"fecha":       {"2024-03-20"},
			"hora_inicio": {"08:00"},
			"vehiculo_id": {"10"},
			"costo":       {"abc"},
		}, cookie)
		if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "importe inválido") {
			t.Errorf("status %d body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("vehiculo conflict", func(t *testing.T) {
		rec := env.send(http.MethodPost, "/recorridos", url.Values{
			"fecha":       {"2024-03-05"},
			"hora_inicio": {"07:30"},
			"vehiculo_id": {"10"},
		}, cookie)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("HX-Retarget") != "#flash" {
			t.Errorf("HX-Retarget = %q", rec.Header().Get("HX-Retarget"))
		}
	})

	t.Run("create refreshes calendar", func(t *testing.T) {
		// warm the month cache first
		env.get("/ui/calendar?year=2024&month=3", cookie, true)

		rec := env.send(http.MethodPost, "/recorridos", url.Values{
			"fecha":       {"2024-03-20"},
			"hora_inicio": {"08:00"},
			"vehiculo_id": {"10"},
			"costo":       {"1500"},
			"nino_id":     {"1"},
			"notas_1":     {"Sale temprano"},
		}, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Header().Get("HX-Trigger"), "recorridos:changed") {
			t.Errorf("HX-Trigger = %q", rec.Header().Get("HX-Trigger"))
		}

		cal := env.get("/ui/calendar?year=2024&month=3", cookie, true).Body.String()
		for _, want := range []string{"Recorridos: 2", "Costo total: $5.000", "Asientos: 3"} {
			if !strings.Contains(cal, want) {
				t.Errorf("calendar missing %q after create", want)
			}
		}
		day := env.get("/ui/calendar/day?year=2024&month=3&day=20", cookie, true).Body.String()
		if !strings.Contains(day, "Sale temprano") {
			t.Errorf("day view missing notas: %s", day)
		}
	})

	t.Run("edit form is prefilled", func(t *testing.T) {
		rec := env.get("/recorridos/100/edit", cookie, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{`value="2024-03-05"`, `value="3500"`, `hx-post="/recorridos/100"`, `value="Baja en la esquina"`} {
			if !strings.Contains(body, want) {
				t.Errorf("edit form missing %q", want)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.send(http.MethodDelete, "/recorridos/100", url.Values{}, cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec := env.send(http.MethodDelete, "/recorridos/100", url.Values{}, cookie); rec.Code != http.StatusNotFound {
			t.Errorf("second delete: status %d", rec.Code)
		}
	})
}

func TestTrustedProxies(t *testing.T) {
	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{
		Type:      backend.MemoryBackend,
		SeedFile:  "../memory/testdata/seed.yaml",
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() { _ = res.Cleanup() })
	sessions := session.NewStore(10, time.Hour, false)
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})

	if _, err := NewServer(":0", res.Backend, sessions, WithLogger(logger), WithCleanupInterval(0),
		WithTrustedProxies("not-a-cidr")); err == nil {
		t.Fatal("expected an error for an invalid trusted proxy")
	}

	srv, err := NewServer(":0", res.Backend, sessions, WithLogger(logger), WithCleanupInterval(0),
		WithTrustedProxies("203.0.113.0/24"))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.20")
	if got := srv.detector.ExtractClientIP(req); got != "198.51.100.20" {
		t.Errorf("client ip = %q, want forwarded address", got)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	for _, path := range []string{"/ninos/999/edit", "/vehiculos/999/edit", "/recorridos/abc/edit"} {
		if rec := env.get(path, cookie, true); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.get("/recorridos/export.xlsx?year=2024&month=3", cookie, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, export.Filename(2024, 3)) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetRecorridos)
	if err != nil {
		t.Fatal(err)
	}
	// header + the one well formed March recorrido
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %v", len(rows), rows)
	}
	if rows[1][2] != "Furgón blanco" || rows[1][3] != "Ana Pérez, Tomás Rojas" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestHealthReadyMetrics(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.get("/healthz", nil, false); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := env.get("/readyz", nil, false); rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Errorf("readyz: %d %q", rec.Code, rec.Body.String())
	}

	rec := env.get("/metrics", nil, false)
	body := rec.Body.String()
	for _, want := range []string{
		"http_requests_total ",
		"sessions_active 0",
		`backend_info{backend="memory"} 1`,
		`cache_entries{cache="recorridos_month"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get("/static/app.js", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "show-notification") {
		t.Error("toast script not served")
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Error("static assets not cacheable")
	}
}
