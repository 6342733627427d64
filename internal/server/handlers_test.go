package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/expertbook/booking-platform/internal/config"
	"github.com/expertbook/booking-platform/internal/model"
	"github.com/expertbook/booking-platform/internal/service"
	"github.com/expertbook/booking-platform/internal/session"
)

type memoryRepo struct {
	mu           sync.Mutex
	reservations []model.Reservation
	nextID       uint
}

func (m *memoryRepo) Create(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.reservations = append(m.reservations, *r)
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uint) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reservations {
		if m.reservations[i].ID == id {
			r := m.reservations[i]
			return &r, nil
		}
	}
	return nil, errors.New("reservation not found")
}

func (m *memoryRepo) ListAll(_ context.Context) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reservation(nil), m.reservations...), nil
}

func (m *memoryRepo) ListByExpert(_ context.Context, expert string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.Expert == expert {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRepo) ListByExpertSorted(ctx context.Context, expert string) ([]model.Reservation, error) {
	out, err := m.ListByExpert(ctx, expert)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *memoryRepo) {
	t.Helper()

	cfg := &config.Config{
		HTTP: config.HTTPConfig{Addr: ":0"},
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "password123",
		},
		Booking: config.BookingConfig{
			Experts:           []string{"Jan Kowalski", "Anna Nowak"},
			ConsultationTypes: []string{"Konsultacja techniczna", "Konsultacja biznesowa"},
		},
		Session: config.SessionConfig{TTL: time.Hour},
	}

	log := zap.NewNop()
	repo := &memoryRepo{}
	booking := service.NewBookingService(repo, &cfg.Booking, log)
	admin := service.NewAdminService(repo, &cfg.Admin, &cfg.Booking, log)
	sessions := session.NewManager(cfg.Session.TTL)

	return New(cfg, log, booking, admin, sessions, nil), repo
}

// do выполняет запрос, пронося cookie сеанса между вызовами.
func do(t *testing.T, h http.Handler, method, target string, form url.Values, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	merged := cookies
	if got := rec.Result().Cookies(); len(got) > 0 {
		merged = got
	}
	return rec, merged
}

func bookingForm(expert, startsAt string) url.Values {
	return url.Values{
		"name":       {"Piotr Zieliński"},
		"email":      {"piotr@example.com"},
		"expert":     {expert},
		"type":       {"Konsultacja techniczna"},
		"start_time": {startsAt},
	}
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec, _ := do(t, h, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jan Kowalski")
	assert.Contains(t, rec.Body.String(), "Konsultacja techniczna")
}

func TestBookingFlow_Success(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.routes()

	rec, _ := do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", "2024-06-01T10:00"), nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/confirmation?name=")
	require.Len(t, repo.reservations, 1)
	assert.Equal(t, "Jan Kowalski", repo.reservations[0].Expert)
}

func TestBookingFlow_ConflictRedirectsWithFlash(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.routes()

	_, cookies := do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", "2024-06-01T10:00"), nil)

	rec, cookies := do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", "2024-06-01T10:00"), cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Len(t, repo.reservations, 1)

	// flash показывается на следующем рендере формы
	rec, _ = do(t, h, http.MethodGet, "/", nil, cookies)
	assert.Contains(t, rec.Body.String(), "jest już zajęty")
}

func TestBookingFlow_InvalidTime(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.routes()

	rec, cookies := do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", "2024-13-01T10:00"), nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, repo.reservations)

	rec, _ = do(t, h, http.MethodGet, "/", nil, cookies)
	assert.Contains(t, rec.Body.String(), "Nieprawidłowy format terminu")
}

func TestConfirmationPage(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec, _ := do(t, h, http.MethodGet, "/confirmation?name=Piotr", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dziękujemy za rezerwację, Piotr!")
}

func TestReservationsPage_Open(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	_, _ = do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", "2024-06-01T10:00"), nil)

	// без какой-либо авторизации, как в оригинале
	rec, _ := do(t, h, http.MethodGet, "/reservations", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "piotr@example.com")
}

func TestAdmin_RequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	rec, _ := do(t, h, http.MethodGet, "/admin", nil, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec, _ = do(t, h, http.MethodPost, "/admin", url.Values{"expert": {"Jan Kowalski"}}, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogin_WrongCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	rec, cookies := do(t, h, http.MethodPost, "/login", form, nil)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	// сеанс не должен стать админским
	rec, _ = do(t, h, http.MethodPost, "/admin", url.Values{"expert": {"Jan Kowalski"}}, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAdminFlow_LoginQueryLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	// три брони в порядке 10:30, 09:00, 11:00
	var cookies []*http.Cookie
	for _, startsAt := range []string{
		"2024-06-01T10:30",
		"2024-06-01T09:00",
		"2024-06-01T11:00",
	} {
		rec, c := do(t, h, http.MethodPost, "/", bookingForm("Jan Kowalski", startsAt), cookies)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		cookies = c
	}

	form := url.Values{"username": {"admin"}, "password": {"password123"}}
	rec, cookies := do(t, h, http.MethodPost, "/login", form, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec, cookies = do(t, h, http.MethodPost, "/admin", url.Values{"expert": {"Jan Kowalski"}}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	first := strings.Index(body, "2024-06-01T09:00")
	second := strings.Index(body, "2024-06-01T10:30")
	third := strings.Index(body, "2024-06-01T11:00")
	require.True(t, first >= 0 && second >= 0 && third >= 0, "all slots must be listed")
	assert.True(t, first < second && second < third, "slots must be sorted by start time")

	// выход: сеанс уничтожен, админка снова закрыта
	rec, cookies = do(t, h, http.MethodGet, "/logout", nil, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/admin", url.Values{"expert": {"Jan Kowalski"}}, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAdminQuery_UnknownExpert(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.routes()

	form := url.Values{"username": {"admin"}, "password": {"password123"}}
	_, cookies := do(t, h, http.MethodPost, "/login", form, nil)

	rec, _ := do(t, h, http.MethodPost, "/admin", url.Values{"expert": {"Dr. Nieznany"}}, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}
