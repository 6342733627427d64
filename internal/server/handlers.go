package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/expertbook/booking-platform/internal/model"
	"github.com/expertbook/booking-platform/internal/schedule"
	"github.com/expertbook/booking-platform/internal/service"
	"github.com/expertbook/booking-platform/internal/session"
)

const sessionCookie = "booking_session"

// Тексты сообщений пользователю (как в исходной системе).
const (
	msgInvalidTime  = "Nieprawidłowy format terminu. Użyj formatu RRRR-MM-DD GG:MM."
	msgInvalidForm  = "Nieprawidłowe dane formularza."
	msgLoggedIn     = "Zalogowano pomyślnie."
	msgLoggedOut    = "Wylogowano pomyślnie."
	msgBadLogin     = "Niepoprawny login lub hasło."
	msgLoginNeeded  = "Musisz być zalogowany, aby uzyskać dostęp do panelu administracyjnego."
	msgUnknownValue = "Nieznany ekspert lub rodzaj konsultacji."
)

type reservationView struct {
	Name             string
	Email            string
	Expert           string
	ConsultationType string
	StartsAt         string
}

func toViews(reservations []model.Reservation) []reservationView {
	out := make([]reservationView, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, reservationView{
			Name:             r.Name,
			Email:            r.Email,
			Expert:           r.Expert,
			ConsultationType: r.ConsultationType,
			StartsAt:         schedule.FormatSlotTime(r.StartsAt),
		})
	}
	return out
}

// currentSession достаёт живой сеанс из cookie или nil.
func (s *Server) currentSession(r *http.Request) *session.Session {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}
	return s.sessions.Get(c.Value)
}

// ensureSession возвращает сеанс запроса, при необходимости создавая новый
// и выставляя cookie.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if sess := s.currentSession(r); sess != nil {
		return sess
	}

	sess := s.sessions.Start()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	s.render(w, "index.html", map[string]any{
		"Experts":           s.cfg.Booking.Experts,
		"ConsultationTypes": s.cfg.Booking.ConsultationTypes,
		"Flash":             sess.ConsumeFlash(),
	})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	req := service.BookingRequest{
		Name:             r.PostFormValue("name"),
		Email:            r.PostFormValue("email"),
		Expert:           r.PostFormValue("expert"),
		ConsultationType: r.PostFormValue("type"),
		StartsAt:         r.PostFormValue("start_time"),
	}

	res, err := s.booking.Book(r.Context(), req)
	if err != nil {
		var conflict *service.ConflictError
		switch {
		case errors.As(err, &conflict):
			sess.AddFlash(fmt.Sprintf(
				"Termin %s jest już zajęty dla eksperta %s. Wybierz inny termin.",
				conflict.StartsAt, conflict.Expert,
			))
		case errors.Is(err, schedule.ErrInvalidSlotTime):
			sess.AddFlash(msgInvalidTime)
		case errors.Is(err, service.ErrValidation):
			sess.AddFlash(msgInvalidForm)
		case errors.Is(err, service.ErrUnknownExpert),
			errors.Is(err, service.ErrUnknownConsultationType):
			sess.AddFlash(msgUnknownValue)
		default:
			// Ошибка хранилища: не восстанавливаемся, отдаём 500.
			s.log.Error("book reservation", zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/confirmation?name="+url.QueryEscape(res.Name), http.StatusSeeOther)
}

func (s *Server) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	s.render(w, "confirmation.html", map[string]any{
		"Name": r.URL.Query().Get("name"),
	})
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.admin.ListAll(r.Context())
	if err != nil {
		s.log.Error("list reservations", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "reservations.html", map[string]any{
		"Reservations": toViews(reservations),
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	s.render(w, "login.html", map[string]any{
		"Flash": sess.ConsumeFlash(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !s.admin.Login(r.PostFormValue("username"), r.PostFormValue("password")) {
		sess.AddFlash(msgBadLogin)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sess.SetLoggedIn(true)
	sess.AddFlash(msgLoggedIn)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessions.Destroy(c.Value)
	}

	sess := s.sessions.Start()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	sess.AddFlash(msgLoggedOut)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)
	if !sess.LoggedIn() {
		sess.AddFlash(msgLoginNeeded)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.render(w, "admin.html", map[string]any{
		"Experts":        s.cfg.Booking.Experts,
		"SelectedExpert": "",
		"Flash":          sess.ConsumeFlash(),
	})
}

func (s *Server) handleAdminQuery(w http.ResponseWriter, r *http.Request) {
	sess := s.ensureSession(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	expert := r.PostFormValue("expert")

	reservations, err := s.admin.ListForExpert(r.Context(), sess, expert)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			sess.AddFlash(msgLoginNeeded)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case errors.Is(err, service.ErrUnknownExpert):
			sess.AddFlash(msgUnknownValue)
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
		default:
			s.log.Error("admin query", zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	s.render(w, "admin.html", map[string]any{
		"Experts":        s.cfg.Booking.Experts,
		"SelectedExpert": expert,
		"Reservations":   toViews(reservations),
		"Flash":          sess.ConsumeFlash(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		s.log.Error("health check", zap.Error(err))
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
