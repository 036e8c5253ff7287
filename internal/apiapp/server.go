// Package apiapp is an in-memory stand-in for the ticketing backend API. It
// serves the endpoints the admin client consumes so the client can be run
// and tested without the real server.
package apiapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/currency"
	"github.com/phillip-england/cineadmin/internal/envutil"
	"github.com/phillip-england/cineadmin/internal/middleware"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/security"
)

type Config struct {
	Addr         string        `env:"API_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"API_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"API_WRITE_TIMEOUT" envDefault:"10s"`
}

type storedUser struct {
	user         records.User
	passwordHash string
	bookings     int
	spent        float64
}

type showing struct {
	label   string
	tickets int
	revenue float64
}

type storedMovie struct {
	movie    records.Movie
	showings []showing
}

func DefaultConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envutil.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Server holds the stand-in data set.
type Server struct {
	log   *slog.Logger
	paths apiclient.Paths

	mu     sync.Mutex
	users  []*storedUser
	movies []storedMovie
}

func New(log *slog.Logger) *Server {
	s := &Server{log: log, paths: apiclient.DefaultPaths()}
	s.seed()
	return s
}

func Run(ctx context.Context, cfg Config, log *slog.Logger) error {
	s := New(log)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.Chain(s.Handler(), middleware.RequestLog(log)),
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", "http://localhost"+cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.paths.Users, s.usersCollection)
	mux.HandleFunc(s.paths.Users+"/", s.userRoutes)
	mux.HandleFunc(s.paths.CountBooking, s.countBooking)
	mux.HandleFunc(s.paths.Movies, s.listMovies)
	mux.HandleFunc(s.paths.Movies+"/", s.movieRoutes)
	return mux
}

func (s *Server) usersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		out := make([]records.User, 0, len(s.users))
		for _, u := range s.users {
			out = append(out, u.user)
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		s.createUser(w, r)
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) userRoutes(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, s.paths.Users+"/"), "/")
	if tail == "search" && r.Method == http.MethodGet {
		s.searchUsers(w, r)
		return
	}
	id, err := url.PathUnescape(tail)
	if err != nil || id == "" || strings.Contains(id, "/") {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		s.updateUser(w, r, records.TextID(id))
	case http.MethodDelete:
		s.deleteUser(w, records.TextID(id))
	default:
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in records.User
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.UserID = records.TextID(strings.TrimSpace(in.UserID.String()))
	if in.UserID.IsZero() {
		writeMessage(w, http.StatusBadRequest, "UserID is required")
		return
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Password = ""

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(in.UserID) >= 0 {
		writeMessage(w, http.StatusConflict, fmt.Sprintf("user %s already exists", in.UserID))
		return
	}
	s.users = append(s.users, &storedUser{user: in, passwordHash: hash})
	s.log.Info("user created", "user_id", in.UserID)
	writeMessage(w, http.StatusCreated, fmt.Sprintf("User %s created", in.UserID))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, id records.ID) {
	var in records.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// A blank password leaves the current one in place.
	var hash string
	if in.NewPassword != "" {
		var err error
		if hash, err = security.HashPassword(in.NewPassword); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(id)
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("user %s not found", id))
		return
	}
	u := s.users[idx]
	u.user.Email = in.NewEmail
	u.user.Phone = in.NewPhone
	if hash != "" {
		u.passwordHash = hash
	}
	s.log.Info("user updated", "user_id", id)
	writeMessage(w, http.StatusOK, fmt.Sprintf("User %s updated", id))
}

func (s *Server) deleteUser(w http.ResponseWriter, id records.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(id)
	if idx < 0 {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("user %s not found", id))
		return
	}
	s.users = slices.Delete(s.users, idx, idx+1)
	s.log.Info("user deleted", "user_id", id)
	writeMessage(w, http.StatusOK, fmt.Sprintf("User %s deleted", id))
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	s.mu.Lock()
	out := make([]records.User, 0)
	for _, u := range s.users {
		if matchesUser(u.user, query) {
			out = append(out, u.user)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) countBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	keyword := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	maxBookings := -1
	if raw := strings.TrimSpace(r.URL.Query().Get("max")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "max must be a non-negative integer")
			return
		}
		maxBookings = n
	}

	s.mu.Lock()
	data := make([]records.Customer, 0)
	for _, u := range s.users {
		if !matchesUser(u.user, keyword) {
			continue
		}
		if maxBookings >= 0 && u.bookings > maxBookings {
			continue
		}
		data = append(data, records.Customer{
			ID:       u.user.UserID,
			Name:     u.user.DisplayName(),
			Email:    u.user.Email,
			Phone:    u.user.Phone,
			Bookings: u.bookings,
			Spent:    formatSpent(u.spent),
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	data := make([]records.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		data = append(data, m.movie)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (s *Server) movieRoutes(w http.ResponseWriter, r *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, s.paths.Movies+"/"), "/")
	parts := strings.Split(tail, "/")
	if r.Method != http.MethodGet || len(parts) != 2 || parts[1] != "revenue-detail" {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	id := records.TextID(parts[0])

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if m.movie.ID == id {
			writeJSON(w, http.StatusOK, map[string]string{"detail": revenueDetail(m)})
			return
		}
	}
	writeMessage(w, http.StatusNotFound, fmt.Sprintf("movie %s not found", id))
}

func (s *Server) findLocked(id records.ID) int {
	return slices.IndexFunc(s.users, func(u *storedUser) bool { return u.user.UserID == id })
}

func matchesUser(u records.User, keyword string) bool {
	if keyword == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{u.UserID.String(), u.FirstName, u.LastName, u.DisplayName(), u.Email, u.Phone}, " "))
	return strings.Contains(haystack, keyword)
}

// formatSpent renders amounts the way the booking procedure does, e.g.
// "1,200,000 đ".
func formatSpent(amount float64) string {
	digits := strconv.FormatInt(int64(amount), 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + " đ"
}

func revenueDetail(m storedMovie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Movie: %s (%s)\n", m.movie.Title, m.movie.ID)
	for _, sh := range m.showings {
		fmt.Fprintf(&b, "%-22s %4d tickets  %s\n", sh.label, sh.tickets, currency.FormatVND(sh.revenue))
	}
	fmt.Fprintf(&b, "Total: %s\n", currency.FormatVND(m.movie.TotalRevenue))
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
