package clientapp

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phillip-england/cineadmin/internal/apiclient"
	"github.com/phillip-england/cineadmin/internal/envutil"
	"github.com/phillip-england/cineadmin/internal/middleware"
	"github.com/phillip-england/cineadmin/internal/mutation"
	"github.com/phillip-england/cineadmin/internal/records"
	"github.com/phillip-england/cineadmin/internal/tableview"
)

//go:embed templates/*.html assets/app.css
var templatesFS embed.FS

type Config struct {
	Addr               string        `env:"CLIENT_ADDR" envDefault:":3000"`
	APIBaseURL         string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	APITimeout         time.Duration `env:"API_TIMEOUT" envDefault:"8s"`
	UsersPath          string        `env:"API_USERS_PATH" envDefault:"/api/users"`
	CountBookingPath   string        `env:"API_COUNT_BOOKING_PATH" envDefault:"/api/procedure/count-booking"`
	MoviesPath         string        `env:"API_MOVIES_PATH" envDefault:"/api/movies"`
	ViewTTL            time.Duration `env:"CLIENT_VIEW_TTL" envDefault:"30m"`
	CompletionOrder    bool          `env:"CLIENT_COMPLETION_ORDER_REFRESH" envDefault:"false"`
	DeleteDismissDelay time.Duration `env:"CLIENT_DELETE_DISMISS" envDefault:"1.5s"`
	ReadTimeout        time.Duration `env:"CLIENT_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout       time.Duration `env:"CLIENT_WRITE_TIMEOUT" envDefault:"10s"`
}

func DefaultConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envutil.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// API is everything the pages need from the backend.
type API interface {
	mutation.UserService
	ListUsers(ctx context.Context) ([]records.User, error)
	SearchUsers(ctx context.Context, query string) ([]records.User, error)
	FilterCustomers(ctx context.Context, filter apiclient.CustomerFilter) ([]records.Customer, error)
	ListMovies(ctx context.Context) ([]records.Movie, error)
	MovieRevenueDetail(ctx context.Context, id records.ID) (string, error)
}

type server struct {
	api   API
	log   *slog.Logger
	cfg   Config
	views *viewRegistry

	// baseCtx outlives requests; background refreshes run on it.
	baseCtx context.Context
	// dispatch runs a refresh without blocking the request.
	dispatch func(func())

	customersTmpl *template.Template
	usersTmpl     *template.Template
	revenueTmpl   *template.Template
}

func newServer(ctx context.Context, cfg Config, api API, log *slog.Logger) *server {
	if cfg.DeleteDismissDelay <= 0 {
		cfg.DeleteDismissDelay = mutation.DefaultDismissDelay
	}
	if cfg.ViewTTL <= 0 {
		cfg.ViewTTL = 30 * time.Minute
	}
	return &server{
		api:           api,
		log:           log,
		cfg:           cfg,
		views:         newViewRegistry(cfg.ViewTTL),
		baseCtx:       ctx,
		dispatch:      func(f func()) { go f() },
		customersTmpl: parsePage("templates/customers.html"),
		usersTmpl:     parsePage("templates/users.html"),
		revenueTmpl:   parsePage("templates/revenue.html"),
	}
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", name))
}

func Run(ctx context.Context, cfg Config, log *slog.Logger) error {
	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		apiclient.WithPaths(apiclient.Paths{
			Users:        cfg.UsersPath,
			CountBooking: cfg.CountBookingPath,
			Movies:       cfg.MoviesPath,
		}),
	)
	s := newServer(ctx, cfg, api, log)
	go s.views.sweep(ctx, time.Minute)

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	handler := middleware.Chain(
		s.routes(),
		middleware.RequestLog(log),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("client listening", "addr", "http://localhost"+cfg.Addr, "api", cfg.APIBaseURL)
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

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/admin/users", http.StatusFound)
	}))
	mux.Handle("/admin", http.RedirectHandler("/admin/users", http.StatusFound))
	mux.Handle("/admin/customers", http.HandlerFunc(s.customersPage))
	mux.Handle("/admin/customers/", http.HandlerFunc(s.customersRoutes))
	mux.Handle("/admin/users", http.HandlerFunc(s.usersPage))
	mux.Handle("/admin/users/", http.HandlerFunc(s.usersRoutes))
	mux.Handle("/admin/revenue", http.HandlerFunc(s.revenuePage))
	mux.Handle("/admin/revenue/", http.HandlerFunc(s.revenueRoutes))
	mux.Handle("/assets/app.css", http.HandlerFunc(s.appCSSFile))
	return mux
}

func (s *server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := templatesFS.ReadFile("assets/app.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(data)
}

// refreshAsync starts fn on the server context so the page can render the
// loading state while the API answers.
func (s *server) refreshAsync(fn func(ctx context.Context)) {
	ctx := s.baseCtx
	s.dispatch(func() { fn(ctx) })
}

func (s *server) storeOptions(name string) []tableview.StoreOption {
	return []tableview.StoreOption{
		tableview.WithLogger(s.log),
		tableview.WithName(name),
		tableview.CompletionOrder(s.cfg.CompletionOrder),
	}
}

func (s *server) dialogOptions() []mutation.DialogOption {
	return []mutation.DialogOption{mutation.WithDismissDelay(s.cfg.DeleteDismissDelay)}
}

func (s *server) render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	if err := renderHTMLTemplate(w, tmpl, data); err != nil {
		http.Error(w, "template render failed", http.StatusInternalServerError)
		s.log.Error("template render failed", "page", data.Nav, "err", err)
	}
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(buf.Bytes())
	return err
}

func redirectToView(w http.ResponseWriter, r *http.Request, path, viewID string) {
	http.Redirect(w, r, path+"?view="+viewID, http.StatusSeeOther)
}
