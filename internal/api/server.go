// Package api provides the HTTP API server for lifedesk.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quantumlife/lifedesk/internal/agenda"
	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/finance"
	"github.com/quantumlife/lifedesk/internal/logging"
	"github.com/quantumlife/lifedesk/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	// Components
	db           *storage.DB
	agenda       *agenda.Service
	finance      *finance.Service
	materializer *agenda.Materializer
	nowIndicator *calendar.NowIndicator
	wsHub        *WebSocketHub

	// Stores
	noteStore     *storage.NoteStore
	expenseStore  *storage.ExpenseStore
	incomeStore   *storage.IncomeStore
	categoryStore *storage.CategoryStore

	// Calendar
	session *Session
	grid    calendar.Grid

	now func() time.Time
}

// Config for the server
type Config struct {
	Host         string
	Port         int
	DB           *storage.DB
	Materializer agenda.MaterializerConfig
	NowIndicator *calendar.NowIndicator
	Grid         calendar.Grid
	DefaultView  calendar.Granularity
	Filters      calendar.Filters
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		db:            cfg.DB,
		noteStore:     storage.NewNoteStore(cfg.DB),
		expenseStore:  storage.NewExpenseStore(cfg.DB),
		incomeStore:   storage.NewIncomeStore(cfg.DB),
		categoryStore: storage.NewCategoryStore(cfg.DB),
		nowIndicator:  cfg.NowIndicator,
		grid:          cfg.Grid.Normalize(),
		wsHub:         NewWebSocketHub(),
		now:           time.Now,
	}

	s.agenda = agenda.NewService(agenda.Sources{
		Notes:      s.noteStore,
		Expenses:   s.expenseStore,
		Income:     s.incomeStore,
		Categories: s.categoryStore,
	})
	s.finance = finance.NewService(s.expenseStore, s.incomeStore)
	s.materializer = agenda.NewMaterializer(s.expenseStore, cfg.Materializer)
	s.attachSession(NewSession(calendar.NewNavigationState(s.now(), cfg.DefaultView), cfg.Filters))

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// attachSession installs sess and pushes each of its changes to websocket
// clients. The hub queue is non-blocking, so broadcasting under the session
// lock keeps messages in transition order.
func (s *Server) attachSession(sess *Session) {
	sess.OnChange(func(st SessionState) {
		s.Broadcast("calendar.state", st)
	})
	s.session = sess
}

// Session returns the calendar session shared by all clients
func (s *Server) Session() *Session {
	return s.session
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Calendar session
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/state", s.handleGetState)
			r.Post("/granularity", s.handleSwitchGranularity)
			r.Post("/step", s.handleStep)
			r.Post("/today", s.handleJumpToToday)
			r.Post("/drill", s.handleDrillDown)
			r.Get("/filters", s.handleGetFilters)
			r.Put("/filters", s.handleUpdateFilters)
			r.Get("/view", s.handleGetView)
			r.Get("/day/{date}", s.handleGetDay)
			r.Get("/export.ics", s.handleExportICS)
		})

		// Notes
		r.Get("/notes", s.handleGetNotes)
		r.Post("/notes", s.handleCreateNote)
		r.Delete("/notes/{id}", s.handleDeleteNote)

		// Expenses
		r.Get("/expenses", s.handleGetExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Post("/expenses/{id}/paid", s.handleSetPaid)

		// Income
		r.Get("/income", s.handleGetIncome)
		r.Post("/income", s.handleCreateIncome)

		// Categories
		r.Get("/categories", s.handleGetCategories)
		r.Put("/categories/{name}", s.handlePutCategory)

		// Finance
		r.Get("/summary", s.handleGetSummary)
		r.Get("/bills", s.handleGetBills)
	})

	// WebSocket
	r.Get("/ws", s.wsHub.ServeHTTP)

	s.router = r
}

// Start starts the HTTP server and blocks until it stops. The websocket hub
// and the now-line forwarder run until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.wsHub.Run(ctx)
	if s.nowIndicator != nil {
		go s.forwardNow(ctx)
	}

	logging.Info("API server starting on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: s.now(),
	})
}

// Materialize expands recurring expenses; it is the scheduler's job handler.
func (s *Server) Materialize(ctx context.Context) error {
	n, err := s.materializer.Run(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.Broadcast("calendar.changed", map[string]int{"materialized": n})
	}
	return nil
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps domain errors to HTTP statuses.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNoteNotFound),
		errors.Is(err, core.ErrExpenseNotFound),
		errors.Is(err, core.ErrIncomeNotFound),
		errors.Is(err, core.ErrRecordNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrDuplicateRecord):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrMissingRequired),
		errors.Is(err, core.ErrInvalidRecurrence),
		errors.Is(err, core.ErrInvalidGranularity),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrInvalidDate):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Error("request failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", core.ErrInvalidInput, err)
	}
	return nil
}

// requestLogger logs each request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug("request")
	})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.Conn().PingContext(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"clients": s.wsHub.ClientCount(),
		"time":    s.now(),
	})
}
