// Package api exposes the settings engine, the run log and the check runner
// over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/runlog"
	"shimwrapper-dashboard/runner"
	"shimwrapper-dashboard/store"
)

// Deps are the collaborators the handlers need. Static may be nil, in which
// case no UI is served.
type Deps struct {
	Store    *store.Manager
	Runner   *runner.Manager
	Bus      *events.Bus
	Logger   *zap.Logger
	Markers  runlog.Markers
	Static   fs.FS
	Cooldown time.Duration
	Timeout  time.Duration
}

func RegisterRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = events.NewBus()
	}
	if d.Markers == nil {
		d.Markers = runlog.DefaultMarkers()
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(d.Logger))
	r.Use(middleware.Recoverer)

	h := &handler{
		store:    d.Store,
		runner:   d.Runner,
		bus:      d.Bus,
		logger:   d.Logger,
		markers:  d.Markers,
		cooldown: newCooldown(d.Cooldown),
	}

	// REST API. WebSockets are registered outside this group because the
	// timeout would cut long-lived connections.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeout))

		r.Get("/api/settings", h.getSettings)
		r.Post("/api/settings", h.postSettings)
		r.Post("/api/settings/events", h.postEvent)
		r.Post("/api/settings/drop", h.postDrop)
		r.Put("/api/settings/checks/{id}", h.putCheckSettings)

		r.Get("/api/presets", h.getPresets)
		r.Post("/api/presets", h.createPreset)
		r.Put("/api/presets/active", h.activatePreset)
		r.Patch("/api/presets/{id}", h.renamePreset)
		r.Delete("/api/presets/{id}", h.deletePreset)

		r.Get("/api/checks", h.getChecks)
		r.Get("/api/run-log", h.getRunLog)
		r.Post("/api/run-checks", h.runChecks)
		r.Get("/api/run", h.getRun)
	})

	// WebSocket
	r.Get("/api/run/ws", h.handleRunWS)
	r.Get("/api/events/ws", h.handleEventsWS)

	if d.Static != nil {
		// Serve index.html by reading it directly; http.FileServer would
		// redirect a request ending in "index.html" to "./".
		r.Get("/", serveFile(d.Static, "index.html"))
		fileServer := http.FileServer(http.FS(d.Static))
		r.Get("/*", fileServer.ServeHTTP)
	}

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

// accessLog logs one line per request through logger.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

type handler struct {
	store    *store.Manager
	runner   *runner.Manager
	bus      *events.Bus
	logger   *zap.Logger
	markers  runlog.Markers
	cooldown *cooldown
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) publish(topic events.Topic, data any) {
	h.bus.Publish(events.Event{Topic: topic, Data: data})
}
