package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netdiagram/internal/watcher"
	"github.com/matzehuels/netdiagram/pkg/layout"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
	"github.com/matzehuels/netdiagram/pkg/topology"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Addr string

	// Paths names the topology files. Reload reads them and, when Watch is
	// set, Run reloads them whenever they change.
	Paths topology.Paths
	Watch bool

	// Snapshot is served when Paths is empty, for example a snapshot read
	// from the store.
	Snapshot *topology.Snapshot

	Geometry        layout.Geometry
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	Logger          *log.Logger
}

// Server serves one live topology.
type Server struct {
	cfg    Config
	logger *log.Logger
	hub    *Hub
	loop   *Loop
	router http.Handler
}

// New creates a server. Nothing runs until Start or Run.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Geometry == (layout.Geometry{}) {
		cfg.Geometry = layout.DefaultGeometry()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.hub = NewHub(cfg.Logger)
	s.loop = NewLoop(cfg.Geometry, s.hub, cfg.Logger)
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start runs the event loop in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.loop.Run(ctx)
}

// Run starts the event loop, loads the topology files, optionally watches
// them, and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.Start(ctx)
	defer s.hub.Close()

	switch {
	case s.cfg.Paths.Topology != "":
		if err := s.Reload(ctx); err != nil {
			return err
		}
	case s.cfg.Snapshot != nil:
		if err := s.Load(ctx, s.cfg.Snapshot); err != nil {
			return err
		}
	}

	if s.cfg.Watch && s.cfg.Paths.Topology != "" {
		w := watcher.New(s.cfg.Paths.List(), func([]string) {
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("reload failed", "err", err)
			}
		}, s.logger)
		go func() {
			if err := w.Watch(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
				s.logger.Error("watcher stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer stop()
	s.hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// Reload reads the topology files and lays them out. On error the current
// snapshot stays in place.
func (s *Server) Reload(ctx context.Context) error {
	snap, err := pipeline.Load(ctx, pipeline.Options{Paths: s.cfg.Paths, Logger: s.logger})
	if err != nil {
		return err
	}
	return s.Load(ctx, snap)
}

// Load replaces the served snapshot with snap and lays it out.
func (s *Server) Load(ctx context.Context, snap *topology.Snapshot) error {
	var reloaded reloadEvent
	err := s.loop.Do(ctx, func(st *State) error {
		canvas := st.Layout(snap)
		reloaded = reloadEvent{
			Stats:       snap.Stats(),
			Canvas:      canvas,
			Diagnostics: len(st.Diagnostics()),
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.hub.Broadcast(EventTopologyReloaded, reloaded)
	s.logger.Info("topology loaded",
		"devices", reloaded.Stats.Devices,
		"groups", reloaded.Stats.Groups,
		"diagnostics", reloaded.Diagnostics)
	return nil
}

type reloadEvent struct {
	Stats       topology.Stats `json:"stats"`
	Canvas      layout.Canvas  `json:"canvas"`
	Diagnostics int            `json:"diagnostics"`
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/topology", s.handleTopology)
		r.Put("/topology", s.handlePutTopology)
		r.Post("/topology/reload", s.handleReload)

		r.Get("/layout", s.handleLayout)
		r.Post("/layout/auto-arrange", s.handleAutoArrange)
		r.Post("/layout/refresh-sizes", s.handleRefreshSizes)
		r.Get("/diagram.svg", s.handleDiagram)

		r.Route("/drag", func(r chi.Router) {
			r.Post("/begin", s.handleDragBegin)
			r.Post("/move", s.handleDragMove)
			r.Post("/end", s.handleDragEnd)
		})
		r.Post("/pointer/down", s.handlePointerDown)

		r.Get("/anchors/{device}/{iface}", s.handleAnchor)
		r.Get("/devices/{device}/center", s.handleDeviceCenter)

		r.Post("/flows/deselect", s.handleDeselect)
		r.Post("/flows/{id}/select", s.handleSelectFlow)

		r.Get("/events", s.handleEvents)
		r.Get("/ws", s.handleWebSocket)
	})
	return r
}
