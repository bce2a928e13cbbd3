// Package web is the presentation producer: it renders nothing itself but
// streams view snapshots to the browser and accepts the mutating commands
// the UI invokes.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/metacrafters/atmgate/internal/app"
	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/storage/activitylog"
	"github.com/metacrafters/atmgate/internal/viewstate"
)

const activityPollInterval = 2 * time.Second

// Server exposes the SSE state stream, the activity replay stream and the
// JSON command endpoints.
type Server struct {
	addr        string
	core        *app.Core
	view        *viewstate.Store
	broadcaster *viewstate.Broadcaster
	activity    *activitylog.WALStore
	limiter     *ipLimiter
	logger      *zap.Logger
}

// NewServer creates a new web server instance. Mutating endpoints are rate
// limited per client IP.
func NewServer(addr string, core *app.Core, view *viewstate.Store, broadcaster *viewstate.Broadcaster,
	activity *activitylog.WALStore, logger *zap.Logger) *Server {
	return &Server{
		addr:        addr,
		core:        core,
		view:        view,
		broadcaster: broadcaster,
		activity:    activity,
		limiter:     newIPLimiter(2, 5),
		logger:      logger,
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/state/stream", s.handleStateStream)
	mux.HandleFunc("/activity/stream", s.handleActivityStream)
	mux.HandleFunc("/api/connect", s.command(func(ctx context.Context, _ commandBody) error {
		return s.core.Connect(ctx)
	}))
	mux.HandleFunc("/api/disconnect", s.command(func(ctx context.Context, _ commandBody) error {
		s.core.Disconnect()
		return nil
	}))
	mux.HandleFunc("/api/deposit", s.command(func(ctx context.Context, body commandBody) error {
		return s.core.Deposit(ctx, body.Amount)
	}))
	mux.HandleFunc("/api/withdraw", s.command(func(ctx context.Context, body commandBody) error {
		return s.core.Withdraw(ctx, body.Amount)
	}))
	mux.HandleFunc("/api/transfer", s.command(func(ctx context.Context, body commandBody) error {
		return s.core.Transfer(ctx, body.Recipient, body.Amount)
	}))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic certificates via
// ACME, plus a port-80 listener for HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("acme server stopped", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleStateStream streams every view snapshot as an SSE event. The first
// event is the current snapshot so a late subscriber is not blank until the
// next change.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(sub)

	// comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	send := func(snap viewstate.Snapshot) bool {
		payload, err := json.Marshal(snap)
		if err != nil {
			s.logger.Warn("snapshot marshal failed", zap.Error(err))
			return false
		}
		fmt.Fprintf(w, "event: state\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return true
	}

	if !send(s.view.Snapshot()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case snap, open := <-sub:
			if !open || !send(snap) {
				return
			}
		}
	}
}

// handleActivityStream replays persisted activity records after the last
// index the client saw, then keeps polling the WAL for new entries.
func (s *Server) handleActivityStream(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "activity store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(activityPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendEntries := func() error {
		entries, err := s.activity.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			payload, err := json.Marshal(entry.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: activity\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = entry.Index
		}
		return nil
	}

	if err := sendEntries(); err != nil {
		http.Error(w, "failed to load activity", http.StatusInternalServerError)
		s.logger.Warn("activity stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendEntries(); err != nil {
				s.logger.Warn("activity stream poll", zap.Error(err))
			}
		}
	}
}

type commandBody struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

// command wraps a core operation into a rate-limited JSON POST handler.
func (s *Server) command(op func(ctx context.Context, body commandBody) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !s.limiter.allow(r) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		var body commandBody
		if r.Body != nil {
			// connect/disconnect arrive with empty bodies
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		if err := op(r.Context(), body); err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// writeError maps the domain taxonomy onto HTTP statuses. The message body
// always carries the underlying cause; network-class failures must reach
// the view layer, never be swallowed.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOperationInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUserRejected):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrWalletUnavailable), errors.Is(err, domain.ErrBinding):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrRemoteCallRejected):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrConfirmationTimeout):
		status = http.StatusGatewayTimeout
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
