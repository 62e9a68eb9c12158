package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/facebookgo/clock"

	"wizdraft/internal/app"
	"wizdraft/internal/attach"
	"wizdraft/internal/blobstore"
	"wizdraft/internal/config"
	"wizdraft/internal/draft"
	"wizdraft/internal/store"
)

const (
	allowRemoteEnvKey     = "WIZDRAFT_ALLOW_REMOTE"
	readHeaderTimeout     = 5 * time.Second
	readTimeout           = 30 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	shutdownTimeout       = 5 * time.Second
	sweepConcurrencyLimit = 1
)

// Server wraps HTTP handlers for the wizdraft API.
type Server struct {
	addr       string
	cfg        *config.Config
	snapshots  *store.Store
	blobs      blobstore.Store
	drafts     *draft.Store
	manager    *attach.Manager
	rehydrator *attach.Rehydrator
	clock      clock.Clock
	logger     *slog.Logger

	sweepLimiter chan struct{}
}

// New creates a server over the components of a.
func New(addr string, a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:         addr,
		cfg:          a.Config,
		snapshots:    a.Snapshots,
		blobs:        a.Blobs,
		drafts:       a.Drafts,
		manager:      a.Manager,
		rehydrator:   a.Rehydrator,
		clock:        a.Clock,
		logger:       logger.With("component", "server"),
		sweepLimiter: make(chan struct{}, sweepConcurrencyLimit),
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		s.writeError(w, r, tooManyRequests(fmt.Errorf("too many concurrent %s requests", name)))
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
