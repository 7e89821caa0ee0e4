package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-pdftools/internal/cache"
	"github.com/sirupsen/logrus"
)

// httpConfig holds the Streamable HTTP transport settings
type httpConfig struct {
	Port           string
	AuthToken      string
	EndpointPath   string
	SessionTimeout time.Duration
}

// startStreamableHTTPServer serves MCP over Streamable HTTP until ctx is cancelled
func startStreamableHTTPServer(ctx context.Context, cfg httpConfig, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", cfg.Port, cfg.EndpointPath)

	heartbeatInterval := 30 * time.Second
	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}
	if cfg.SessionTimeout > 0 {
		opts = append(opts, mcpserver.WithSessionIdManager(NewTimeoutSessionManager(cfg.SessionTimeout, logger)))
		heartbeatInterval = cfg.SessionTimeout / 4
	}
	opts = append(opts, mcpserver.WithHeartbeatInterval(heartbeatInterval))

	httpServer := mcpserver.NewStreamableHTTPServer(mcpServer, opts...)

	mux := http.NewServeMux()
	mux.Handle(cfg.EndpointPath, authMiddleware(cfg.AuthToken, logger, httpServer))
	if cfg.AuthToken != "" {
		logger.Info("Bearer token authentication enabled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

// authMiddleware rejects requests from foreign origins and, when a token is set,
// requests without a matching bearer token.
func authMiddleware(expectedToken string, logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if version := req.Header.Get("MCP-Protocol-Version"); version != "" && !isValidProtocolVersion(version) {
			logger.Warnf("Unsupported MCP Protocol Version: %s", version)
		}

		if origin := req.Header.Get("Origin"); origin != "" && !isValidOrigin(origin) {
			logger.WithField("origin", origin).Warn("Rejected request from invalid origin")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if expectedToken != "" {
			token, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.Warn("Rejected request with missing or invalid bearer token")
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "unauthorised", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, req)
	})
}

// isValidProtocolVersion checks if the MCP protocol version is supported
func isValidProtocolVersion(version string) bool {
	return slices.Contains([]string{"2025-06-18", "2025-03-26", "2024-11-05"}, version)
}

// isValidOrigin allows local origins only, preventing DNS rebinding
func isValidOrigin(origin string) bool {
	for _, allowed := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == allowed || strings.HasPrefix(origin, allowed+":") || strings.HasPrefix(origin, allowed+"/") {
			return true
		}
	}
	return false
}

// TimeoutSessionManager issues session IDs that expire after a period of inactivity
type TimeoutSessionManager struct {
	sessions *cache.Cache[string, time.Time]
	logger   *logrus.Logger
}

// NewTimeoutSessionManager returns a manager whose sessions live for timeout since last use
func NewTimeoutSessionManager(timeout time.Duration, logger *logrus.Logger) *TimeoutSessionManager {
	return &TimeoutSessionManager{
		sessions: cache.New[string, time.Time](timeout, 0),
		logger:   logger,
	}
}

func (t *TimeoutSessionManager) Generate() string {
	id := uuid.NewString()
	t.sessions.Set(id, time.Now())
	return id
}

// Validate reports unknown or expired sessions as terminated so clients re-initialise
func (t *TimeoutSessionManager) Validate(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("empty session ID")
	}
	if !t.sessions.Touch(sessionID) {
		return true, nil
	}
	return false, nil
}

func (t *TimeoutSessionManager) Terminate(sessionID string) (bool, error) {
	t.sessions.Delete(sessionID)
	t.logger.WithField("session", sessionID).Debug("Session terminated")
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
