package pdftools

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// progressInterval is the minimum gap between intermediate progress notifications
const progressInterval = 250 * time.Millisecond

// notifier is the part of the MCP server used to push notifications to a client
type notifier interface {
	SendNotificationToClient(ctx context.Context, method string, params map[string]any) error
}

// ProgressNotifier forwards operation progress to the MCP client as
// notifications/progress and log lines as notifications/message.
// Intermediate updates are rate limited; completion is always sent.
type ProgressNotifier struct {
	ctx     context.Context
	client  notifier
	token   mcp.ProgressToken
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu   sync.Mutex
	last int
}

func newProgressNotifier(ctx context.Context, client notifier, token mcp.ProgressToken, logger *logrus.Logger) *ProgressNotifier {
	return &ProgressNotifier{
		ctx:     ctx,
		client:  client,
		token:   token,
		limiter: rate.NewLimiter(rate.Every(progressInterval), 1),
		logger:  logger,
		last:    -1,
	}
}

// NewProgressNotifier returns a reporter for the request, or nil when the
// client did not ask for progress or no MCP server is attached to ctx.
func NewProgressNotifier(ctx context.Context, request mcp.CallToolRequest, logger *logrus.Logger) pdf.Reporter {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	srv := mcpserver.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	return newProgressNotifier(ctx, srv, request.Params.Meta.ProgressToken, logger)
}

func (n *ProgressNotifier) Progress(op string, update pdf.ProgressUpdate) {
	n.mu.Lock()
	// Progress must increase and completion always goes through
	if update.Percent <= n.last || (update.Percent < 100 && !n.limiter.Allow()) {
		n.mu.Unlock()
		return
	}
	n.last = update.Percent
	n.mu.Unlock()

	params := map[string]any{
		"progressToken": n.token,
		"progress":      update.Percent,
		"total":         100,
		"message":       update.Message,
	}
	if err := n.client.SendNotificationToClient(n.ctx, "notifications/progress", params); err != nil && n.logger != nil {
		n.logger.WithError(err).WithField("operation", op).Debug("Failed to send progress notification")
	}
}

func (n *ProgressNotifier) Log(op string, message string) {
	params := map[string]any{
		"level":  "info",
		"logger": op,
		"data":   message,
	}
	if err := n.client.SendNotificationToClient(n.ctx, "notifications/message", params); err != nil && n.logger != nil {
		n.logger.WithError(err).WithField("operation", op).Debug("Failed to send log notification")
	}
}

// withReporting adds debug logging of progress to whatever reporter ctx already carries
func withReporting(ctx context.Context, logger *logrus.Logger) context.Context {
	logReporter := pdf.LogReporter{Logger: logger}
	existing := pdf.ReporterFrom(ctx)
	return pdf.WithReporter(ctx, pdf.MultiReporter{existing, logReporter})
}
