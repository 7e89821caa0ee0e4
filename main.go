package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	pdfcli "github.com/sammcj/mcp-pdftools/internal/cli"
	"github.com/sammcj/mcp-pdftools/internal/pdf"
	"github.com/sammcj/mcp-pdftools/internal/registry"
	"github.com/sammcj/mcp-pdftools/internal/security"
	"github.com/sammcj/mcp-pdftools/internal/tools"
	"github.com/sammcj/mcp-pdftools/internal/tools/pdftools"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	// Import all tool packages to register them
	_ "github.com/sammcj/mcp-pdftools/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Global resources that need cleanup
var (
	debugLogFile atomic.Pointer[os.File]
	isStdioMode  atomic.Bool
)

const (
	// DefaultMemoryLimit is the default soft memory limit (2GB)
	DefaultMemoryLimit = 2 * 1024 * 1024 * 1024

	MemoryLimitEnvVar = "PDFTOOLS_MEMORY_LIMIT"
)

// parseLogLevel parses LOG_LEVEL, defaulting to warn
func parseLogLevel() logrus.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.WarnLevel
	}
}

// setMemoryLimit configures the Go runtime soft memory limit.
// pdfcpu holds whole documents in memory while merging.
func setMemoryLimit() {
	var memLimit int64 = DefaultMemoryLimit
	if s := os.Getenv(MemoryLimitEnvVar); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil && parsed > 0 {
			memLimit = parsed
		}
	}
	debug.SetMemoryLimit(memLimit)
}

// loadDotEnv reads .env from the working directory when present
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

// configureLogging sends logs to ~/.mcp-pdftools/logs/mcp-pdftools.log.
// stdio must never write to stdout or stderr, so it discards logs when the file cannot be opened.
func configureLogging(logger *logrus.Logger) {
	level := parseLogLevel()
	logger.SetLevel(level)
	logrus.SetLevel(level)

	fallback := io.Writer(os.Stderr)
	if isStdioMode.Load() {
		fallback = io.Discard
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	logDir := filepath.Join(homeDir, ".mcp-pdftools", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	file, err := os.OpenFile(filepath.Join(logDir, "mcp-pdftools.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger.SetOutput(fallback)
		logrus.SetOutput(fallback)
		return
	}

	debugLogFile.Store(file)
	logger.SetOutput(file)
	logrus.SetOutput(file)
	logger.WithField("level", level.String()).Debug("Logging configured")
}

func main() {
	setMemoryLimit()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Discard output until the transport is known
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	dotEnvErr := loadDotEnv()

	registry.Init(logger)

	defer performCleanup(logger)

	app := &cli.Command{
		Name:    "mcp-pdftools",
		Usage:   "MCP server for combining, compressing and previewing PDF files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   "stdio",
				Usage:   "Transport type (stdio, sse, or http)",
				Sources: cli.EnvVars("PDFTOOLS_TRANSPORT"),
			},
			&cli.StringFlag{
				Name:    "port",
				Value:   "18080",
				Usage:   "Port to use for HTTP transports (SSE and Streamable HTTP)",
				Sources: cli.EnvVars("PDFTOOLS_PORT"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Value:   "http://localhost",
				Usage:   "Base URL for HTTP transports",
				Sources: cli.EnvVars("PDFTOOLS_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "auth-token",
				Usage:   "Bearer token required by the Streamable HTTP transport (optional)",
				Sources: cli.EnvVars("PDFTOOLS_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "endpoint-path",
				Value:   "/http",
				Usage:   "Endpoint path for Streamable HTTP transport",
				Sources: cli.EnvVars("PDFTOOLS_ENDPOINT_PATH"),
			},
			&cli.DurationFlag{
				Name:    "session-timeout",
				Value:   30 * time.Minute,
				Usage:   "Session timeout for Streamable HTTP transport",
				Sources: cli.EnvVars("PDFTOOLS_SESSION_TIMEOUT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Printf("mcp-pdftools version %s\n", Version)
					fmt.Printf("Commit: %s\n", Commit)
					fmt.Printf("Built: %s\n", BuildDate)
					return nil
				},
			},
			cliCommand(logger),
		},
		Action: func(cliCtx context.Context, cmd *cli.Command) error {
			transport := cmd.String("transport")
			isStdioMode.Store(transport == "stdio")
			configureLogging(logger)

			if dotEnvErr != nil {
				logger.WithError(dotEnvErr).Warn("Ignoring .env file")
			}

			if err := tools.InitGlobalErrorLogger(logger); err != nil {
				logger.WithError(err).Warn("Failed to initialise tool error logger")
			}

			if err := security.InitGlobalManager(); err != nil {
				logger.WithError(err).Warn("Failed to initialise file access control")
			}

			// Warm the Ghostscript discovery cache so the first compression is not delayed
			go func() {
				if version, err := pdf.CheckGhostscriptInstalled(cliCtx); err != nil {
					logger.WithError(err).Info("Ghostscript unavailable, compression will fall back to pdfcpu")
				} else {
					logger.WithField("version", version).Debug("Ghostscript found")
				}
			}()

			logger.WithFields(logrus.Fields{
				"version":   Version,
				"commit":    Commit,
				"transport": transport,
			}).Info("Starting mcp-pdftools")

			mcpSrv := mcpserver.NewMCPServer("mcp-pdftools", Version,
				mcpserver.WithToolCapabilities(true),
				mcpserver.WithLogging(),
			)
			registerTools(mcpSrv, transport, logger)

			switch transport {
			case "stdio":
				return mcpserver.ServeStdio(mcpSrv)
			case "sse":
				port := cmd.String("port")
				logger.WithField("port", port).Info("Starting SSE server")
				sseServer := mcpserver.NewSSEServer(mcpSrv, mcpserver.WithBaseURL(cmd.String("base-url")+":"+port))
				return sseServer.Start(":" + port)
			case "http":
				return startStreamableHTTPServer(cliCtx, httpConfig{
					Port:           cmd.String("port"),
					AuthToken:      cmd.String("auth-token"),
					EndpointPath:   cmd.String("endpoint-path"),
					SessionTimeout: cmd.Duration("session-timeout"),
				}, mcpSrv, logger)
			default:
				return fmt.Errorf("unsupported transport: %s", transport)
			}
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		// stdio clients read stdout as protocol, so stay silent there
		if !isStdioMode.Load() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		performCleanup(logger)
		os.Exit(1)
	}
}

// registerTools adds every enabled tool to the MCP server
func registerTools(mcpSrv *mcpserver.MCPServer, transport string, logger *logrus.Logger) {
	enabledTools := registry.GetEnabledTools()
	logger.WithField("tool_count", len(enabledTools)).Debug("Registering tools")

	for name, tool := range enabledTools {
		logger.WithField("tool", name).Debug("Registering tool")
		mcpSrv.AddTool(tool.Definition(), toolHandler(name, transport, logger))
	}
}

// toolHandler runs a registered tool, forwarding progress to the client when it asked for it
func toolHandler(name, transport string, logger *logrus.Logger) mcpserver.ToolHandlerFunc {
	return func(toolCtx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		currentTool, ok := registry.GetTool(name)
		if !ok {
			return nil, fmt.Errorf("tool not found: %s", name)
		}

		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			if request.Params.Arguments != nil {
				return nil, fmt.Errorf("invalid arguments type: expected object, got %T", request.Params.Arguments)
			}
			args = map[string]any{}
		}

		toolCtx = pdf.WithReporter(toolCtx, pdftools.NewProgressNotifier(toolCtx, request, logger))

		result, err := currentTool.Execute(toolCtx, registry.GetLogger(), registry.GetCache(), args)
		recordFailure(tools.GetGlobalErrorLogger(), logger, name, transport, args, result, err)
		if err != nil {
			return nil, fmt.Errorf("tool execution failed: %w", err)
		}
		return result, nil
	}
}

// recordFailure logs failed calls, including result records that report success=false
func recordFailure(errorLogger *tools.ToolErrorLogger, logger *logrus.Logger, name, transport string, args map[string]any, result *mcp.CallToolResult, err error) {
	if err == nil {
		err = tools.ResultFailure(result)
	}
	if err == nil {
		return
	}
	logger.WithError(err).WithField("tool", name).Warn("Tool execution failed")
	if errorLogger != nil {
		errorLogger.LogToolError(name, args, err, transport)
	}
}

// cliCommand runs tools directly from the terminal
func cliCommand(logger *logrus.Logger) *cli.Command {
	newRunner := func(cmd *cli.Command) *pdfcli.Runner {
		logger.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
		if err := security.InitGlobalManager(); err != nil {
			logger.WithError(err).Warn("Failed to initialise file access control")
		}
		return pdfcli.NewRunner(logger, registry.GetCache(), pdfcli.OutputFormat(cmd.String("output")))
	}

	return &cli.Command{
		Name:  "cli",
		Usage: "Run tools directly without an MCP client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   string(pdfcli.OutputText),
				Usage:   "Output format (text or json)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available tools",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return newRunner(cmd).ListTools()
				},
			},
			{
				Name:      "help",
				Usage:     "Show the parameters of a tool",
				ArgsUsage: "<tool>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: mcp-pdftools cli help <tool>")
					}
					return newRunner(cmd).HelpTool(cmd.Args().First())
				},
			},
			{
				Name:            "run",
				Usage:           "Run a tool",
				ArgsUsage:       "<tool> [--param=value ...] ['{\"param\": \"value\"}']",
				SkipFlagParsing: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() < 1 {
						return fmt.Errorf("usage: mcp-pdftools cli run <tool> [--param=value ...]")
					}
					return newRunner(cmd).RunTool(ctx, cmd.Args().First(), cmd.Args().Tail())
				},
			},
		},
	}
}

// performCleanup releases resources on shutdown. It must not write to stdout.
func performCleanup(logger *logrus.Logger) {
	if errorLogger := tools.GetGlobalErrorLogger(); errorLogger != nil {
		if err := errorLogger.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close tool error logger")
		}
	}

	if manager := security.SetGlobalManager(nil); manager != nil {
		if err := manager.Close(); err != nil {
			logger.WithError(err).Warn("Failed to stop security rules watcher")
		}
	}

	if file := debugLogFile.Swap(nil); file != nil {
		logger.SetOutput(io.Discard)
		logrus.SetOutput(io.Discard)
		_ = file.Close()
	}
}
