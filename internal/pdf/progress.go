package pdf

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Operation names passed to a Reporter
const (
	OpCombine   = "combine"
	OpCompress  = "compress"
	OpReorder   = "reorder"
	OpMerge     = "merge"
	OpThumbnail = "thumbnail"
)

// Reporter receives progress and log lines from long running operations
type Reporter interface {
	Progress(op string, update ProgressUpdate)
	Log(op string, message string)
}

type reporterKey struct{}

// WithReporter returns a context that carries r
func WithReporter(ctx context.Context, r Reporter) context.Context {
	if r == nil {
		return ctx
	}
	return context.WithValue(ctx, reporterKey{}, r)
}

// ReporterFrom returns the Reporter carried by ctx, or one that discards everything
func ReporterFrom(ctx context.Context) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok {
		return r
	}
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Progress(string, ProgressUpdate) {}
func (nopReporter) Log(string, string)              {}

// LogReporter writes progress to a logrus logger at debug level
type LogReporter struct {
	Logger *logrus.Logger
}

func (r LogReporter) Progress(op string, update ProgressUpdate) {
	r.Logger.WithFields(logrus.Fields{
		"operation": op,
		"percent":   update.Percent,
	}).Debug(update.Message)
}

func (r LogReporter) Log(op string, message string) {
	r.Logger.WithField("operation", op).Debug(message)
}

// MultiReporter fans out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) Progress(op string, update ProgressUpdate) {
	for _, r := range m {
		r.Progress(op, update)
	}
}

func (m MultiReporter) Log(op string, message string) {
	for _, r := range m {
		r.Log(op, message)
	}
}
