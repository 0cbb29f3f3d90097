// Package logging configures logrus and carries a request-scoped entry and
// correlation id through contexts, for HTTP requests and sync messages alike.
package logging

import (
	"context"
	"os"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

// CorrelationIDHeader is read from and echoed on every HTTP response.
const CorrelationIDHeader = "Correlation-ID"

type ctxKey int

const (
	loggerKey ctxKey = iota
	correlationIDKey
)

// Init sets the global level and formatter.  Developer environments get
// the text formatter, everything else JSON.
func Init(level string, dev bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	if dev {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
}

// NewCorrelationID generates an id for requests that arrive without one.
func NewCorrelationID() string {
	return "gen_" + shortuuid.New()
}

func ToContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// FromContext returns the entry stored in ctx or the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}
