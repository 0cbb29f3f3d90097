package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(ctx))

	entry := logrus.WithField("correlation_id", "abc")
	ctx = ToContext(ContextWithCorrelationID(ctx, "abc"), entry)
	assert.Same(t, entry, FromContext(ctx))
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))
}

func TestNewCorrelationID(t *testing.T) {
	a, b := NewCorrelationID(), NewCorrelationID()
	assert.True(t, strings.HasPrefix(a, "gen_"))
	assert.NotEqual(t, a, b)
}
