package core

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFromContext(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), loggerFromContext(context.Background()))

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	ctx := WithLogger(context.Background(), log)
	loggerFromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestSuppressHeader(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(ctx)))
	// Derived contexts keep the flag
	child, cancel := context.WithCancel(WithSuppressHeader(ctx))
	defer cancel()
	assert.True(t, shouldSuppressHeader(child))
}
