package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("login", "username", "alice", "password", "hunter22", "session_secret", "abc")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "alice", fields["username"])
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "[REDACTED]", fields["session_secret"])
}

func TestLogger_WithKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "ledger")

	log.Warn("publish failed", "invoice_id", uint64(7))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger", entries[0].ContextMap()["service"])
	assert.Equal(t, uint64(7), entries[0].ContextMap()["invoice_id"])
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, []interface{}{"a", 1, "dangling"}, out)
}
