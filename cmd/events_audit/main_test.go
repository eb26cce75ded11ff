package main

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"credentials_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditEvent(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	err := auditEvent(log)(models.Event{
		ID:         "evt-1",
		Type:       models.EventCredentialRevoked,
		UserID:     "u1",
		OccurredAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"type":"credential.revoked"`)
	assert.Contains(t, out, `"uid":"u1"`)
	assert.Contains(t, out, `"event_id":"evt-1"`)
}
