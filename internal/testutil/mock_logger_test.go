package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
)

func TestMockLogger_Records(t *testing.T) {
	m := NewMockLogger()
	var l logging.Logger = m

	l.Debug("d")
	l.Info("parsed", logging.SMILES("CCO"))
	l.Warn("w")
	l.Error("e")

	require.Len(t, m.Entries(), 4)
	e, ok := m.Find("info", "parsed")
	require.True(t, ok)
	v, ok := e.Field("smiles")
	require.True(t, ok)
	assert.Equal(t, "CCO", v)
	assert.False(t, m.HasMessage("error", "parsed"))
	assert.Equal(t, 1, m.Count("warn"))
}

func TestMockLogger_WithSharesRecord(t *testing.T) {
	m := NewMockLogger()
	child := m.With(logging.String("run_id", "r1")).Named("batch")
	child.Info("item")
	m.Info("root")

	entries := m.Entries()
	require.Len(t, entries, 2)
	id, ok := entries[0].Field("run_id")
	require.True(t, ok)
	assert.Equal(t, "r1", id)
	_, ok = entries[1].Field("run_id")
	assert.False(t, ok)
	assert.NoError(t, child.Sync())
}
