package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLoggerRecordsMessages(t *testing.T) {
	logger, rec := CaptureLogger()

	logger.Info("first", "n", 1)
	logger.Debug("second")

	assert.Equal(t, []string{"first", "second"}, rec.Messages())

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, float64(1), entries[0]["n"])
	assert.Equal(t, "DEBUG", entries[1]["level"])
}

func TestNopLoggerDiscards(t *testing.T) {
	NopLogger().Error("nothing to see")
}
