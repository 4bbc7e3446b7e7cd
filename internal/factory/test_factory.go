package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/playersession/internal/dependencies/mocks"
	"github.com/mcoot/playersession/internal/gateway"
	"github.com/mcoot/playersession/internal/metrics"
	"github.com/mcoot/playersession/internal/services/credentials"
	"github.com/mcoot/playersession/internal/storage/memory"
	"github.com/mcoot/playersession/internal/transport/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MemoryStorage *memory.Storage
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Passwords use the fast SHA-256 scheme and metrics use a private registry.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(dependencies{
		store:      store,
		clock:      mockClock,
		random:     mockRandom,
		hasher:     credentials.SHA256Hasher{},
		hubConfig:  ws.DefaultConfig(),
		gatewayCfg: gateway.DefaultConfig(),
		metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	return &TestApp{
		App:           app,
		MemoryStorage: store,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
	}
}
