package factory

import (
	"time"

	channel "github.com/mcoot/rewardroster/internal/channel/memory"
	"github.com/mcoot/rewardroster/internal/dependencies/mocks"
	"github.com/mcoot/rewardroster/internal/engine"
	"github.com/mcoot/rewardroster/internal/render"
	"github.com/mcoot/rewardroster/internal/storage/memory"
	"github.com/mcoot/rewardroster/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}

// NewEngine builds a client engine on the mock clock, syncing through an
// in-process channel. Run it before use.
func (t *TestApp) NewEngine() (*engine.Engine, *channel.Client, *render.HTMLSurface, error) {
	client := t.NewLocalClient()
	surface := render.NewHTMLSurface()
	e, err := engine.New(client, surface, t.MockClock, engine.DefaultConfig(), t.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return e, client, surface, nil
}
