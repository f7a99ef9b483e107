package todo

import (
	"context"
	"testing"

	domain "github.com/example/todo-app/domain/todo"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeModule depends on the todo module and captures an adapter over its
// service container, the same way the API module does.
type probeModule struct {
	port TodoPort
}

var _ mono.DependentModule = (*probeModule)(nil)

func (p *probeModule) Name() string                  { return "probe" }
func (p *probeModule) Dependencies() []string        { return []string{"todo"} }
func (p *probeModule) Start(_ context.Context) error { return nil }
func (p *probeModule) Stop(_ context.Context) error  { return nil }
func (p *probeModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "todo" {
		p.port = NewTodoAdapter(container)
	}
}

// startTestApp runs a mono application with the todo module and a probe.
func startTestApp(t *testing.T) TodoPort {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
	)
	require.NoError(t, err)

	probe := &probeModule{}
	require.NoError(t, app.Register(NewModuleWithRepository(setupTestRepo(t))))
	require.NoError(t, app.Register(probe))

	if err := app.Start(context.Background()); err != nil {
		t.Skipf("Skipping test: mono application failed to start: %v", err)
	}
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	require.NotNil(t, probe.port, "adapter not injected")
	return probe.port
}

func TestNewTodoAdapter_NilContainerPanics(t *testing.T) {
	assert.Panics(t, func() { NewTodoAdapter(nil) })
}

func TestTodoAdapter_RoundTrip(t *testing.T) {
	port := startTestApp(t)
	ctx := context.Background()

	todos, err := port.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)

	created, err := port.Create(ctx, "Buy milk", "")
	require.NoError(t, err)
	assert.False(t, created.Completed)

	got, err := port.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)

	toggled, err := port.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	replaced, err := port.Replace(ctx, created.ID, "Buy oat milk", "2L", true)
	require.NoError(t, err)
	assert.Equal(t, "2L", replaced.Description)

	todos, err = port.List(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)

	require.NoError(t, port.Delete(ctx, created.ID))

	_, err = port.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, port.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestTodoAdapter_ValidationSurvivesHop(t *testing.T) {
	port := startTestApp(t)

	_, err := port.Create(context.Background(), "", "missing title")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
