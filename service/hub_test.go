package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeService struct {
	name     string
	deps     []string
	initErr  error
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(ctx context.Context) error {
	*f.log = append(*f.log, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}

func newHub(t *testing.T, svcs ...*fakeService) *Hub {
	t.Helper()
	h := NewHub()
	for _, s := range svcs {
		require.NoError(t, h.Register(s))
	}
	return h
}

// TestHubLifecycleOrder verifies dependency order for init/start and reverse order for stop
func TestHubLifecycleOrder(t *testing.T) {
	var log []string
	h := newHub(t,
		&fakeService{name: "watcher", deps: []string{"dispatcher"}, log: &log},
		&fakeService{name: "dispatcher", deps: []string{"metrics"}, log: &log},
		&fakeService{name: "metrics", log: &log},
	)

	require.NoError(t, h.InitAll(context.Background()))
	require.NoError(t, h.StartAll())
	require.NoError(t, h.StopAll())

	assert.Equal(t, []string{
		"init:metrics", "init:dispatcher", "init:watcher",
		"start:metrics", "start:dispatcher", "start:watcher",
		"stop:watcher", "stop:dispatcher", "stop:metrics",
	}, log)

	// Second StopAll is a no-op
	log = nil
	require.NoError(t, h.StopAll())
	assert.Empty(t, log)
}

// TestHubRegisterDuplicate verifies names are unique
func TestHubRegisterDuplicate(t *testing.T) {
	var log []string
	h := newHub(t, &fakeService{name: "a", log: &log})
	assert.Error(t, h.Register(&fakeService{name: "a", log: &log}))
	assert.Equal(t, []string{"a"}, h.Names())
}

// TestHubInitRollback verifies a failed Init stops the already-initialized services
func TestHubInitRollback(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	h := newHub(t,
		&fakeService{name: "a", log: &log},
		&fakeService{name: "b", deps: []string{"a"}, initErr: boom, log: &log},
	)

	err := h.InitAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init:a", "init:b", "stop:a"}, log)
	assert.Error(t, h.StartAll())
}

// TestHubStartRollback verifies a failed Start stops every initialized service
func TestHubStartRollback(t *testing.T) {
	var log []string
	boom := errors.New("no port")
	h := newHub(t,
		&fakeService{name: "a", log: &log},
		&fakeService{name: "b", deps: []string{"a"}, startErr: boom, log: &log},
	)

	require.NoError(t, h.InitAll(context.Background()))
	err := h.StartAll()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init:a", "init:b", "start:a", "start:b", "stop:b", "stop:a"}, log)
}

// TestHubStopAllAggregates verifies every service is stopped and all errors are returned
func TestHubStopAllAggregates(t *testing.T) {
	var log []string
	e1 := errors.New("first")
	e2 := errors.New("second")
	h := newHub(t,
		&fakeService{name: "a", stopErr: e1, log: &log},
		&fakeService{name: "b", stopErr: e2, log: &log},
	)

	require.NoError(t, h.InitAll(context.Background()))
	err := h.StopAll()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Equal(t, []string{"init:a", "init:b", "stop:b", "stop:a"}, log)
}

// TestHubDependencyErrors verifies unknown and circular dependencies are rejected
func TestHubDependencyErrors(t *testing.T) {
	var log []string
	missing := newHub(t, &fakeService{name: "a", deps: []string{"ghost"}, log: &log})
	assert.ErrorContains(t, missing.InitAll(context.Background()), "unregistered")

	cycle := newHub(t,
		&fakeService{name: "a", deps: []string{"b"}, log: &log},
		&fakeService{name: "b", deps: []string{"a"}, log: &log},
	)
	assert.ErrorContains(t, cycle.InitAll(context.Background()), "circular")
	assert.Empty(t, log)
}

// TestMustGet verifies typed lookup and its panics
func TestMustGet(t *testing.T) {
	var log []string
	h := newHub(t, &fakeService{name: "a", log: &log})

	got := MustGet[*fakeService](h, "a")
	assert.Equal(t, "a", got.Name())

	assert.Panics(t, func() { MustGet[*fakeService](h, "missing") })
	assert.Panics(t, func() { MustGet[*Hub](h, "a") })
}
