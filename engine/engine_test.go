package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/msdsim/machine"
	"github.com/arloliu/msdsim/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	schema *machine.Schema
	data   machine.Data
}

// recordingPublisher keeps every publish in order.
type recordingPublisher struct {
	mu    sync.Mutex
	items []published
	block chan struct{}
}

func (p *recordingPublisher) Publish(_ context.Context, schema *machine.Schema, data machine.Data) {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, published{schema: schema, data: data})
}

func (p *recordingPublisher) All() []published {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]published(nil), p.items...)
}

func setupEngineTest(t *testing.T, autosend bool) (*Engine, *recordingPublisher) {
	t.Helper()

	pub := &recordingPublisher{}
	e := New(pub)
	t.Cleanup(e.Close)
	require.NoError(t, e.Init(context.Background(), autosend))

	return e, pub
}

func TestRequestsBeforeInit(t *testing.T) {
	pub := &recordingPublisher{}
	e := New(pub)
	defer e.Close()

	assert.False(t, e.Initialized())
	assert.ErrorIs(t, e.Apply(context.Background(), scenario.MBB, func(*scenario.State) {}), ErrUninitialized)
	assert.ErrorIs(t, e.Publish(context.Background(), scenario.Pilot), ErrUninitialized)
	_, err := e.Snapshot(context.Background(), scenario.Cebit)
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.Empty(t, pub.All())
}

func TestInitAutosend(t *testing.T) {
	e, pub := setupEngineTest(t, true)

	assert.True(t, e.Initialized())
	items := pub.All()
	require.Len(t, items, 3)
	for _, it := range items {
		assert.NoError(t, it.schema.Validate(it.data))
	}

	require.NoError(t, e.Init(context.Background(), true))
	assert.Len(t, pub.All(), 3, "second Init is a no-op")
}

func TestInitWithoutAutosend(t *testing.T) {
	e, pub := setupEngineTest(t, false)

	assert.True(t, e.Initialized())
	assert.Empty(t, pub.All())

	data, err := e.Snapshot(context.Background(), scenario.MBB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), data.Values[scenario.FieldPartCounter])
	assert.Empty(t, pub.All(), "snapshot does not publish")
}

func TestUnknownScenario(t *testing.T) {
	e, _ := setupEngineTest(t, false)

	err := e.Apply(context.Background(), "lathe", func(*scenario.State) {})
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestApplyPublishesMutatedState(t *testing.T) {
	e, pub := setupEngineTest(t, false)

	err := e.Apply(context.Background(), scenario.MBB, func(s *scenario.State) {
		s.Set(scenario.FieldMBBDoorOpen, true)
	})
	require.NoError(t, err)

	items := pub.All()
	require.Len(t, items, 1)
	assert.Equal(t, "MVM700", items[0].schema.Machine.MachineID)
	assert.Equal(t, true, items[0].data.Values[scenario.FieldMBBDoorOpen])
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	e, pub := setupEngineTest(t, false)

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Apply(context.Background(), scenario.MBB, func(s *scenario.State) {
				v, _ := s.Get(scenario.FieldPartCounter)
				s.Set(scenario.FieldPartCounter, v.(int64)+1)
			})
		}()
	}
	wg.Wait()

	data, err := e.Snapshot(context.Background(), scenario.MBB)
	require.NoError(t, err)
	assert.Equal(t, int64(2+n), data.Values[scenario.FieldPartCounter])

	seen := map[int64]bool{}
	for _, it := range pub.All() {
		seen[it.data.Values[scenario.FieldPartCounter].(int64)] = true
	}
	assert.Len(t, seen, n, "every publish observed a distinct complete update")
}

func TestCancelledRequestStillCompletes(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	e := New(pub, WithDefinitions(scenario.MBBScenario()))
	t.Cleanup(e.Close)
	require.NoError(t, e.Init(context.Background(), false))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Apply(ctx, scenario.MBB, func(s *scenario.State) { s.Set(scenario.FieldManualMode, true) })
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(pub.block)
	require.Eventually(t, func() bool { return len(pub.All()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, true, pub.All()[0].data.Values[scenario.FieldManualMode])
}

func TestClose(t *testing.T) {
	pub := &recordingPublisher{}
	e := New(pub)
	require.NoError(t, e.Init(context.Background(), false))

	e.Close()
	e.Close()

	assert.ErrorIs(t, e.Publish(context.Background(), scenario.Pilot), ErrClosed)
	assert.ErrorIs(t, e.Init(context.Background(), true), ErrClosed)
}

func TestNewRequiresPublisher(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}
