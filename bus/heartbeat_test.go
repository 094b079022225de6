package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/msdsim/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingStatus struct {
	mu   sync.Mutex
	sigs []event.StatusSignal
	err  error
}

func (r *recordingStatus) PublishStatusSignal(_ context.Context, sig event.StatusSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sigs = append(r.sigs, sig)

	return r.err
}

func (r *recordingStatus) signals() []event.StatusSignal {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]event.StatusSignal(nil), r.sigs...)
}

func TestHeartbeatSignalsUntilStopped(t *testing.T) {
	rec := &recordingStatus{}
	h := NewHeartbeat(rec, "msd", time.Millisecond)

	require.True(t, h.Start(context.Background()))
	assert.False(t, h.Start(context.Background()), "already running")
	require.Eventually(t, func() bool { return len(rec.signals()) >= 3 }, time.Second, time.Millisecond)

	h.Stop(context.Background())
	sigs := rec.signals()
	last := sigs[len(sigs)-1]
	assert.Equal(t, event.StatusStopping, last.Status)
	for _, sig := range sigs[:len(sigs)-1] {
		assert.Equal(t, event.StatusRunning, sig.Status)
	}
	for _, sig := range sigs {
		assert.Equal(t, "msd", sig.Service)
		assert.Equal(t, h.InstanceID(), sig.InstanceID)
	}

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, rec.signals(), len(sigs), "nothing is sent after stop")

	h.Stop(context.Background())
	assert.Len(t, rec.signals(), len(sigs), "second stop is a no-op")
}

func TestHeartbeatSendsFirstSignalOnStart(t *testing.T) {
	rec := &recordingStatus{}
	h := NewHeartbeat(rec, "msd", time.Hour)
	defer h.Stop(context.Background())

	require.True(t, h.Start(context.Background()))
	sigs := rec.signals()
	require.Len(t, sigs, 1)
	assert.Equal(t, event.StatusRunning, sigs[0].Status)
}

func TestHeartbeatKeepsGoingOnErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := &recordingStatus{err: errors.New("nats: no responders")}
	h := NewHeartbeat(rec, "msd", time.Millisecond, WithLogger(zap.New(core)))

	require.True(t, h.Start(context.Background()))
	require.Eventually(t, func() bool { return len(rec.signals()) >= 3 }, time.Second, time.Millisecond)
	h.Stop(context.Background())

	assert.GreaterOrEqual(t, logs.FilterMessage("status signal not sent").Len(), 3)
}

func TestPublisherPublishStatusSignal(t *testing.T) {
	js := &fakeJetStream{}
	p := NewPublisher(js, "appsist.event")

	sig := event.NewStatusSignal("msd", "inst-1", event.StatusRunning)
	require.NoError(t, p.PublishStatusSignal(context.Background(), sig))

	require.Len(t, js.msgs, 1)
	assert.Equal(t, "appsist.event.statusSignal", js.msgs[0].Subject)

	var got event.StatusSignal
	require.NoError(t, json.Unmarshal(js.msgs[0].Data, &got))
	assert.Equal(t, sig.ID, got.ID)
	assert.Equal(t, "inst-1", got.InstanceID)
	assert.True(t, sig.Timestamp.Equal(got.Timestamp))
}

func TestNewHeartbeatRejectsInvalidArguments(t *testing.T) {
	assert.Panics(t, func() { NewHeartbeat(nil, "msd", time.Second) })
	assert.Panics(t, func() { NewHeartbeat(&recordingStatus{}, "msd", 0) })
}
