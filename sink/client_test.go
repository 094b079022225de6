package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/msdsim/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type received struct {
	path        string
	contentType string
	traceparent string
	body        []byte
}

func newSinkServer(t *testing.T, status int) (*httptest.Server, func() []received) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []received
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, received{
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			traceparent: r.Header.Get("traceparent"),
			body:        body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()

		return append([]received(nil), reqs...)
	}
}

func sampleSchema() machine.Schema {
	return machine.Schema{
		Machine:   machine.Identity{VendorID: "MBB", MachineID: "MVM700", SerialNumber: "MVM700T-009"},
		StationID: "1",
		SiteID:    "TAL01",
		Fields: []machine.FieldSpec{
			{Name: "Tuer offen", ValueType: machine.Bool, VisualizationType: machine.OnOffLight, VisualizationLevel: machine.Overview},
		},
	}
}

func TestClientSendsJSON(t *testing.T) {
	srv, reqs := newSinkServer(t, http.StatusOK)
	c := New(srv.URL+"/services/mid", WithTimeout(time.Second))

	s := sampleSchema()
	require.NoError(t, c.SendSchema(context.Background(), machine.NewSchemaMessage(s)))
	require.NoError(t, c.SendData(context.Background(), machine.NewDataMessage(machine.Data{
		Machine: s.Machine,
		Values:  map[string]any{"Tuer offen": true},
	})))

	got := reqs()
	require.Len(t, got, 2)
	assert.Equal(t, "/services/mid/schema", got[0].path)
	assert.Equal(t, "/services/mid/data", got[1].path)
	assert.Equal(t, "application/json", got[0].contentType)

	var data machine.DataMessage
	require.NoError(t, json.Unmarshal(got[1].body, &data))
	require.Len(t, data.MachineData, 1)
	assert.Equal(t, true, data.MachineData[0].Values["Tuer offen"])
}

func TestClientSendsMsgPack(t *testing.T) {
	srv, reqs := newSinkServer(t, http.StatusNoContent)
	c := New(srv.URL, WithContentType(MsgPack))

	require.NoError(t, c.SendSchema(context.Background(), machine.NewSchemaMessage(sampleSchema())))

	got := reqs()
	require.Len(t, got, 1)
	assert.Equal(t, "application/msgpack", got[0].contentType)

	var msg machine.SchemaMessage
	require.NoError(t, msgpack.Unmarshal(got[0].body, &msg))
	require.Len(t, msg.Schemas, 1)
	assert.Equal(t, "TAL01", msg.Schemas[0].SiteID)
}

func TestClientErrorStatus(t *testing.T) {
	srv, reqs := newSinkServer(t, http.StatusServiceUnavailable)
	c := New(srv.URL)

	err := c.SendData(context.Background(), machine.NewDataMessage())
	require.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "503")
	assert.Len(t, reqs(), 1, "no retry")
}

func TestClientUnreachable(t *testing.T) {
	srv, _ := newSinkServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	err := New(url, WithTimeout(200*time.Millisecond)).SendSchema(context.Background(), machine.NewSchemaMessage())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestClientPropagatesTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	srv, reqs := newSinkServer(t, http.StatusOK)
	c := New(srv.URL)

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish mbb")
	require.NoError(t, c.SendSchema(ctx, machine.NewSchemaMessage(sampleSchema())))
	span.End()

	got := reqs()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].traceparent, span.SpanContext().TraceID().String())
	assert.GreaterOrEqual(t, len(exporter.GetSpans()), 2, "client span recorded alongside the parent")
}
