package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlspress/hlspress/internal/config"
	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
)

type receivedRequest struct {
	event     string
	signature string
	body      []byte
}

type receiver struct {
	mu       sync.Mutex
	requests []receivedRequest
	got      chan struct{}
}

func newReceiver() *receiver {
	return &receiver{got: make(chan struct{}, 16)}
}

func (r *receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, receivedRequest{
		event:     req.Header.Get("X-Webhook-Event"),
		signature: req.Header.Get("X-Webhook-Signature"),
		body:      body,
	})
	r.mu.Unlock()
	r.got <- struct{}{}
	w.WriteHeader(http.StatusOK)
}

func (r *receiver) wait(t *testing.T) receivedRequest {
	t.Helper()
	select {
	case <-r.got:
	case <-time.After(5 * time.Second):
		t.Fatal("no webhook delivered")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func TestDeliversTerminalEvents(t *testing.T) {
	recv := newReceiver()
	server := httptest.NewServer(recv)
	defer server.Close()

	svc := NewService([]config.WebhookEndpoint{{URL: server.URL, Secret: "topsecret"}}, logging.NewNop())

	svc.Emit(events.EventJobComplete, events.CompletePayload{
		JobID:       7,
		PlaylistURL: "/outputs/7/master.m3u8",
	})

	got := recv.wait(t)
	assert.Equal(t, events.EventJobComplete, got.event)
	assert.Equal(t, Sign(got.body, "topsecret"), got.signature)

	var envelope Event
	require.NoError(t, json.Unmarshal(got.body, &envelope))
	assert.NotEmpty(t, envelope.ID)
	assert.Equal(t, events.EventJobComplete, envelope.Event)
	assert.False(t, envelope.Timestamp.IsZero())

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"jobId":7`)
}

func TestIgnoresNonTerminalEvents(t *testing.T) {
	recv := newReceiver()
	server := httptest.NewServer(recv)
	defer server.Close()

	svc := NewService([]config.WebhookEndpoint{{URL: server.URL}}, logging.NewNop())

	svc.Emit(events.EventJobProgress, events.ProgressPayload{JobID: 7, Percent: 50})
	svc.Emit(events.EventVideoList, nil)
	svc.Emit(events.EventVideoAdded, nil)

	select {
	case <-recv.got:
		t.Fatal("non-terminal event was delivered as a webhook")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnsignedWhenNoSecret(t *testing.T) {
	recv := newReceiver()
	server := httptest.NewServer(recv)
	defer server.Close()

	svc := NewService([]config.WebhookEndpoint{{URL: server.URL}}, logging.NewNop())
	svc.Emit(events.EventJobFailed, events.FailurePayload{JobID: 3, Error: "boom"})

	got := recv.wait(t)
	assert.Equal(t, events.EventJobFailed, got.event)
	assert.Empty(t, got.signature)
}

func TestRetriesFailedDelivery(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts++
		failFirst := attempts == 1
		mu.Unlock()
		if failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		done <- struct{}{}
	}))
	defer server.Close()

	svc := NewService([]config.WebhookEndpoint{{URL: server.URL}}, logging.NewNop())
	svc.Emit(events.EventJobComplete, events.CompletePayload{JobID: 1})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("delivery was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestSign(t *testing.T) {
	sig := Sign([]byte(`{"jobId":1}`), "secret")
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)

	// deterministic and secret-dependent
	assert.Equal(t, sig, Sign([]byte(`{"jobId":1}`), "secret"))
	assert.NotEqual(t, sig, Sign([]byte(`{"jobId":1}`), "other"))
}
