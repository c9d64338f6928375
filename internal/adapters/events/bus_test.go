package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvkup/avnmusicstudio/internal/core/domain"
)

func TestBus_PublishEncodesJSON(t *testing.T) {
	bus := NewGoChannelBus(0, nil)
	defer bus.Close()

	ctx := context.Background()
	ch, err := bus.Subscribe(ctx, "test.topic")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "test.topic", map[string]string{"hello": "studio"}))

	select {
	case msg := <-ch:
		assert.NotEmpty(t, msg.UUID)
		assert.JSONEq(t, `{"hello":"studio"}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestBus_PublishRejectsUnencodablePayload(t *testing.T) {
	bus := NewGoChannelBus(10, nil)
	defer bus.Close()

	err := bus.Publish(context.Background(), "test.topic", make(chan int))
	assert.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestListenForLeads_DeliversEvents(t *testing.T) {
	bus := NewGoChannelBus(10, nil)
	logger := slog.New(slog.NewJSONHandler(&syncBuffer{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domain.LeadSubmittedEvent, 1)
	done, err := ListenForLeads(ctx, bus, func(_ context.Context, event domain.LeadSubmittedEvent) error {
		received <- event
		return nil
	}, logger)
	require.NoError(t, err)

	event := domain.LeadSubmittedEvent{
		LeadID:      "665f1c2e9b1d4a0012345678",
		Name:        "Asha Rao",
		EnquiryType: "Recording",
		SubmittedAt: time.Date(2024, 6, 23, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, bus.Publish(ctx, domain.TopicLeadSubmitted, event))

	select {
	case got := <-received:
		assert.Equal(t, event.LeadID, got.LeadID)
		assert.True(t, event.SubmittedAt.Equal(got.SubmittedAt))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for lead event")
	}

	require.NoError(t, bus.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop after close")
	}
}

func TestLogLeads(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, nil))

	err := LogLeads(logger)(context.Background(), domain.LeadSubmittedEvent{LeadID: "abc", EnquiryType: "Other"})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.String()), &line))
	assert.Equal(t, "new lead received", line["msg"])
	assert.Equal(t, "abc", line["lead_id"])
	assert.Equal(t, "Other", line["enquiry_type"])
}

func TestListenForLeads_SkipsMalformedPayloads(t *testing.T) {
	bus := NewGoChannelBus(10, nil)
	defer bus.Close()
	out := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(out, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 2)
	_, err := ListenForLeads(ctx, bus, func(_ context.Context, event domain.LeadSubmittedEvent) error {
		received <- event.LeadID
		return nil
	}, logger)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, domain.TopicLeadSubmitted, "not an object"))
	require.NoError(t, bus.Publish(ctx, domain.TopicLeadSubmitted, domain.LeadSubmittedEvent{LeadID: "ok"}))

	select {
	case id := <-received:
		assert.Equal(t, "ok", id)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for valid lead event")
	}
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "dropping malformed lead event")
	}, time.Second, 10*time.Millisecond)
}
