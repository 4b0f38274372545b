package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestHTTPSMSSender_Success(t *testing.T) {
	var got smsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSMSSender(srv.URL, "secret", "MARKET", time.Second)
	err := sender.SendSMS(context.Background(), "+15550001", "hello")

	require.NoError(t, err)
	assert.Equal(t, smsRequest{From: "MARKET", To: "+15550001", Body: "hello"}, got)
}

func TestHTTPSMSSender_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewHTTPSMSSender(srv.URL, "secret", "MARKET", time.Second)
	for i := 0; i < 5; i++ {
		err := sender.SendSMS(context.Background(), "+1", "x")
		require.ErrorContains(t, err, "502")
	}

	err := sender.SendSMS(context.Background(), "+1", "x")
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load(), "open breaker must not call the provider")
}

type mockDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *mockDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	dialer := &mockDialer{}
	sender := &SMTPSender{dialer: dialer, from: "shop@example.com"}

	require.NoError(t, sender.SendEmail(context.Background(), "ada@example.com", "Hi", "body"))

	require.Len(t, dialer.sent, 1)
	assert.Equal(t, []string{"shop@example.com"}, dialer.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, dialer.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, dialer.sent[0].GetHeader("Subject"))
}

func TestSMTPSender_PropagatesError(t *testing.T) {
	sender := &SMTPSender{dialer: &mockDialer{err: errors.New("auth failed")}, from: "x@example.com"}

	err := sender.SendEmail(context.Background(), "ada@example.com", "Hi", "body")
	assert.EqualError(t, err, "auth failed")
}

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByRecipient(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), "cust-1", "order_status_update", map[string]string{"order_id": "ORD1"})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "cust-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order_status_update", string(msg.Headers[0].Value))

	var env map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "order_status_update", env["event"])
	assert.Equal(t, "cust-1", env["recipient_id"])
	assert.Equal(t, map[string]any{"order_id": "ORD1"}, env["data"])
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &mockWriter{err: errors.New("no brokers")}}

	err := p.Publish(context.Background(), "cust-1", "welcome", nil)
	assert.ErrorContains(t, err, "no brokers")
}
