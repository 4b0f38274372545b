package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type RealtimePublisher interface {
	Publish(ctx context.Context, recipientID string, event string, payload any) error
}

// ChannelResult is the outcome of one delivery channel. Skipped means the
// recipient has no address for the channel or the channel is not configured.
type ChannelResult struct {
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Result struct {
	Email    ChannelResult `json:"email"`
	SMS      ChannelResult `json:"sms"`
	Realtime ChannelResult `json:"realtime"`
}

// Delivered reports whether at least one channel got the message out.
func (r Result) Delivered() bool {
	return r.Email.Success || r.SMS.Success || r.Realtime.Success
}

// Dispatcher fans a notification out to every channel. Delivery is best
// effort: a failed channel is logged and reported, never retried.
type Dispatcher struct {
	email    EmailSender
	sms      SMSSender
	realtime RealtimePublisher
}

// NewDispatcher accepts nil for channels that are not configured.
func NewDispatcher(email EmailSender, sms SMSSender, realtime RealtimePublisher) *Dispatcher {
	return &Dispatcher{email: email, sms: sms, realtime: realtime}
}

func (d *Dispatcher) dispatch(ctx context.Context, m message) Result {
	var res Result
	var g errgroup.Group

	g.Go(func() error {
		if d.email == nil || m.email == "" {
			res.Email = ChannelResult{Skipped: true}
			return nil
		}
		res.Email = outcome(ctx, m, "email", d.email.SendEmail(ctx, m.email, m.subject, m.body))
		return nil
	})
	g.Go(func() error {
		if d.sms == nil || m.phone == "" || m.sms == "" {
			res.SMS = ChannelResult{Skipped: true}
			return nil
		}
		res.SMS = outcome(ctx, m, "sms", d.sms.SendSMS(ctx, m.phone, m.sms))
		return nil
	})
	g.Go(func() error {
		if d.realtime == nil || m.recipientID == "" {
			res.Realtime = ChannelResult{Skipped: true}
			return nil
		}
		res.Realtime = outcome(ctx, m, "realtime", d.realtime.Publish(ctx, m.recipientID, string(m.event), m.payload))
		return nil
	})

	_ = g.Wait()
	return res
}

func outcome(ctx context.Context, m message, channel string, err error) ChannelResult {
	if err != nil {
		slog.WarnContext(ctx, "notification delivery failed",
			"event", m.event, "channel", channel, "recipient", m.recipientID, "error", err)
		return ChannelResult{Error: err.Error()}
	}
	return ChannelResult{Success: true}
}
