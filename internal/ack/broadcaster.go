package ack

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/model"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultEarlyExit = 2 * time.Second
)

// Result is the terminal state of one broadcast. A timeout is a result, not
// an error: Success then only says whether anybody answered.
type Result struct {
	CommandID string            `json:"commandId"`
	Success   bool              `json:"success"`
	TimedOut  bool              `json:"timedOut"`
	Responses []json.RawMessage `json:"responses"`
	Timeout   time.Duration     `json:"-"`
}

// Recorder persists broadcast outcomes.
type Recorder interface {
	RecordCommand(ctx context.Context, entry model.CommandLogEntry) error
}

type Options struct {
	Timeout   time.Duration
	EarlyExit time.Duration
	Guard     Guard
	Recorder  Recorder
}

// Broadcaster sends commands over a Channel and counts acknowledgments.
type Broadcaster struct {
	ch        Channel
	timeout   time.Duration
	earlyExit time.Duration
	guard     Guard
	recorder  Recorder
}

func NewBroadcaster(ch Channel, opts Options) *Broadcaster {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.EarlyExit <= 0 {
		opts.EarlyExit = DefaultEarlyExit
	}
	return &Broadcaster{
		ch:        ch,
		timeout:   opts.Timeout,
		earlyExit: opts.EarlyExit,
		guard:     opts.Guard,
		recorder:  opts.Recorder,
	}
}

// Reload asks every display to reload its configuration.
func (b *Broadcaster) Reload(ctx context.Context, reason string, timeout time.Duration) (Result, error) {
	return b.Broadcast(ctx, NewCommand(model.CommandReload, reason, ""), timeout)
}

// Announce pushes a text announcement to every display.
func (b *Broadcaster) Announce(ctx context.Context, text string, timeout time.Duration) (Result, error) {
	return b.Broadcast(ctx, NewCommand(model.CommandAnnounce, "", text), timeout)
}

// NewCommand stamps a command with a fresh id and the current time.
func NewCommand(kind model.CommandKind, reason, text string) model.Command {
	return model.Command{
		ID:        uuid.NewString(),
		Kind:      kind,
		Reason:    reason,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// session collects acks for one broadcast until it is closed.
type session struct {
	mu        sync.Mutex
	responses []json.RawMessage
	closed    bool
}

func (s *session) add(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.responses = append(s.responses, append(json.RawMessage(nil), payload...))
}

func (s *session) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// close stops counting and returns what arrived.
func (s *session) close() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	out := make([]json.RawMessage, len(s.responses))
	copy(out, s.responses)
	return out
}

// Broadcast emits cmd and waits for acknowledgments.
//
// If at least one ack has arrived when the early-exit checkpoint fires, the
// result resolves immediately with TimedOut false. Otherwise it resolves
// when timeout elapses, with Success reporting whether any ack arrived. A
// timeout <= 0 uses the configured default. Cancelling ctx abandons the
// session and returns ctx.Err(). The ack listener is detached on every path.
func (b *Broadcaster) Broadcast(ctx context.Context, cmd model.Command, timeout time.Duration) (Result, error) {
	if !b.ch.Connected() {
		return Result{}, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = b.timeout
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}

	if b.guard != nil {
		release, err := b.guard.Acquire(ctx, string(cmd.Kind), timeout+b.earlyExit)
		if err != nil {
			return Result{}, err
		}
		defer release()
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("encode command: %w", err)
	}

	s := &session{}
	off := b.ch.On(EventAck, s.add)
	defer off()

	if err := b.ch.Emit(EventBroadcast, payload); err != nil {
		s.close()
		return Result{}, fmt.Errorf("emit %s: %w", cmd.Kind, err)
	}

	early := time.NewTimer(b.earlyExit)
	defer early.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	res := Result{CommandID: cmd.ID, Timeout: timeout}
	for {
		select {
		case <-ctx.Done():
			s.close()
			log.Warn().Str("command_id", cmd.ID).Str("kind", string(cmd.Kind)).Msg("broadcast abandoned")
			return Result{}, ctx.Err()
		case <-early.C:
			if s.count() == 0 {
				continue
			}
			res.Responses = s.close()
			res.Success = true
		case <-deadline.C:
			res.Responses = s.close()
			res.Success = len(res.Responses) > 0
			res.TimedOut = true
		}
		break
	}

	log.Info().
		Str("command_id", cmd.ID).
		Str("kind", string(cmd.Kind)).
		Int("responses", len(res.Responses)).
		Bool("timed_out", res.TimedOut).
		Msg("broadcast resolved")

	b.record(ctx, cmd, payload, res)
	return res, nil
}

func (b *Broadcaster) record(ctx context.Context, cmd model.Command, payload []byte, res Result) {
	if b.recorder == nil {
		return
	}
	entry := model.CommandLogEntry{
		CommandID: cmd.ID,
		Kind:      string(cmd.Kind),
		Message:   Summarize(res).Message,
		Success:   res.Success,
		TimedOut:  res.TimedOut,
		Responses: len(res.Responses),
		Payload:   payload,
		SentAt:    cmd.Timestamp,
	}
	if err := b.recorder.RecordCommand(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("command_id", cmd.ID).Msg("failed to record broadcast")
	}
}
