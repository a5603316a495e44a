package settlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrRejected is returned by executors that refuse an intent.
var ErrRejected = errors.New("intent rejected")

// Executor hands intents to the platform. An error means none of the
// request's effects may be kept.
type Executor interface {
	Execute(ctx context.Context, intents []Intent) error
}

// LoggerExecutor writes intents to the structured logger and accepts them.
type LoggerExecutor struct {
	logger *slog.Logger
}

// NewLoggerExecutor constructs a logging executor.
func NewLoggerExecutor(logger *slog.Logger) *LoggerExecutor {
	return &LoggerExecutor{logger: logger}
}

// Execute logs each intent.
func (e *LoggerExecutor) Execute(_ context.Context, intents []Intent) error {
	if e == nil || e.logger == nil {
		return nil
	}
	for _, in := range intents {
		attrs := []any{slog.String("id", in.ID), slog.String("kind", string(in.Kind))}
		switch {
		case in.Native != nil:
			attrs = append(attrs,
				slog.String("to", in.Native.To),
				slog.String("denom", in.Native.Denom),
				slog.String("amount", in.Native.Amount.String()))
		case in.Token != nil:
			attrs = append(attrs,
				slog.String("contract", in.Token.Contract),
				slog.String("method", in.Token.Method),
				slog.Any("args", in.Token.Args))
		}
		e.logger.Info("settlement intent", attrs...)
	}
	return nil
}

// Recorder keeps accepted intents in memory. An intent whose ID was already
// recorded is dropped, as the JetStream stream drops a duplicate message ID.
// Setting Fail makes every non-empty batch fail with ErrRejected.
type Recorder struct {
	mu      sync.Mutex
	intents []Intent
	seen    map[string]struct{}
	Fail    bool
}

// NewRecorder constructs an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{seen: make(map[string]struct{})}
}

// Execute records intents or rejects them when Fail is set.
func (r *Recorder) Execute(_ context.Context, intents []Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail && len(intents) > 0 {
		return ErrRejected
	}
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	for _, in := range intents {
		if _, dup := r.seen[in.ID]; dup {
			continue
		}
		r.seen[in.ID] = struct{}{}
		r.intents = append(r.intents, in)
	}
	return nil
}

// Intents returns a copy of everything recorded so far.
func (r *Recorder) Intents() []Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Intent, len(r.intents))
	copy(out, r.intents)
	return out
}
