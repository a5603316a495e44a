package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/vault/internal/amount"
)

type published struct {
	subject string
	payload []byte
}

type fakeJetStream struct {
	msgs   []published
	failOn int
	calls  int
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return nil, errors.New("nats unavailable")
	}
	f.msgs = append(f.msgs, published{subject: subject, payload: payload})
	return &jetstream.PubAck{Stream: StreamName, Sequence: uint64(len(f.msgs))}, nil
}

func TestIntentConstructors(t *testing.T) {
	n := NewNativeTransfer("bob", "uusd", amount.New(50))
	require.Equal(t, KindNativeTransfer, n.Kind)
	require.NotEmpty(t, n.ID)
	require.Nil(t, n.Token)
	require.Equal(t, "50", n.Native.Amount.String())

	tr := NewTokenTransfer("token1", "bob", amount.New(7))
	require.Equal(t, KindTokenCall, tr.Kind)
	require.Equal(t, MethodTransfer, tr.Token.Method)
	require.Equal(t, map[string]string{"recipient": "bob", "amount": "7"}, tr.Token.Args)

	tf := NewTokenTransferFrom("token1", "alice", "custody", amount.New(9))
	require.Equal(t, MethodTransferFrom, tf.Token.Method)
	require.Equal(t, "alice", tf.Token.Args["owner"])
	require.Equal(t, "custody", tf.Token.Args["recipient"])
	require.NotEqual(t, tr.ID, tf.ID)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	require.NoError(t, r.Execute(ctx, []Intent{NewNativeTransfer("a", "uusd", amount.New(1))}))
	require.Len(t, r.Intents(), 1)

	r.Fail = true
	require.NoError(t, r.Execute(ctx, nil))
	err := r.Execute(ctx, []Intent{NewNativeTransfer("a", "uusd", amount.New(1))})
	require.ErrorIs(t, err, ErrRejected)
	require.Len(t, r.Intents(), 1)
}

func TestRecorderDropsDuplicateIDs(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	in := NewNativeTransfer("bob", "uusd", amount.New(5))
	require.NoError(t, r.Execute(ctx, []Intent{in}))
	require.NoError(t, r.Execute(ctx, []Intent{in}))
	require.Len(t, r.Intents(), 1)
}

func TestDeriveID(t *testing.T) {
	pay := NewNativeTransfer("bob", "uusd", amount.New(5))
	again := NewNativeTransfer("bob", "uusd", amount.New(5))
	require.NotEqual(t, pay.ID, again.ID)

	id := pay.DeriveID("alice/key-1", 0)
	require.Equal(t, id, again.DeriveID("alice/key-1", 0))
	require.NotEqual(t, id, pay.DeriveID("alice/key-1", 1))
	require.NotEqual(t, id, pay.DeriveID("alice/key-2", 0))
	require.NotEqual(t, id, pay.DeriveID("carol/key-1", 0))

	other := NewNativeTransfer("bob", "uusd", amount.New(6))
	require.NotEqual(t, id, other.DeriveID("alice/key-1", 0))

	tf := NewTokenTransferFrom("token1", "alice", "custody", amount.New(9))
	require.Equal(t, tf.DeriveID("s", 0), NewTokenTransferFrom("token1", "alice", "custody", amount.New(9)).DeriveID("s", 0))
}

func TestLoggerExecutor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := NewLoggerExecutor(logger)

	err := e.Execute(context.Background(), []Intent{
		NewNativeTransfer("bob", "uusd", amount.New(3)),
		NewTokenTransfer("token1", "bob", amount.New(4)),
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"denom":"uusd"`)
	require.Contains(t, lines[1], `"method":"transfer"`)

	var nilExec *LoggerExecutor
	require.NoError(t, nilExec.Execute(context.Background(), []Intent{{}}))
}

func TestPublisher(t *testing.T) {
	js := &fakeJetStream{}
	p := NewPublisher(js)
	intents := []Intent{
		NewNativeTransfer("bob", "uusd", amount.New(3)),
		NewTokenTransfer("token1", "bob", amount.New(4)),
	}
	require.NoError(t, p.Execute(context.Background(), intents))
	require.Len(t, js.msgs, 2)
	require.Equal(t, "vault.intents.native_transfer", js.msgs[0].subject)
	require.Equal(t, "vault.intents.token_call", js.msgs[1].subject)

	var decoded Intent
	require.NoError(t, json.Unmarshal(js.msgs[0].payload, &decoded))
	require.Equal(t, intents[0].ID, decoded.ID)
	require.Equal(t, "3", decoded.Native.Amount.String())
}

func TestPublisherStopsOnFailure(t *testing.T) {
	js := &fakeJetStream{failOn: 1}
	p := NewPublisher(js)
	err := p.Execute(context.Background(), []Intent{
		NewNativeTransfer("bob", "uusd", amount.New(3)),
		NewNativeTransfer("bob", "uusd", amount.New(4)),
	})
	require.Error(t, err)
	require.Empty(t, js.msgs)
	require.Equal(t, 1, js.calls)
}
