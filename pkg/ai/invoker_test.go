package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/tools"
)

func TestInvokerRequest(t *testing.T) {
	registry := tools.NewRegistry(tools.NewDice().Tool())
	invoker := NewInvoker(&fakeProvider{}, registry)
	invoker.system = "You roll dice."

	msg := a2a.Message{
		Role: a2a.RoleUser,
		Parts: []a2a.Part{
			a2a.NewTextPart("roll"),
			a2a.NewDataPart(a2a.Metadata{"faces": 6}),
			a2a.NewTextPart("a d6"),
		},
	}

	req := invoker.request(msg)

	assert.Equal(t, "You roll dice.", req.System)
	assert.Equal(t, DefaultMaxSteps, req.MaxSteps)
	assert.Same(t, registry, req.Tools)
	assert.Equal(t, []provider.Segment{
		{Role: provider.RoleUser, Text: "roll"},
		{Role: provider.RoleUser, Text: ""},
		{Role: provider.RoleUser, Text: "a d6"},
	}, req.Segments)

	msg.Role = a2a.RoleAgent
	req = invoker.request(msg)

	for _, segment := range req.Segments {
		assert.Equal(t, provider.RoleSystem, segment.Role)
	}
}

func TestInvokerWrapsFailures(t *testing.T) {
	cause := stderrors.New("malformed response")
	invoker := NewInvoker(&fakeProvider{
		complete: func(ctx context.Context, req provider.Request) (provider.Response, error) {
			return provider.Response{}, cause
		},
	}, nil)

	_, err := invoker.Invoke(context.Background(), *userMessage("roll"))

	var completionErr *errors.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, "fake", completionErr.Provider)
	assert.ErrorIs(t, err, cause)

	var rpcErr *errors.RpcError
	assert.False(t, stderrors.As(err, &rpcErr))
}

func TestInvokerKeepsCompletionErrors(t *testing.T) {
	original := errors.NewCompletionError("google", stderrors.New("quota"))
	invoker := NewInvoker(&fakeProvider{
		complete: func(ctx context.Context, req provider.Request) (provider.Response, error) {
			return provider.Response{}, original
		},
	}, nil)

	_, err := invoker.Invoke(context.Background(), *userMessage("roll"))

	assert.Same(t, original, err)
}

func TestInvokerWithoutProvider(t *testing.T) {
	_, err := NewInvoker(nil, nil).Invoke(context.Background(), *userMessage("roll"))

	var completionErr *errors.CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("a")
	unlockB := km.Lock("b")
	assert.Equal(t, 2, km.len())

	acquired := make(chan struct{})

	go func() {
		unlock := km.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a locked id")
	default:
	}

	unlockA()
	<-acquired
	unlockB()

	assert.Eventually(t, func() bool { return km.len() == 0 }, time.Second, time.Millisecond)
}
