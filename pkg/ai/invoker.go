package ai

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/tools"
)

const (
	DefaultMaxSteps = 5
	DefaultTimeout  = 60 * time.Second
)

/*
Invoker turns an incoming message into a completion request and hands
back the final text and per-turn steps. It never touches the task store.
*/
type Invoker struct {
	provider provider.Interface
	tools    *tools.Registry
	system   string
	maxSteps int
	timeout  time.Duration
}

func NewInvoker(prvdr provider.Interface, registry *tools.Registry) *Invoker {
	return &Invoker{
		provider: prvdr,
		tools:    registry,
		maxSteps: DefaultMaxSteps,
		timeout:  DefaultTimeout,
	}
}

/*
Invoke calls the completion service under the invoker's timeout. Every
failure comes back as *errors.CompletionError.
*/
func (invoker *Invoker) Invoke(
	ctx context.Context, msg a2a.Message,
) (provider.Response, error) {
	if invoker.provider == nil {
		return provider.Response{}, errors.NewCompletionError("none", errors.ErrMissingProvider{})
	}

	if invoker.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, invoker.timeout)
		defer cancel()
	}

	req := invoker.request(msg)
	start := time.Now()

	response, err := invoker.provider.Complete(ctx, req)

	if err != nil {
		log.Error(
			"completion failed",
			"provider", invoker.provider.Name(),
			"elapsed", time.Since(start),
			"error", err,
		)

		var completionErr *errors.CompletionError

		if !stderrors.As(err, &completionErr) {
			completionErr = errors.NewCompletionError(invoker.provider.Name(), err)
		}

		return provider.Response{}, completionErr
	}

	log.Info(
		"completion finished",
		"provider", invoker.provider.Name(),
		"steps", len(response.Steps),
		"elapsed", time.Since(start),
	)

	return response, nil
}

func (invoker *Invoker) request(msg a2a.Message) provider.Request {
	role := provider.RoleSystem

	if msg.Role == a2a.RoleUser {
		role = provider.RoleUser
	}

	segments := make([]provider.Segment, 0, len(msg.Parts))

	for _, part := range msg.Parts {
		text := ""

		if part.Type == a2a.PartTypeText {
			text = part.Text
		}

		segments = append(segments, provider.Segment{Role: role, Text: text})
	}

	return provider.Request{
		System:   invoker.system,
		Segments: segments,
		Tools:    invoker.tools,
		MaxSteps: invoker.maxSteps,
	}
}
