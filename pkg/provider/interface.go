package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/theapemachine/dice-agent/pkg/tools"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

/*
Interface is the completion service the agent delegates to. Complete
runs the whole exchange, including any tool calls, and returns the final
text together with one Step per model turn.
*/
type Interface interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Segment is one role-tagged piece of prompt text.
type Segment struct {
	Role string
	Text string
}

type Request struct {
	System   string
	Segments []Segment
	Tools    *tools.Registry
	// MaxSteps bounds the number of model turns. When the bound is hit
	// the last turn's text is returned as the answer.
	MaxSteps int
}

type ToolCall struct {
	Name   string
	Args   map[string]any
	Result string
}

type Step struct {
	Text      string
	ToolCalls []ToolCall
}

type Response struct {
	Text  string
	Steps []Step
}

/*
newStep records one model turn. A turn that only called tools is given
a text made of the resolved tool results so it reads as an utterance.
*/
func newStep(text string, calls []ToolCall) Step {
	if text == "" && len(calls) > 0 {
		lines := make([]string, 0, len(calls))

		for _, call := range calls {
			lines = append(lines, fmt.Sprintf("%s: %s", call.Name, call.Result))
		}

		text = strings.Join(lines, "\n")
	}

	return Step{Text: text, ToolCalls: calls}
}

func maxSteps(req Request) int {
	if req.MaxSteps < 1 {
		return 1
	}

	return req.MaxSteps
}
