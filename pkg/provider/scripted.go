package provider

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/dice-agent/pkg/errors"
)

var (
	diceWords   = []string{"dice", "die", "roll", "サイコロ"}
	facesSuffix = regexp.MustCompile(`(?i)\bd(\d+)\b`)
	facesWords  = regexp.MustCompile(`(?i)(\d+)[- ]?(?:sided|faces?|面)`)
)

/*
ScriptedProvider answers without a hosted model. Requests that talk
about dice go through the dice tool in two turns; anything else is
echoed back in one. It keeps the agent usable offline.
*/
type ScriptedProvider struct{}

func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

func (prvdr *ScriptedProvider) Name() string {
	return "scripted"
}

func (prvdr *ScriptedProvider) Complete(
	ctx context.Context, req Request,
) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, errors.NewCompletionError(prvdr.Name(), err)
	}

	prompt := promptText(req.Segments)

	if !mentionsDice(prompt) || req.Tools.Len() == 0 {
		step := newStep(prompt, nil)
		return Response{Text: step.Text, Steps: []Step{step}}, nil
	}

	args := map[string]any{}

	if faces, ok := requestedFaces(prompt); ok {
		args["dice"] = faces
	}

	result, err := req.Tools.Execute(ctx, "dice", args)

	if err != nil {
		return Response{}, errors.NewCompletionError(prvdr.Name(), err)
	}

	toolStep := newStep("", []ToolCall{{Name: "dice", Args: args, Result: result}})
	response := Response{Text: toolStep.Text, Steps: []Step{toolStep}}

	if maxSteps(req) < 2 {
		log.Warn("step limit reached, returning last turn", "max_steps", maxSteps(req))
		return response, nil
	}

	answer := newStep(fmt.Sprintf("The dice came up %s!", result), nil)
	response.Steps = append(response.Steps, answer)
	response.Text = answer.Text

	return response, nil
}

func promptText(segments []Segment) string {
	texts := make([]string, 0, len(segments))

	for _, segment := range segments {
		if segment.Text != "" {
			texts = append(texts, segment.Text)
		}
	}

	return strings.Join(texts, "\n")
}

func mentionsDice(prompt string) bool {
	lower := strings.ToLower(prompt)

	for _, word := range diceWords {
		if strings.Contains(lower, word) {
			return true
		}
	}

	return facesSuffix.MatchString(prompt)
}

func requestedFaces(prompt string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{facesSuffix, facesWords} {
		if match := pattern.FindStringSubmatch(prompt); match != nil {
			if faces, err := strconv.Atoi(match[1]); err == nil {
				return faces, true
			}
		}
	}

	return 0, false
}
