package provider

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/dice-agent/pkg/errors"
)

const DefaultOpenAIModel = "gpt-4o-mini"

var errNoChoices = stderrors.New("completion returned no choices")

/*
roleMap compresses convertSegments' switch.
*/
var roleMap = map[string]func(string) openai.ChatCompletionMessageParamUnion{
	RoleSystem: openai.SystemMessage[string],
	RoleUser:   openai.UserMessage[string],
	"agent":    openai.AssistantMessage[string],
}

/*
OpenAIProvider is a provider for the OpenAI API.
*/
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{model: DefaultOpenAIModel}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

/*
WithOpenAIClient builds a client from request options, typically the API
key and, for compatible servers, a base URL.
*/
func WithOpenAIClient(opts ...option.RequestOption) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		client := openai.NewClient(opts...)
		prvdr.client = &client
	}
}

func WithOpenAIModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

func (prvdr *OpenAIProvider) Name() string {
	return "openai"
}

func (prvdr *OpenAIProvider) Complete(
	ctx context.Context, req Request,
) (Response, error) {
	if prvdr.client == nil {
		return Response{}, errors.NewCompletionError(prvdr.Name(), stderrors.New("no client configured"))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(prvdr.model),
		Messages: prvdr.convertSegments(req),
		Tools:    prvdr.convertTools(req.Tools.Declarations()),
	}

	var response Response

	for turn := 0; turn < maxSteps(req); turn++ {
		completion, err := prvdr.client.Chat.Completions.New(ctx, params)

		if err != nil {
			log.Error("openai completion failed", "turn", turn, "error", err)
			return Response{}, errors.NewCompletionError(prvdr.Name(), err)
		}

		if len(completion.Choices) == 0 {
			return Response{}, errors.NewCompletionError(prvdr.Name(), errNoChoices)
		}

		message := completion.Choices[0].Message
		calls := make([]ToolCall, 0, len(message.ToolCalls))

		if len(message.ToolCalls) > 0 {
			params.Messages = append(params.Messages, message.ToParam())
		}

		for _, toolCall := range message.ToolCalls {
			result, err := req.Tools.ExecuteJSON(ctx, toolCall.Function.Name, toolCall.Function.Arguments)

			if err != nil {
				return Response{}, errors.NewCompletionError(prvdr.Name(), err)
			}

			calls = append(calls, ToolCall{Name: toolCall.Function.Name, Result: result})
			params.Messages = append(params.Messages, openai.ToolMessage(result, toolCall.ID))
		}

		step := newStep(message.Content, calls)
		response.Steps = append(response.Steps, step)
		response.Text = step.Text

		log.Debug("openai turn", "turn", turn, "tool_calls", len(calls))

		if len(calls) == 0 {
			return response, nil
		}
	}

	log.Warn("step limit reached, returning last turn", "max_steps", maxSteps(req))

	return response, nil
}

func (prvdr *OpenAIProvider) convertSegments(req Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Segments)+1)

	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}

	for _, segment := range req.Segments {
		fn, ok := roleMap[segment.Role]

		if !ok {
			fn = openai.UserMessage[string]
		}

		out = append(out, fn(segment.Text))
	}

	return out
}

func (prvdr *OpenAIProvider) convertTools(
	declarations []mcp.Tool,
) []openai.ChatCompletionToolParam {
	if len(declarations) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionToolParam, 0, len(declarations))

	for _, tool := range declarations {
		parameters := map[string]any{
			"type":       "object",
			"properties": tool.InputSchema.Properties,
		}

		if len(tool.InputSchema.Required) > 0 {
			parameters["required"] = tool.InputSchema.Required
		}

		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(parameters),
			},
		})
	}

	return out
}
