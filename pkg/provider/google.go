package provider

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/tools"
	"google.golang.org/genai"
)

const DefaultGoogleModel = "gemini-2.5-flash"

var errNoContent = stderrors.New("model returned no content")

/*
googleRoleMap maps segment roles onto the two roles Gemini accepts.
System segments are sent as user turns.
*/
var googleRoleMap = map[string]genai.Role{
	RoleSystem: genai.RoleUser,
	RoleUser:   genai.RoleUser,
	"agent":    genai.RoleModel,
}

/*
googleModels is the part of genai.Models the provider calls.
*/
type googleModels interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

/*
GoogleProvider is a provider for the Google AI API.
*/
type GoogleProvider struct {
	models googleModels
	model  string
}

type GoogleProviderOption func(*GoogleProvider)

func NewGoogleProvider(options ...GoogleProviderOption) *GoogleProvider {
	prvdr := &GoogleProvider{model: DefaultGoogleModel}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func WithGoogleClient(client *genai.Client) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.models = client.Models
	}
}

func WithGoogleModel(model string) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		if model != "" {
			prvdr.model = model
		}
	}
}

/*
NewGoogleClient creates a Gemini API client. An empty key lets genai read
GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
*/
func NewGoogleClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (prvdr *GoogleProvider) Name() string {
	return "google"
}

func (prvdr *GoogleProvider) Complete(
	ctx context.Context, req Request,
) (Response, error) {
	if prvdr.models == nil {
		return Response{}, errors.NewCompletionError(prvdr.Name(), stderrors.New("no client configured"))
	}

	contents := prvdr.convertSegments(req.Segments)
	config := &genai.GenerateContentConfig{
		Tools: prvdr.convertTools(req.Tools.Declarations()),
	}

	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	var response Response

	for turn := 0; turn < maxSteps(req); turn++ {
		out, err := prvdr.models.GenerateContent(ctx, prvdr.model, contents, config)

		if err != nil {
			log.Error("google completion failed", "turn", turn, "error", err)
			return Response{}, errors.NewCompletionError(prvdr.Name(), err)
		}

		if len(out.Candidates) == 0 || out.Candidates[0].Content == nil {
			return Response{}, errors.NewCompletionError(prvdr.Name(), errNoContent)
		}

		content := out.Candidates[0].Content

		var (
			text      string
			calls     []ToolCall
			responses []*genai.Part
		)

		for _, part := range content.Parts {
			switch {
			case part.FunctionCall != nil:
				call, reply, err := prvdr.callTool(ctx, req.Tools, part.FunctionCall)

				if err != nil {
					return Response{}, errors.NewCompletionError(prvdr.Name(), err)
				}

				calls = append(calls, call)
				responses = append(responses, reply)
			case part.Text != "" && !part.Thought:
				text += part.Text
			}
		}

		step := newStep(text, calls)
		response.Steps = append(response.Steps, step)
		response.Text = step.Text

		log.Debug("google turn", "turn", turn, "tool_calls", len(calls))

		if len(responses) == 0 {
			return response, nil
		}

		contents = append(contents, content, &genai.Content{
			Role:  string(genai.RoleUser),
			Parts: responses,
		})
	}

	log.Warn("step limit reached, returning last turn", "max_steps", maxSteps(req))

	return response, nil
}

func (prvdr *GoogleProvider) callTool(
	ctx context.Context, registry *tools.Registry, fc *genai.FunctionCall,
) (ToolCall, *genai.Part, error) {
	result, err := registry.Execute(ctx, fc.Name, fc.Args)

	if err != nil {
		return ToolCall{}, nil, err
	}

	return ToolCall{Name: fc.Name, Args: fc.Args, Result: result}, &genai.Part{
		FunctionResponse: &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: map[string]any{"output": result},
		},
	}, nil
}

func (prvdr *GoogleProvider) convertSegments(segments []Segment) []*genai.Content {
	out := make([]*genai.Content, 0, len(segments))

	for _, segment := range segments {
		role, ok := googleRoleMap[segment.Role]

		if !ok {
			role = genai.RoleUser
		}

		out = append(out, genai.NewContentFromText(segment.Text, role))
	}

	return out
}

func (prvdr *GoogleProvider) convertTools(declarations []mcp.Tool) []*genai.Tool {
	if len(declarations) == 0 {
		return nil
	}

	functions := make([]*genai.FunctionDeclaration, 0, len(declarations))

	for _, tool := range declarations {
		properties := make(map[string]*genai.Schema)

		for name, raw := range tool.InputSchema.Properties {
			prop, ok := raw.(map[string]any)

			if !ok {
				log.Warn("skipping tool property", "tool", tool.Name, "property", name)
				continue
			}

			properties[name] = googleSchema(prop)
		}

		functions = append(functions, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   tool.InputSchema.Required,
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: functions}}
}

func googleSchema(prop map[string]any) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeString}

	switch prop["type"] {
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "boolean":
		schema.Type = genai.TypeBoolean
	case "array":
		schema.Type = genai.TypeArray
	case "object":
		schema.Type = genai.TypeObject
	}

	if description, ok := prop["description"].(string); ok {
		schema.Description = description
	}

	if minimum, ok := prop["minimum"].(float64); ok {
		schema.Minimum = genai.Ptr(minimum)
	}

	return schema
}
