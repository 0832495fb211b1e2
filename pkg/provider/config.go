package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/option"
	"github.com/spf13/viper"
)

/*
FromConfig builds the provider named by provider.name. "auto" picks the
first provider with an API key in the environment and falls back to the
scripted provider.
*/
func FromConfig(ctx context.Context, v *viper.Viper) (Interface, error) {
	name := v.GetString("provider.name")
	model := v.GetString("provider.model")

	if name == "" || name == "auto" {
		name = detect()
	}

	log.Info("selecting completion provider", "provider", name, "model", model)

	switch name {
	case "google":
		client, err := NewGoogleClient(ctx, googleAPIKey())

		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}

		return NewGoogleProvider(WithGoogleClient(client), WithGoogleModel(model)), nil
	case "openai":
		opts := []option.RequestOption{option.WithAPIKey(os.Getenv("OPENAI_API_KEY"))}

		if baseURL := v.GetString("provider.baseURL"); baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}

		return NewOpenAIProvider(WithOpenAIClient(opts...), WithOpenAIModel(model)), nil
	case "scripted":
		return NewScriptedProvider(), nil
	}

	return nil, fmt.Errorf("unknown provider %q", name)
}

func detect() string {
	switch {
	case googleAPIKey() != "":
		return "google"
	case os.Getenv("OPENAI_API_KEY") != "":
		return "openai"
	}

	return "scripted"
}

func googleAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}

	return os.Getenv("GOOGLE_API_KEY")
}
