package providers

import (
	"os"
)

// liveKeys holds provider API keys loaded from environment variables so
// integration tests can run against real services when keys are present.
type liveKeys struct {
	OpenRouterAPIKey string
	MistralAPIKey    string
}

func loadLiveKeys() liveKeys {
	return liveKeys{
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		MistralAPIKey:    os.Getenv("MISTRAL_API_KEY"),
	}
}

func (k liveKeys) HasOpenRouter() bool {
	return k.OpenRouterAPIKey != ""
}

func (k liveKeys) HasMistral() bool {
	return k.MistralAPIKey != ""
}

// NewOpenRouterClient returns nil if no key is configured.
func (k liveKeys) NewOpenRouterClient() *OpenRouterClient {
	if !k.HasOpenRouter() {
		return nil
	}
	return NewOpenRouterClient(OpenRouterConfig{APIKey: k.OpenRouterAPIKey})
}
