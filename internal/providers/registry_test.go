package providers

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		llm := NewMockClient("ok")
		ocr := NewMockOCRProvider()

		r.RegisterLLM("test-llm", llm)
		r.RegisterOCR("test-ocr", ocr)

		client, err := r.GetLLM("test-llm")
		if err != nil {
			t.Fatalf("GetLLM() error = %v", err)
		}
		if client != llm {
			t.Error("got different client than registered")
		}
		provider, err := r.GetOCR("test-ocr")
		if err != nil {
			t.Fatalf("GetOCR() error = %v", err)
		}
		if provider != ocr {
			t.Error("got different provider than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.GetLLM("nonexistent"); err == nil {
			t.Error("expected error for nonexistent LLM")
		}
		if _, err := r.GetOCR("nonexistent"); err == nil {
			t.Error("expected error for nonexistent OCR")
		}
	})

	t.Run("list sorted", func(t *testing.T) {
		r := NewRegistry()
		r.RegisterLLM("b", NewMockClient("ok"))
		r.RegisterLLM("a", NewMockClient("ok"))
		r.RegisterOCR("tesseract", NewMockOCRProvider())

		llms := r.ListLLM()
		if len(llms) != 2 || llms[0] != "a" || llms[1] != "b" {
			t.Errorf("ListLLM() = %v", llms)
		}
		if ocrs := r.ListOCR(); len(ocrs) != 1 {
			t.Errorf("ListOCR() = %v", ocrs)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.RegisterLLM("concurrent-llm", NewMockClient("ok"))
			}()
			go func() {
				defer wg.Done()
				r.GetLLM("concurrent-llm") // May fail, that's ok
			}()
		}
		wg.Wait()
	})
}

func TestNewRegistryFromConfig(t *testing.T) {
	t.Run("registers providers from config", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", Model: "openai/gpt-4o-mini", APIKey: "k1", Enabled: true},
				"openai":     {Type: "openai", Model: "gpt-4o-mini", APIKey: "k2", Enabled: true},
			},
			OCRProviders: map[string]OCRProviderConfig{
				"mistral": {Type: "mistral-ocr", APIKey: "k3", Enabled: true},
			},
		})

		if !r.HasLLM("openrouter") || !r.HasLLM("openai") {
			t.Errorf("expected both LLM providers, got %v", r.ListLLM())
		}
		if !r.HasOCR("mistral") {
			t.Error("expected mistral to be registered")
		}
		client, _ := r.GetLLM("openai")
		if _, ok := client.(*OpenAIClient); !ok {
			t.Errorf("expected *OpenAIClient, got %T", client)
		}
	})

	t.Run("skips disabled, keyless and unknown providers", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"disabled": {Type: "openrouter", APIKey: "k", Enabled: false},
				"keyless":  {Type: "openrouter", Enabled: true},
				"unknown":  {Type: "carrier-pigeon", APIKey: "k", Enabled: true},
			},
			OCRProviders: map[string]OCRProviderConfig{
				"keyless": {Type: "mistral-ocr", Enabled: true},
			},
		})

		if names := r.ListLLM(); len(names) != 0 {
			t.Errorf("expected no LLM providers, got %v", names)
		}
		if r.HasOCR("keyless") {
			t.Error("provider without API key should not be registered")
		}
	})

	t.Run("uses custom model", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", Model: "custom-model", APIKey: "test-key", Enabled: true},
			},
		})

		client, _ := r.GetLLM("openrouter")
		orClient, ok := client.(*OpenRouterClient)
		if !ok {
			t.Fatal("expected OpenRouterClient")
		}
		if orClient.DefaultModel() != "custom-model" {
			t.Errorf("expected custom-model, got %s", orClient.DefaultModel())
		}
	})
}

func TestRegistry_Reload(t *testing.T) {
	base := RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {Type: "openrouter", Model: "m1", APIKey: "k", Enabled: true},
		},
	}

	t.Run("adds new providers", func(t *testing.T) {
		r := NewRegistryFromConfig(RegistryConfig{})
		if r.HasLLM("openrouter") {
			t.Fatal("should start without openrouter")
		}
		r.Reload(base)
		if !r.HasLLM("openrouter") {
			t.Error("expected openrouter after reload")
		}
	})

	t.Run("keeps unchanged clients", func(t *testing.T) {
		r := NewRegistryFromConfig(base)
		before, _ := r.GetLLM("openrouter")
		r.Reload(base)
		after, _ := r.GetLLM("openrouter")
		if before != after {
			t.Error("expected unchanged config to keep the same client")
		}
	})

	t.Run("recreates changed clients", func(t *testing.T) {
		r := NewRegistryFromConfig(base)
		r.Reload(RegistryConfig{
			LLMProviders: map[string]LLMProviderConfig{
				"openrouter": {Type: "openrouter", Model: "m2", APIKey: "k", Enabled: true},
			},
		})
		client, _ := r.GetLLM("openrouter")
		if client.(*OpenRouterClient).DefaultModel() != "m2" {
			t.Error("expected model to be updated")
		}
	})

	t.Run("removes dropped providers but keeps manual ones", func(t *testing.T) {
		r := NewRegistryFromConfig(base)
		r.RegisterOCR("tesseract", NewMockOCRProvider())

		r.Reload(RegistryConfig{})
		if r.HasLLM("openrouter") {
			t.Error("expected openrouter to be removed")
		}
		if !r.HasOCR("tesseract") {
			t.Error("expected manually registered provider to survive reload")
		}
	})
}
