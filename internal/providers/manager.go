package providers

import (
	"fmt"
	"strings"

	"planbase/internal/config"
)

type Manager struct {
	llmProviders   []LLMProvider
	embedProviders []EmbeddingProvider
}

// NewManager builds the configured providers. Configuring openai without a
// resolvable API key is a startup error: the service refuses to boot and
// degrade every call later.
func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, llm)
	}
	for _, ref := range ParseProviderList(cfg.EmbedProviders) {
		p, err := buildProvider(ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, embed)
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []EmbeddingProvider{NewMockProvider(cfg.EmbedDim)}
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []LLMProvider{NewMockProvider(cfg.EmbedDim)}
	}
	return m, nil
}

func (m *Manager) EmbedProvider() EmbeddingProvider { return m.embedProviders[0] }

func (m *Manager) LLMProvider() LLMProvider { return m.llmProviders[0] }

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		p := NewOpenAIProvider(ref.KeyAlias)
		if !p.HasKey() {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %q", ref.Raw)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
