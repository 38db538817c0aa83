package providers

import "strings"

// ProviderRef is one entry of a provider list. KeyAlias selects which
// credential env var the provider reads; empty means the default.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList parses a "name:keyalias|name|..." provider spec.
// Blank entries are dropped; an empty list resolves to the mock provider
// so a keyless local run still boots.
func ParseProviderList(raw string) []ProviderRef {
	var out []ProviderRef
	for _, entry := range strings.Split(raw, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		ref := ProviderRef{Raw: entry, Name: entry}
		if name, alias, ok := strings.Cut(entry, ":"); ok {
			ref.Name = strings.TrimSpace(name)
			ref.KeyAlias = strings.TrimSpace(alias)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return []ProviderRef{{Raw: "mock", Name: "mock"}}
	}
	return out
}
