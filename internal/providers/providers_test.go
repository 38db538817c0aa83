package providers

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestParseProviderList(t *testing.T) {
	cases := []struct {
		in   string
		want []ProviderRef
	}{
		{"openai", []ProviderRef{{Raw: "openai", Name: "openai"}}},
		{"openai:prod", []ProviderRef{{Raw: "openai:prod", Name: "openai", KeyAlias: "prod"}}},
		{"openai:prod|mock", []ProviderRef{
			{Raw: "openai:prod", Name: "openai", KeyAlias: "prod"},
			{Raw: "mock", Name: "mock"},
		}},
		{" openai : prod ", []ProviderRef{{Raw: "openai : prod", Name: "openai", KeyAlias: "prod"}}},
		{"", []ProviderRef{{Raw: "mock", Name: "mock"}}},
		{"| |", []ProviderRef{{Raw: "mock", Name: "mock"}}},
	}
	for _, c := range cases {
		got := ParseProviderList(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q: got %d refs, want %d", c.in, len(got), len(c.want))
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q: ref %d = %+v, want %+v", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorType
	}{
		{"insufficient_quota: you have run out of credits", ErrorQuota},
		{"429 too many requests", ErrorRate},
		{"rate limit exceeded", ErrorRate},
		{"context length exceeded", ErrorContext},
		{"request timeout", ErrorTransient},
		{"service temporarily unavailable", ErrorTransient},
		{"connection refused", ErrorTransient},
		{"invalid api key", ErrorPermanent},
	}
	for _, c := range cases {
		if got := ClassifyError(errors.New(c.msg)); got != c.want {
			t.Fatalf("%q classified as %s, want %s", c.msg, got, c.want)
		}
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil error classified as %s", got)
	}
}

func TestErrorTypeRetryable(t *testing.T) {
	for _, c := range []struct {
		class ErrorType
		want  bool
	}{
		{ErrorRate, true},
		{ErrorTransient, true},
		{ErrorQuota, false},
		{ErrorContext, false},
		{ErrorPermanent, false},
	} {
		if got := c.class.Retryable(); got != c.want {
			t.Fatalf("%s retryable = %v, want %v", c.class, got, c.want)
		}
	}
}

func TestMockEmbedDeterministicAndNormalized(t *testing.T) {
	p := NewMockProvider(64)
	ctx := context.Background()

	a, _, err := p.Embed(ctx, EmbedRequest{Inputs: []string{"deductible", "copay"}})
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := p.Embed(ctx, EmbedRequest{Inputs: []string{"deductible", "copay"}})
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 2 || len(a[0]) != 64 {
		t.Fatalf("unexpected vector shape %dx%d", len(a), len(a[0]))
	}
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("embedding not deterministic at [%d][%d]", i, j)
			}
		}
	}

	var norm float64
	for _, x := range a[0] {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-3 {
		t.Fatalf("vector norm %v, want 1", math.Sqrt(norm))
	}

	// Distinct inputs should not collide.
	same := true
	for j := range a[0] {
		if a[0][j] != a[1][j] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct inputs produced identical embeddings")
	}
}

func TestMockEmbedDimensionOverride(t *testing.T) {
	p := NewMockProvider(64)
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}, Dimension: 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs[0]) != 8 {
		t.Fatalf("dimension override ignored, got %d", len(vecs[0]))
	}
	if info.Name != "mock" {
		t.Fatalf("provider info name %q", info.Name)
	}
}
