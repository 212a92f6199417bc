package llm

import (
	"context"
	"testing"
)

type fakeProvider struct{ id string }

func (p *fakeProvider) ID() string   { return p.id }
func (p *fakeProvider) Name() string { return p.id }
func (p *fakeProvider) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	return &Completion{Text: "ok"}, nil
}

func TestRegistryPreservesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeProvider{id: "anthropic"})
	r.Register(&fakeProvider{id: "openai"})
	r.Register(&fakeProvider{id: "google"})

	ids := r.IDs()
	want := []string{"anthropic", "openai", "google"}
	if len(ids) != len(want) {
		t.Fatalf("IDs len = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestRegistryReRegisterKeepsPosition(t *testing.T) {
	r := NewRegistry()
	first := &fakeProvider{id: "openai"}
	second := &fakeProvider{id: "openai"}
	r.Register(first)
	r.Register(&fakeProvider{id: "google"})
	r.Register(second)

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "openai" {
		t.Errorf("IDs = %v, want openai first without duplication", ids)
	}

	p, ok := r.Get("openai")
	if !ok || p != second {
		t.Error("Get should return the most recently registered provider")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Error("Get(unknown) returned ok")
	}
}

func TestUsageTotal(t *testing.T) {
	u := Usage{InputTokens: 1000, OutputTokens: 500}
	if u.Total() != 1500 {
		t.Errorf("Total = %d, want 1500", u.Total())
	}
}
