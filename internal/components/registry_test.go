package components

import (
	"errors"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	def := Definition{Name: "Demo", Template: "<b>demo</b>"}

	if err := registry.Register(def); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if got, ok := registry.Get("Demo"); !ok || got.Name != "Demo" {
		t.Fatalf("Get() expected definition, got %+v", got)
	}
	if registry.Has("demo") {
		t.Fatal("expected lookups to be case sensitive")
	}
	if err := registry.Register(def); !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("expected ErrDuplicateDefinition, got %v", err)
	}
}

func TestRegistryRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]Definition{
		"lowercase name": {Name: "demo", Template: "x"},
		"no template":    {Name: "Demo"},
		"bad kind":       {Name: "Demo", Template: "x", Attributes: []Attribute{{Name: "a", Kind: "float"}}},
		"duplicate attr": {Name: "Demo", Template: "x", Attributes: []Attribute{
			{Name: "a", Kind: AttributeString},
			{Name: "a", Kind: AttributeString},
		}},
	}
	for name, def := range cases {
		t.Run(name, func(t *testing.T) {
			if err := NewRegistry().Register(def); !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestBuiltInRegistryListSorted(t *testing.T) {
	got := NewBuiltInRegistry().List()
	want := []string{"Callout", "Figure", "YouTube"}
	if len(got) != len(want) {
		t.Fatalf("expected %d definitions, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("order mismatch at %d: got %s, want %s", i, got[i].Name, name)
		}
	}
}
