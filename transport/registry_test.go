package transport

import (
	"context"
	"testing"

	"github.com/vanchelo/restmod/core"
)

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewRESTAdapter(nil)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(NewRESTAdapter(nil)); err == nil {
		t.Fatalf("expected duplicate kind error")
	}
}

func TestRegistry_BuildFallsBackToFactory(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterFactory("mock", func(config map[string]any) (core.TransportAdapter, error) {
		return NewUnsupportedAdapter("mock", "test only"), nil
	}); err != nil {
		t.Fatalf("register factory: %v", err)
	}

	adapter, err := registry.Build("Mock", nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if adapter.Kind() != "mock" {
		t.Fatalf("expected mock adapter, got %q", adapter.Kind())
	}
}

func TestRegistry_BuildUnknownKind(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Build("graphql", nil); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestDefaultRegistry_KnownKindsResolve(t *testing.T) {
	registry := NewDefaultRegistry()
	if _, ok := registry.Get(KindREST); !ok {
		t.Fatalf("expected rest adapter registered")
	}
	for _, kind := range []string{KindGraphQL, KindStream, KindMock} {
		adapter, err := registry.Build(kind, nil)
		if err != nil {
			t.Fatalf("build %s: %v", kind, err)
		}
		if _, err := adapter.Do(context.Background(), core.TransportRequest{}); err == nil {
			t.Fatalf("expected %s placeholder to error on use", kind)
		}
	}
}

func TestNewResolverFromConfig_ShapesRESTAdapter(t *testing.T) {
	resolver := NewResolverFromConfig(core.TransportConfig{
		DefaultKind:          "REST",
		MaxResponseBodyBytes: 512,
	})

	adapter, err := resolver.Resolve(core.TransportRequest{})
	if err != nil {
		t.Fatalf("resolve configured default: %v", err)
	}
	rest, ok := adapter.(*RESTAdapter)
	if !ok {
		t.Fatalf("expected rest adapter, got %T", adapter)
	}
	if rest.MaxResponseBodyBytes != 512 {
		t.Fatalf("expected configured body limit, got %d", rest.MaxResponseBodyBytes)
	}
}

func TestResolver_UsesMetadataKind(t *testing.T) {
	resolver := NewResolver(nil, "")

	adapter, err := resolver.Resolve(core.TransportRequest{})
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if adapter.Kind() != KindREST {
		t.Fatalf("expected rest default, got %q", adapter.Kind())
	}
}

func TestResolver_MetadataOverridesDefault(t *testing.T) {
	resolver := NewResolver(nil, KindREST)
	adapter, err := resolver.Resolve(core.TransportRequest{
		Metadata: map[string]any{"transport_kind": "mock"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if adapter.Kind() != "mock" {
		t.Fatalf("expected metadata kind, got %q", adapter.Kind())
	}
}
