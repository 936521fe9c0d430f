package nsscope

import "testing"

func TestInheritanceAndShadowing(t *testing.T) {
	s := New()
	s.Push()
	s.Declare("a", "urn:a")
	s.Push()
	if uri, ok := s.Resolve("a"); !ok || uri != "urn:a" {
		t.Fatalf("expected inherited binding, got %q,%v", uri, ok)
	}
	s.Declare("a", "urn:a2")
	if uri, _ := s.Resolve("a"); uri != "urn:a2" {
		t.Fatalf("expected shadowed binding, got %q", uri)
	}
	s.Pop()
	if uri, _ := s.Resolve("a"); uri != "urn:a" {
		t.Fatalf("expected parent binding restored after Pop, got %q", uri)
	}
}

func TestBuiltinPrefixes(t *testing.T) {
	s := New()
	if uri, ok := s.Resolve(XMLPrefix); !ok || uri != XMLURI {
		t.Fatalf("xml prefix not bound: %q,%v", uri, ok)
	}
	if uri, ok := s.Resolve(XMLNSPrefix); !ok || uri != XMLNSURI {
		t.Fatalf("xmlns prefix not bound: %q,%v", uri, ok)
	}
}

func TestDefaultNamespace(t *testing.T) {
	s := New()
	s.Push()
	s.Declare("", "urn:default")
	if got := s.DefaultURI(); got != "urn:default" {
		t.Fatalf("got %q", got)
	}
}
