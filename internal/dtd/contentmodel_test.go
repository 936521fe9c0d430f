package dtd

import "testing"

func name(n string) *Particle { return &Particle{Kind: ParticleName, Name: n, Min: 1, Max: 1} }

func TestValidatorSequence(t *testing.T) {
	// (a, b, c)
	root := &Particle{Kind: ParticleSeq, Min: 1, Max: 1, Children: []*Particle{name("a"), name("b"), name("c")}}
	decl := &ElementDecl{Name: "doc", Content: ContentChildren, Particle: root}
	d := New()
	d.DeclareElement(decl)

	v := d.Validator("doc")
	for _, want := range []string{"a", "b", "c"} {
		if !v.Accept(want) {
			t.Fatalf("Accept(%q) = false", want)
		}
	}
	if !v.Done() {
		t.Fatal("expected Done() after full sequence")
	}
}

func TestValidatorRejectsWrongOrder(t *testing.T) {
	root := &Particle{Kind: ParticleSeq, Min: 1, Max: 1, Children: []*Particle{name("a"), name("b")}}
	decl := &ElementDecl{Name: "doc", Content: ContentChildren, Particle: root}
	d := New()
	d.DeclareElement(decl)

	v := d.Validator("doc")
	if v.Accept("b") {
		t.Fatal("expected rejection, b cannot come before a")
	}
}

func TestValidatorChoiceAndStar(t *testing.T) {
	// (a|b)*
	choice := &Particle{Kind: ParticleChoice, Min: 0, Max: -1, Children: []*Particle{name("a"), name("b")}}
	decl := &ElementDecl{Name: "doc", Content: ContentChildren, Particle: choice}
	d := New()
	d.DeclareElement(decl)

	v := d.Validator("doc")
	if !v.Done() {
		t.Fatal("empty content should be accepted by a starred group")
	}
	for _, c := range []string{"a", "b", "a", "a", "b"} {
		if !v.Accept(c) {
			t.Fatalf("Accept(%q) = false", c)
		}
	}
	if !v.Done() {
		t.Fatal("expected Done() after repeated choice")
	}
}

func TestValidatorOptionalTrailing(t *testing.T) {
	// (a, b?)
	root := &Particle{Kind: ParticleSeq, Min: 1, Max: 1, Children: []*Particle{
		name("a"),
		{Kind: ParticleName, Name: "b", Min: 0, Max: 1},
	}}
	decl := &ElementDecl{Name: "doc", Content: ContentChildren, Particle: root}
	d := New()
	d.DeclareElement(decl)

	v := d.Validator("doc")
	if !v.Accept("a") {
		t.Fatal("Accept(a) = false")
	}
	if !v.Done() {
		t.Fatal("expected Done() with b omitted")
	}
}

func TestValidatorEmptyAndAny(t *testing.T) {
	d := New()
	d.DeclareElement(&ElementDecl{Name: "br", Content: ContentEmpty})
	d.DeclareElement(&ElementDecl{Name: "box", Content: ContentAny})

	if d.Validator("br").Accept("x") {
		t.Fatal("EMPTY must reject any child")
	}
	if !d.Validator("box").Accept("anything") {
		t.Fatal("ANY must accept any child")
	}
}

func TestValidatorMixedContent(t *testing.T) {
	decl := &ElementDecl{Name: "p", Content: ContentMixed, Mixed: []string{"b", "i"}}
	d := New()
	d.DeclareElement(decl)

	v := d.Validator("p")
	if !v.AllowCharData() {
		t.Fatal("mixed content must allow char data")
	}
	if !v.Accept("b") {
		t.Fatal("expected b to be allowed in mixed content")
	}
	if v.Accept("span") {
		t.Fatal("span is not in the mixed-content allowed list")
	}
}
