// Package dtd models a Document Type Definition: element content
// models, attribute-list declarations, and general/parameter entity
// and notation tables, per spec.md §3's DTD data model. Content models
// are compiled to a Glushkov-style position automaton (contentmodel.go)
// so the parser can validate an element's children incrementally as it
// scans them, without building a lookahead buffer.
package dtd

// AttrType names an attribute's declared type from an <!ATTLIST ...>.
type AttrType int

const (
	AttrCDATA AttrType = iota
	AttrID
	AttrIDREF
	AttrIDREFS
	AttrENTITY
	AttrENTITIES
	AttrNMTOKEN
	AttrNMTOKENS
	AttrNOTATION
	AttrEnumeration
)

// DefaultKind names the default-value discipline of an attribute
// declaration.
type DefaultKind int

const (
	DefaultRequired DefaultKind = iota
	DefaultImplied
	DefaultFixed
	DefaultValue
)

// AttDecl is one <!ATTLIST Element Name Type Default> declaration.
type AttDecl struct {
	Element      string
	Name         string
	Type         AttrType
	Enumeration  []string // AttrNOTATION / AttrEnumeration allowed values
	Default      DefaultKind
	DefaultValue string

	// ExternallyDefined is true when this declaration itself appeared
	// in the external subset or was reached through a parameter-entity
	// expansion, independent of where the element it attaches to
	// appears. The standalone-violation check (spec.md §8) keys off
	// this, not off the element's own location.
	ExternallyDefined bool
}

// ElementDecl is one <!ELEMENT Name Content> declaration.
type ElementDecl struct {
	Name     string
	Content  ContentType
	Mixed    []string // Mixed content: allowed child element names (empty = #PCDATA only)
	Particle *Particle
	automaton *automaton
}

// EntityDecl is one <!ENTITY ...> declaration, general or parameter.
type EntityDecl struct {
	Name        string
	IsParameter bool
	Value       string // internal entities: literal replacement text
	ExternalID  ExternalID
	NDATA       string // general unparsed entities only

	// ExternallyDefined mirrors AttDecl.ExternallyDefined: true if this
	// declaration appeared in the external subset or behind a
	// parameter-entity expansion.
	ExternallyDefined bool
}

// ExternalID is a SYSTEM or PUBLIC identifier pair.
type ExternalID struct {
	Public string
	System string
	IsSet  bool
}

// NotationDecl is one <!NOTATION ...> declaration.
type NotationDecl struct {
	Name       string
	ExternalID ExternalID
}

// DTD aggregates every declaration seen in the internal and external
// subsets.
type DTD struct {
	Elements   map[string]*ElementDecl
	Attributes map[string][]*AttDecl // keyed by element name, in declaration order
	GeneralEntities map[string]*EntityDecl
	ParamEntities   map[string]*EntityDecl
	Notations  map[string]*NotationDecl
	Standalone bool // whether the document declared standalone="yes"
}

// New returns an empty DTD.
func New() *DTD {
	return &DTD{
		Elements:        map[string]*ElementDecl{},
		Attributes:      map[string][]*AttDecl{},
		GeneralEntities: map[string]*EntityDecl{},
		ParamEntities:   map[string]*EntityDecl{},
		Notations:       map[string]*NotationDecl{},
	}
}

// DeclareElement records an element declaration, compiling its content
// model's automaton if it has one. The first declaration for a given
// name wins; a later <!ELEMENT> for the same name is ignored and no
// error is reported for it.
func (d *DTD) DeclareElement(decl *ElementDecl) {
	if _, exists := d.Elements[decl.Name]; exists {
		return
	}
	if decl.Content == ContentChildren && decl.Particle != nil {
		decl.automaton = compile(decl.Particle)
	}
	d.Elements[decl.Name] = decl
}

// DeclareAttribute appends an attribute declaration for an element.
// Per XML 1.0 §3.3, when the same attribute is declared more than once
// for one element, only the first declaration is binding; later ones
// are ignored here (the parser may still warn).
func (d *DTD) DeclareAttribute(decl *AttDecl) {
	for _, existing := range d.Attributes[decl.Element] {
		if existing.Name == decl.Name {
			return
		}
	}
	d.Attributes[decl.Element] = append(d.Attributes[decl.Element], decl)
}

// AttlistFor returns the attribute declarations for an element name.
func (d *DTD) AttlistFor(element string) []*AttDecl {
	return d.Attributes[element]
}

// Attribute looks up a single attribute declaration.
func (d *DTD) Attribute(element, name string) (*AttDecl, bool) {
	for _, a := range d.Attributes[element] {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Validator returns a streaming content-model validator for an
// element, or nil if the element has no declaration (well-formedness
// without a DTD). EMPTY and ANY elements get a Validator too; it
// answers without an automaton.
func (d *DTD) Validator(element string) *Validator {
	decl, ok := d.Elements[element]
	if !ok {
		return nil
	}
	return newValidator(decl)
}

// ResolveNotations checks, once the whole DTD (internal and external
// subset) has been parsed, that every NOTATION attribute's enumerated
// values and every unparsed general entity's NDATA name resolve to a
// declared notation. It runs once at end-of-DTD-parse rather than
// eagerly, since a notation may be declared after the attribute or
// entity that references it.
func (d *DTD) ResolveNotations() []string {
	var undeclared []string
	for _, attrs := range d.Attributes {
		for _, a := range attrs {
			if a.Type != AttrNOTATION {
				continue
			}
			for _, n := range a.Enumeration {
				if _, ok := d.Notations[n]; !ok {
					undeclared = append(undeclared, n)
				}
			}
		}
	}
	for _, e := range d.GeneralEntities {
		if e.NDATA == "" {
			continue
		}
		if _, ok := d.Notations[e.NDATA]; !ok {
			undeclared = append(undeclared, e.NDATA)
		}
	}
	return undeclared
}
