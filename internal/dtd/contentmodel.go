package dtd

// ContentType names the kind of content an <!ELEMENT> declaration
// allows.
type ContentType int

const (
	ContentEmpty ContentType = iota
	ContentAny
	ContentMixed
	ContentChildren
)

// ParticleKind distinguishes a content-particle leaf (an element name)
// from a sequence or choice group.
type ParticleKind int

const (
	ParticleName ParticleKind = iota
	ParticleSeq
	ParticleChoice
)

// Particle is one node of a compiled content-model tree, e.g. the
// parsed form of "(a, (b|c)+, d?)". Min/Max carry the node's own
// occurrence suffix: (1,1) for none, (0,1) for '?', (0,-1) for '*',
// (1,-1) for '+'. Max == -1 means unbounded.
type Particle struct {
	Kind     ParticleKind
	Name     string
	Children []*Particle
	Min, Max int
}

// automaton is the Glushkov construction of a content model. A
// position is one leaf occurrence of the particle tree, numbered
// 0..n-1 in left-to-right leaf order and paired with the element name
// it matches.
type automaton struct {
	leafNames  []string   // position -> element name
	followpos  []map[int]struct{}
	firstpos   []int // root firstpos, for the initial state
	accepting  map[int]struct{}
	rootNullable bool
}

type buildCtx struct {
	leafNames []string
	followpos []map[int]struct{}
}

func (c *buildCtx) newPosition(name string) int {
	c.leafNames = append(c.leafNames, name)
	c.followpos = append(c.followpos, map[int]struct{}{})
	return len(c.leafNames) - 1
}

func (c *buildCtx) link(from []int, to []int) {
	for _, p := range from {
		for _, q := range to {
			c.followpos[p][q] = struct{}{}
		}
	}
}

// nodeInfo is the (nullable, firstpos, lastpos) triple for a subtree,
// after that subtree's own occurrence suffix has been applied.
type nodeInfo struct {
	nullable bool
	first    []int
	last     []int
}

func build(c *buildCtx, p *Particle) nodeInfo {
	var inner nodeInfo
	switch p.Kind {
	case ParticleName:
		pos := c.newPosition(p.Name)
		inner = nodeInfo{nullable: false, first: []int{pos}, last: []int{pos}}
	case ParticleSeq:
		inner = buildSeq(c, p.Children)
	case ParticleChoice:
		inner = buildChoice(c, p.Children)
	}

	info := nodeInfo{
		nullable: inner.nullable || p.Min == 0,
		first:    inner.first,
		last:     inner.last,
	}
	if p.Max == -1 || p.Max > 1 {
		c.link(info.last, info.first)
	}
	return info
}

func buildSeq(c *buildCtx, children []*Particle) nodeInfo {
	if len(children) == 0 {
		return nodeInfo{nullable: true}
	}
	acc := build(c, children[0])
	for _, child := range children[1:] {
		next := build(c, child)
		c.link(acc.last, next.first)
		var first []int
		if acc.nullable {
			first = append(append([]int{}, acc.first...), next.first...)
		} else {
			first = acc.first
		}
		var last []int
		if next.nullable {
			last = append(append([]int{}, next.last...), acc.last...)
		} else {
			last = next.last
		}
		acc = nodeInfo{nullable: acc.nullable && next.nullable, first: first, last: last}
	}
	return acc
}

func buildChoice(c *buildCtx, children []*Particle) nodeInfo {
	var info nodeInfo
	for i, child := range children {
		ci := build(c, child)
		if i == 0 {
			info = ci
			continue
		}
		info.nullable = info.nullable || ci.nullable
		info.first = append(info.first, ci.first...)
		info.last = append(info.last, ci.last...)
	}
	return info
}

func compile(root *Particle) *automaton {
	c := &buildCtx{}
	info := build(c, root)
	accepting := map[int]struct{}{}
	for _, p := range info.last {
		accepting[p] = struct{}{}
	}
	return &automaton{
		leafNames:    c.leafNames,
		followpos:    c.followpos,
		firstpos:     info.first,
		accepting:    accepting,
		rootNullable: info.nullable,
	}
}

// Validator drives an element's content-model automaton one child
// element at a time, per spec.md §4.4.
type Validator struct {
	decl    *ElementDecl
	state   map[int]struct{}
	started bool
	stuck   bool
}

func newValidator(decl *ElementDecl) *Validator {
	return &Validator{decl: decl}
}

// AllowCharData reports whether character data is permitted at the
// current point: always true for ANY and Mixed content, never for
// EMPTY, and never for element-only Children content.
func (v *Validator) AllowCharData() bool {
	switch v.decl.Content {
	case ContentAny, ContentMixed:
		return true
	default:
		return false
	}
}

// Accept advances the automaton on seeing a child element named name.
// It reports false if name is not permitted here (content-model
// violation). EMPTY and ANY elements accept or reject without an
// automaton: EMPTY permits no children at all, ANY permits anything.
func (v *Validator) Accept(name string) bool {
	switch v.decl.Content {
	case ContentEmpty:
		return false
	case ContentAny:
		return true
	case ContentMixed:
		for _, allowed := range v.decl.Mixed {
			if allowed == name {
				return true
			}
		}
		return false
	case ContentChildren:
		return v.acceptChildren(name)
	default:
		return false
	}
}

func (v *Validator) acceptChildren(name string) bool {
	a := v.decl.automaton
	if a == nil || v.stuck {
		return false
	}
	if !v.started {
		v.state = map[int]struct{}{}
		for _, p := range a.firstpos {
			if a.leafNames[p] == name {
				v.state[p] = struct{}{}
			}
		}
		v.started = true
		v.stuck = len(v.state) == 0
		return !v.stuck
	}
	next := map[int]struct{}{}
	for p := range v.state {
		for q := range a.followpos[p] {
			if a.leafNames[q] == name {
				next[q] = struct{}{}
			}
		}
	}
	if len(next) == 0 {
		v.stuck = true
		return false
	}
	v.state = next
	return true
}

// Done reports whether the content model accepts at the current point
// (end of the element, or time to check before an EOF/ETag).
func (v *Validator) Done() bool {
	switch v.decl.Content {
	case ContentEmpty, ContentAny, ContentMixed:
		return true
	case ContentChildren:
		a := v.decl.automaton
		if a == nil {
			return true
		}
		if !v.started {
			return a.rootNullable
		}
		if v.stuck {
			return false
		}
		for p := range v.state {
			if _, ok := a.accepting[p]; ok {
				return true
			}
		}
		return false
	default:
		return true
	}
}
