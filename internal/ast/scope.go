package ast

// ScopeKind distinguishes the scope varieties the parser pushes at
// function bodies, bound `for` heads, and `let`/`const`-introducing
// blocks (spec §4.2.3).
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Variable is one declared name within a Scope.
type Variable struct {
	Name      string
	Kind      string // "var", "let", "const", "param", "catch", "function"
	SlotIndex int
	Closure   bool // captured by a nested function body
}

// Scope is the parser's per-block/function symbol table (spec §4.2.3).
type Scope struct {
	Parent    *Scope
	Kind      ScopeKind
	Variables map[string]*Variable
	Order     []string // insertion order, for deterministic slot assignment
	Items     int       // number of non-closure slots needed
}

// NewScope creates a child scope.
func NewScope(parent *Scope, kind ScopeKind) *Scope {
	return &Scope{Parent: parent, Kind: kind, Variables: make(map[string]*Variable)}
}

// Declare adds name to this scope if not already present, returning the
// (possibly pre-existing) Variable.
func (s *Scope) Declare(name, kind string) *Variable {
	if v, ok := s.Variables[name]; ok {
		return v
	}
	v := &Variable{Name: name, Kind: kind, SlotIndex: s.Items}
	s.Variables[name] = v
	s.Order = append(s.Order, name)
	s.Items++
	return v
}

// Resolve walks up the scope chain looking for name, returning the
// scope it was found in along with the Variable.
func (s *Scope) Resolve(name string) (*Scope, *Variable) {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Variables[name]; ok {
			return cur, v
		}
	}
	return nil, nil
}

// EnclosingFunction returns the nearest function (or global) scope.
func (s *Scope) EnclosingFunction() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == ScopeFunction || cur.Kind == ScopeGlobal {
			return cur
		}
	}
	return s
}
