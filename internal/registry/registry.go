// Package registry is the Definition Registry (spec.md §4.4): a keyed
// store of Template and Custom definitions with inheritance-cycle
// detection, grounded on the teacher's internal/resolver/graph.go
// DependencyGraph (DFS cycle detection over dependency edges, adapted
// here to inherit edges) and internal/tokens/manager.go's
// sync.RWMutex-guarded map.
package registry

import (
	"fmt"
	"sync"

	"chtl.dev/chtl/internal/ast"
	"chtl.dev/chtl/internal/collections"
	"chtl.dev/chtl/internal/diag"
)

// GlobalNamespace is the fallback namespace searched when a qualified
// lookup misses (spec.md §9 Open Question: an unqualified reference or
// one inside an unknown namespace falls back to the global namespace
// rather than being treated as a hard error).
const GlobalNamespace = ""

// key identifies a definition by its namespace, definition kind
// (Style/Element/Var) and name. Template and Custom share one keyspace
// per kind+name: spec.md §4.2 requires [Custom] to be able to shadow a
// [Template] of the same name, so Kind (TemplateDef vs CustomDef) is
// deliberately not part of the key.
type key struct {
	Namespace string
	DefKind   ast.DefKind
	Name      string
}

func (k key) String() string {
	return fmt.Sprintf("%s::%s::%s", k.Namespace, k.DefKind, k.Name)
}

// Registry stores Template/Custom definitions and tracks their
// inheritance edges.
type Registry struct {
	mu   sync.RWMutex
	defs map[key]*ast.Node
	// parent[k] is the key k directly inherits from, mirroring the
	// teacher's DependencyGraph.dependencies adjacency list (here
	// single-parent, since CHTL inherit has one parent per definition).
	parent map[key]key
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		defs:   make(map[key]*ast.Node),
		parent: make(map[key]key),
	}
}

// Register adds a TemplateDef or CustomDef node under namespace ns. The
// parent named by inherit need not be registered yet — CHTL places no
// ordering requirement on sibling definitions within a file — so cycle
// detection runs over the raw name-edge graph rather than requiring the
// parent to already exist in defs (spec.md S7: "`[Template] @Style A {
// inherit B; } [Template] @Style B { inherit A; }` causes a CycleError
// on the second registration, and A remains registered alone" — A's own
// registration must succeed even though B doesn't exist yet). Grounded
// on internal/resolver/graph.go's FindCycle (visited/recStack DFS).
func (r *Registry) Register(ns string, def *ast.Node) error {
	if def.Kind != ast.KindTemplateDef && def.Kind != ast.KindCustomDef {
		return fmt.Errorf("registry: cannot register node of kind %s", def.Kind)
	}
	k := key{Namespace: ns, DefKind: def.DefKind, Name: def.Name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if def.HasParent {
		parentKey := key{Namespace: ns, DefKind: def.DefKind, Name: def.ParentName}
		r.parent[k] = parentKey
		if chain := r.findCycleLocked(k); chain != nil {
			delete(r.parent, k)
			return diag.NewCycleError("", chain)
		}
	}

	r.defs[k] = def
	return nil
}

// Lookup finds a definition by namespace, kind and name, falling back to
// GlobalNamespace when ns doesn't contain a matching definition.
func (r *Registry) Lookup(ns string, kind ast.DefKind, name string) (*ast.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.resolveKeyLocked(ns, kind, name)
	if !ok {
		return nil, false
	}
	return r.defs[k], true
}

// Exists reports whether a definition is registered under exactly
// (ns, kind, name), with no GlobalNamespace fallback — used to detect
// redefinitions within the same namespace without being confused by a
// same-named definition that merely happens to exist globally.
func (r *Registry) Exists(ns string, kind ast.DefKind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[key{Namespace: ns, DefKind: kind, Name: name}]
	return ok
}

func (r *Registry) resolveKeyLocked(ns string, kind ast.DefKind, name string) (key, bool) {
	k := key{Namespace: ns, DefKind: kind, Name: name}
	if _, ok := r.defs[k]; ok {
		return k, true
	}
	if ns != GlobalNamespace {
		gk := key{Namespace: GlobalNamespace, DefKind: kind, Name: name}
		if _, ok := r.defs[gk]; ok {
			return gk, true
		}
	}
	return key{}, false
}

// Parent returns the definition node k's owner directly inherits from,
// if any.
func (r *Registry) Parent(ns string, kind ast.DefKind, name string) (*ast.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.resolveKeyLocked(ns, kind, name)
	if !ok {
		return nil, false
	}
	pk, ok := r.parent[k]
	if !ok {
		return nil, false
	}
	rk, ok := r.resolveKeyLocked(pk.Namespace, pk.DefKind, pk.Name)
	if !ok {
		return nil, false
	}
	return r.defs[rk], true
}

// InheritanceChain walks from name up through every ancestor (nearest
// first), used by the Expansion Engine to cascade property overrides in
// inherit-then-override order (spec.md §4.5). It stops as soon as a link
// in the chain cannot be resolved to a registered definition (an
// undefined parent — reported separately as a ResolveError by the
// caller) rather than panicking or silently continuing.
func (r *Registry) InheritanceChain(ns string, kind ast.DefKind, name string) []*ast.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chain []*ast.Node
	k, ok := r.resolveKeyLocked(ns, kind, name)
	for ok {
		def, exists := r.defs[k]
		if !exists {
			break
		}
		chain = append(chain, def)

		pk, hasParent := r.parent[k]
		if !hasParent {
			break
		}
		k, ok = r.resolveKeyLocked(pk.Namespace, pk.DefKind, pk.Name)
	}
	return chain
}

// All returns every registered definition, for diagnostics and testing.
func (r *Registry) All() []*ast.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ast.Node, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	return out
}

// findCycleLocked performs a DFS from k following parent edges, in the
// same visited/recStack shape as internal/resolver/graph.go's
// findCycleDFS, returning the cycle's name chain if one closes back to
// k, or nil otherwise. Must be called with r.mu held.
func (r *Registry) findCycleLocked(start key) []string {
	visited := collections.NewSet[key]()
	recStack := collections.NewSet[key]()
	var path []string

	var walk func(k key) []string
	walk = func(k key) []string {
		if recStack.Has(k) {
			start := -1
			for i, n := range path {
				if n == k.Name {
					start = i
					break
				}
			}
			if start == -1 {
				return []string{k.Name, k.Name}
			}
			return append(append([]string(nil), path[start:]...), k.Name)
		}
		if visited.Has(k) {
			return nil
		}
		visited.Add(k)
		recStack.Add(k)
		path = append(path, k.Name)

		if next, ok := r.parent[k]; ok {
			if cycle := walk(next); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		delete(recStack, k)
		return nil
	}

	return walk(start)
}
