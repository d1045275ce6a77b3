package rules

import (
	"fmt"
	"reflect"
	"strings"
)

// Fact is an opaque value asserted into a session. Two facts are
// interchangeable when they are value-equal; identity is never consulted.
type Fact any

// Bindings maps variable names (with leading "?") to fact-derived values.
// Bindings grow monotonically along a path from the network root to a leaf.
type Bindings map[string]any

// GenVarPrefix marks internal variables. Bindings with this prefix never
// appear in query results or RHS bindings. The normalization pass (ToDNF)
// introduces no variables of its own.
const GenVarPrefix = "?__gen_"

// InitialFactType is the reserved type tag for the fact every session holds
// from creation. Production variants that open with a negation, test, or
// accumulator are anchored on it so the beta root has a token to emit.
const InitialFactType = "tercel/initial-fact"

// InitialFact is the anchor fact inserted once at session creation.
type InitialFact struct{}

// TypeName is the default fact-type function: the fact's Go type rendering.
// The anchor fact maps to its reserved tag regardless of the session's
// fact-type function.
func TypeName(f Fact) string {
	if _, ok := f.(InitialFact); ok {
		return InitialFactType
	}
	return fmt.Sprintf("%T", f)
}

// Element is a fact paired with the bindings its alpha node extracted.
type Element struct {
	Fact     Fact
	Bindings Bindings
}

// Match is one entry in a token's partial match: the fact plus the id of the
// node that contributed it. Accumulator nodes contribute their converted
// result value in the Fact position.
type Match struct {
	Fact   Fact
	NodeID int64
}

// Token is an ordered list of matches plus the accumulated bindings along one
// path in the beta network.
type Token struct {
	Matches  []Match
	Bindings Bindings
}

// EmptyToken returns the constant token held implicitly by the beta root.
func EmptyToken() Token {
	return Token{Bindings: Bindings{}}
}

// Extend returns a new token whose matches append (fact, nodeID) and whose
// bindings merge extra over the receiver's. The receiver is not mutated.
func (t Token) Extend(fact Fact, nodeID int64, extra Bindings) Token {
	matches := make([]Match, 0, len(t.Matches)+1)
	matches = append(matches, t.Matches...)
	matches = append(matches, Match{Fact: fact, NodeID: nodeID})
	return Token{Matches: matches, Bindings: MergeBindings(t.Bindings, extra)}
}

// MergeBindings combines two binding maps into a fresh map. Values from
// overlay win on conflicts. Either argument may be nil.
func MergeBindings(base, overlay Bindings) Bindings {
	merged := make(Bindings, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// ConsistentBindings reports whether overlay agrees with base on every
// variable both maps bind. Joins only combine rows whose shared variables
// unify.
func ConsistentBindings(base, overlay Bindings) bool {
	for k, v := range overlay {
		if existing, ok := base[k]; ok && !FactEqual(existing, v) {
			return false
		}
	}
	return true
}

// RestrictBindings returns the subset of b covering only the given keys.
// Keys absent from b are omitted rather than bound to nil.
func RestrictBindings(b Bindings, keys []string) Bindings {
	restricted := make(Bindings, len(keys))
	for _, k := range keys {
		if v, ok := b[k]; ok {
			restricted[k] = v
		}
	}
	return restricted
}

// BindsAll reports whether b binds every one of the given keys.
func BindsAll(b Bindings, keys []string) bool {
	for _, k := range keys {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// PublicBindings returns a copy of b with internally generated variables
// removed. Used when returning query results to callers.
func PublicBindings(b Bindings) Bindings {
	public := make(Bindings, len(b))
	for k, v := range b {
		if strings.HasPrefix(k, GenVarPrefix) {
			continue
		}
		public[k] = v
	}
	return public
}

// FactEqual reports value equality between two facts. Facts are plain Go
// values; deep equality is the engine's only notion of sameness.
func FactEqual(a, b Fact) bool {
	return reflect.DeepEqual(a, b)
}

// TokensEqual reports value equality between two tokens.
func TokensEqual(a, b Token) bool {
	if len(a.Matches) != len(b.Matches) {
		return false
	}
	for i := range a.Matches {
		if a.Matches[i].NodeID != b.Matches[i].NodeID {
			return false
		}
		if !FactEqual(a.Matches[i].Fact, b.Matches[i].Fact) {
			return false
		}
	}
	return reflect.DeepEqual(a.Bindings, b.Bindings)
}

// ElementsEqual reports value equality between two elements.
func ElementsEqual(a, b Element) bool {
	return FactEqual(a.Fact, b.Fact) && reflect.DeepEqual(a.Bindings, b.Bindings)
}
