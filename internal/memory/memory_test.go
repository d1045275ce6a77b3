package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tercel/internal/rules"
)

func elem(fact rules.Fact, b rules.Bindings) rules.Element {
	return rules.Element{Fact: fact, Bindings: b}
}

func TestTransient_IsolatedFromPersistent(t *testing.T) {
	persistent := NewMemory()

	tr := persistent.ToTransient()
	tr.AddElements(1, "key", []rules.Element{elem("f1", rules.Bindings{"?x": 1})})
	tr.AddTokens(2, "key", []rules.Token{rules.EmptyToken()})
	frozen := tr.ToPersistent()

	// The original snapshot saw none of the mutations.
	assert.Empty(t, persistent.Tokens(2, "key"))
	assert.Len(t, frozen.Tokens(2, "key"), 1)

	// Mutating a second transient leaves the first frozen snapshot intact.
	tr2 := frozen.ToTransient()
	tr2.RemoveTokens(2, "key", []rules.Token{rules.EmptyToken()})
	_ = tr2.ToPersistent()
	assert.Len(t, frozen.Tokens(2, "key"), 1)
}

func TestTransient_ElementMultiplicity(t *testing.T) {
	tr := NewMemory().ToTransient()
	e := elem("dup", rules.Bindings{})

	tr.AddElements(1, "key", []rules.Element{e, e})
	require.Equal(t, 2, tr.ElementCount(1, "key"))

	removed := tr.RemoveElements(1, "key", []rules.Element{e})
	assert.Len(t, removed, 1)
	assert.Equal(t, 1, tr.ElementCount(1, "key"), "one equal copy must survive")

	removed = tr.RemoveElements(1, "key", []rules.Element{e})
	assert.Len(t, removed, 1)
	assert.Equal(t, 0, tr.ElementCount(1, "key"))
}

func TestTransient_RemoveAbsentElementIsNoop(t *testing.T) {
	tr := NewMemory().ToTransient()
	tr.AddElements(1, "key", []rules.Element{elem("present", rules.Bindings{})})

	removed := tr.RemoveElements(1, "key", []rules.Element{elem("absent", rules.Bindings{})})

	assert.Empty(t, removed)
	assert.Equal(t, 1, tr.ElementCount(1, "key"))
}

func TestTransient_TokenAddRemove(t *testing.T) {
	tr := NewMemory().ToTransient()
	tok := rules.EmptyToken().Extend("f", 1, rules.Bindings{"?x": 1})

	tr.AddTokens(3, "key", []rules.Token{tok})
	require.Len(t, tr.Tokens(3, "key"), 1)

	removed := tr.RemoveTokens(3, "key", []rules.Token{tok})
	assert.Len(t, removed, 1)
	assert.Empty(t, tr.Tokens(3, "key"))
}

func TestTransient_Reductions(t *testing.T) {
	tr := NewMemory().ToTransient()

	_, ok := tr.GetReduction(4, "jk", "g1")
	require.False(t, ok)

	tr.SetReduction(4, "jk", "g1", Reduction{GroupBindings: rules.Bindings{"?g": 1}, Value: 10})
	r, ok := tr.GetReduction(4, "jk", "g1")
	require.True(t, ok)
	assert.Equal(t, 10, r.Value)
	assert.Len(t, tr.Reductions(4, "jk"), 1)

	tr.RemoveReduction(4, "jk", "g1")
	assert.Empty(t, tr.Reductions(4, "jk"))
}

func TestTransient_ProductionTokens(t *testing.T) {
	tr := NewMemory().ToTransient()
	tok := rules.EmptyToken().Extend("f", 1, rules.Bindings{"?x": 1})

	tr.AddProductionTokens(5, []rules.Token{tok, tok})

	removed := tr.RemoveProductionTokens(5, []rules.Token{tok})
	assert.Len(t, removed, 1)

	removed = tr.RemoveProductionTokens(5, []rules.Token{tok})
	assert.Len(t, removed, 1)

	removed = tr.RemoveProductionTokens(5, []rules.Token{tok})
	assert.Empty(t, removed)
}

func TestTransient_SupportLifecycle(t *testing.T) {
	tr := NewMemory().ToTransient()
	tokenKey := rules.TokenKey(rules.EmptyToken())

	assert.False(t, tr.HasSupport(6, tokenKey))

	tr.AddSupport(6, tokenKey, []rules.Fact{"derived-1"})
	tr.AddSupport(6, tokenKey, []rules.Fact{"derived-2", "derived-3"})
	require.True(t, tr.HasSupport(6, tokenKey))

	batches := tr.TakeSupport(6, tokenKey)
	require.Len(t, batches, 2)
	assert.Equal(t, []rules.Fact{"derived-1"}, batches[0])
	assert.Equal(t, []rules.Fact{"derived-2", "derived-3"}, batches[1])

	// Support is cleared once taken.
	assert.False(t, tr.HasSupport(6, tokenKey))
	assert.Empty(t, tr.TakeSupport(6, tokenKey))
}

func TestTransient_SupportCopiedOnClone(t *testing.T) {
	tr := NewMemory().ToTransient()
	tokenKey := rules.TokenKey(rules.EmptyToken())
	tr.AddSupport(1, tokenKey, []rules.Fact{"derived"})
	frozen := tr.ToPersistent()

	tr2 := frozen.ToTransient()
	tr2.TakeSupport(1, tokenKey)

	tr3 := frozen.ToTransient()
	assert.True(t, tr3.HasSupport(1, tokenKey), "taking support in one transient must not affect the snapshot")
}
