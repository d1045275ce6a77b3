package memory

import (
	"github.com/roach88/tercel/internal/rules"
)

// Reduction is one accumulator memory row: the binding group it belongs to
// plus either a reduced value (plain accumulate) or the raw candidate facts
// (accumulate with a join filter, which cannot pre-reduce).
type Reduction struct {
	GroupBindings rules.Bindings
	Value         any
	Candidates    []rules.Fact
}

// Memory is the persistent working-memory snapshot held by a session.
// It is immutable by convention: every mutation goes through ToTransient.
type Memory struct {
	alpha      map[int64]map[string][]rules.Element
	beta       map[int64]map[string][]rules.Token
	accum      map[int64]map[string]map[string]Reduction
	production map[int64]map[string][]rules.Token
	support    map[string][][]rules.Fact
	queue      *ActivationQueue
}

// NewMemory returns an empty persistent memory.
func NewMemory() *Memory {
	return &Memory{
		alpha:      make(map[int64]map[string][]rules.Element),
		beta:       make(map[int64]map[string][]rules.Token),
		accum:      make(map[int64]map[string]map[string]Reduction),
		production: make(map[int64]map[string][]rules.Token),
		support:    make(map[string][][]rules.Fact),
		queue:      NewActivationQueue(),
	}
}

// ToTransient deep-copies the snapshot into an exclusive mutable builder.
func (m *Memory) ToTransient() *Transient {
	return &Transient{
		alpha:      copyElementStore(m.alpha),
		beta:       copyTokenStore(m.beta),
		accum:      copyAccumStore(m.accum),
		production: copyTokenStore(m.production),
		support:    copySupportStore(m.support),
		queue:      m.queue.clone(),
	}
}

// Tokens returns the stored tokens for a node and binding key. Read-only
// access for queries against the persistent snapshot.
func (m *Memory) Tokens(nodeID int64, bindingKey string) []rules.Token {
	return m.beta[nodeID][bindingKey]
}

// TokensForNode returns every token stored for a node across all binding
// keys. Used by parameterless queries.
func (m *Memory) TokensForNode(nodeID int64) []rules.Token {
	var out []rules.Token
	for _, tokens := range m.beta[nodeID] {
		out = append(out, tokens...)
	}
	return out
}

// Transient is the exclusive mutable form of working memory. It is consumed
// by ToPersistent; no other code may retain it across public API calls.
type Transient struct {
	alpha      map[int64]map[string][]rules.Element
	beta       map[int64]map[string][]rules.Token
	accum      map[int64]map[string]map[string]Reduction
	production map[int64]map[string][]rules.Token
	support    map[string][][]rules.Fact
	queue      *ActivationQueue
}

// ToPersistent freezes the builder into a fresh snapshot. The builder must
// not be used afterwards.
func (t *Transient) ToPersistent() *Memory {
	return &Memory{
		alpha:      t.alpha,
		beta:       t.beta,
		accum:      t.accum,
		production: t.production,
		support:    t.support,
		queue:      t.queue,
	}
}

// Queue exposes the activation queue.
func (t *Transient) Queue() *ActivationQueue {
	return t.queue
}

// Elements returns the right-memory rows for a node under a binding key.
func (t *Transient) Elements(nodeID int64, bindingKey string) []rules.Element {
	return t.alpha[nodeID][bindingKey]
}

// AddElements appends right-memory rows for a node under a binding key.
func (t *Transient) AddElements(nodeID int64, bindingKey string, elements []rules.Element) {
	if len(elements) == 0 {
		return
	}
	byKey := t.alpha[nodeID]
	if byKey == nil {
		byKey = make(map[string][]rules.Element)
		t.alpha[nodeID] = byKey
	}
	byKey[bindingKey] = append(byKey[bindingKey], elements...)
}

// RemoveElements removes the first value-equal occurrence of each given
// element and returns the ones actually removed.
func (t *Transient) RemoveElements(nodeID int64, bindingKey string, elements []rules.Element) []rules.Element {
	stored := t.alpha[nodeID][bindingKey]
	if len(stored) == 0 {
		return nil
	}

	var removed []rules.Element
	for _, e := range elements {
		for i := range stored {
			if rules.ElementsEqual(stored[i], e) {
				removed = append(removed, stored[i])
				stored = append(stored[:i], stored[i+1:]...)
				break
			}
		}
	}

	if len(stored) == 0 {
		delete(t.alpha[nodeID], bindingKey)
	} else {
		t.alpha[nodeID][bindingKey] = stored
	}
	return removed
}

// ElementCount returns the number of right-memory rows for a node under a
// binding key. Negation nodes branch on emptiness.
func (t *Transient) ElementCount(nodeID int64, bindingKey string) int {
	return len(t.alpha[nodeID][bindingKey])
}

// Tokens returns the left-memory rows for a node under a binding key.
func (t *Transient) Tokens(nodeID int64, bindingKey string) []rules.Token {
	return t.beta[nodeID][bindingKey]
}

// AddTokens appends left-memory rows for a node under a binding key.
func (t *Transient) AddTokens(nodeID int64, bindingKey string, tokens []rules.Token) {
	if len(tokens) == 0 {
		return
	}
	byKey := t.beta[nodeID]
	if byKey == nil {
		byKey = make(map[string][]rules.Token)
		t.beta[nodeID] = byKey
	}
	byKey[bindingKey] = append(byKey[bindingKey], tokens...)
}

// RemoveTokens removes the first value-equal occurrence of each given token
// and returns the ones actually removed.
func (t *Transient) RemoveTokens(nodeID int64, bindingKey string, tokens []rules.Token) []rules.Token {
	stored := t.beta[nodeID][bindingKey]
	if len(stored) == 0 {
		return nil
	}

	var removed []rules.Token
	for _, tok := range tokens {
		for i := range stored {
			if rules.TokensEqual(stored[i], tok) {
				removed = append(removed, stored[i])
				stored = append(stored[:i], stored[i+1:]...)
				break
			}
		}
	}

	if len(stored) == 0 {
		delete(t.beta[nodeID], bindingKey)
	} else {
		t.beta[nodeID][bindingKey] = stored
	}
	return removed
}

// Reductions returns the accumulator rows for a node under a join key,
// keyed by group fingerprint. The returned map is live; callers mutate it
// through SetReduction and RemoveReduction only.
func (t *Transient) Reductions(nodeID int64, joinKey string) map[string]Reduction {
	return t.accum[nodeID][joinKey]
}

// GetReduction looks up a single accumulator row.
func (t *Transient) GetReduction(nodeID int64, joinKey, groupKey string) (Reduction, bool) {
	r, ok := t.accum[nodeID][joinKey][groupKey]
	return r, ok
}

// SetReduction stores a single accumulator row.
func (t *Transient) SetReduction(nodeID int64, joinKey, groupKey string, r Reduction) {
	byJoin := t.accum[nodeID]
	if byJoin == nil {
		byJoin = make(map[string]map[string]Reduction)
		t.accum[nodeID] = byJoin
	}
	byGroup := byJoin[joinKey]
	if byGroup == nil {
		byGroup = make(map[string]Reduction)
		byJoin[joinKey] = byGroup
	}
	byGroup[groupKey] = r
}

// RemoveReduction deletes a single accumulator row, pruning empty levels.
func (t *Transient) RemoveReduction(nodeID int64, joinKey, groupKey string) {
	byGroup := t.accum[nodeID][joinKey]
	if byGroup == nil {
		return
	}
	delete(byGroup, groupKey)
	if len(byGroup) == 0 {
		delete(t.accum[nodeID], joinKey)
	}
}

// ProductionTokens returns the stored tokens for a production node under a
// token fingerprint.
func (t *Transient) ProductionTokens(nodeID int64, tokenKey string) []rules.Token {
	return t.production[nodeID][tokenKey]
}

// AddProductionTokens stores fired-path tokens for a production node.
func (t *Transient) AddProductionTokens(nodeID int64, tokens []rules.Token) {
	byKey := t.production[nodeID]
	if byKey == nil {
		byKey = make(map[string][]rules.Token)
		t.production[nodeID] = byKey
	}
	for _, tok := range tokens {
		key := rules.TokenKey(tok)
		byKey[key] = append(byKey[key], tok)
	}
}

// RemoveProductionTokens removes one stored occurrence per given token and
// returns the ones actually removed.
func (t *Transient) RemoveProductionTokens(nodeID int64, tokens []rules.Token) []rules.Token {
	byKey := t.production[nodeID]
	if byKey == nil {
		return nil
	}

	var removed []rules.Token
	for _, tok := range tokens {
		key := rules.TokenKey(tok)
		stored := byKey[key]
		if len(stored) == 0 {
			continue
		}
		removed = append(removed, stored[len(stored)-1])
		if len(stored) == 1 {
			delete(byKey, key)
		} else {
			byKey[key] = stored[:len(stored)-1]
		}
	}
	return removed
}

// supportKey addresses support records by producing node and token.
func supportKey(nodeID int64, tokenKey string) string {
	return rules.SupportKey(nodeID, tokenKey)
}

// AddSupport records facts logically inserted under (node, token).
func (t *Transient) AddSupport(nodeID int64, tokenKey string, facts []rules.Fact) {
	key := supportKey(nodeID, tokenKey)
	batch := make([]rules.Fact, len(facts))
	copy(batch, facts)
	t.support[key] = append(t.support[key], batch)
}

// HasSupport reports whether any support record exists for (node, token).
func (t *Transient) HasSupport(nodeID int64, tokenKey string) bool {
	return len(t.support[supportKey(nodeID, tokenKey)]) > 0
}

// TakeSupport removes and returns every fact batch recorded under
// (node, token). An insertion's support set is non-empty exactly while the
// insertion is present; taking it is the retraction side of that invariant.
func (t *Transient) TakeSupport(nodeID int64, tokenKey string) [][]rules.Fact {
	key := supportKey(nodeID, tokenKey)
	batches := t.support[key]
	delete(t.support, key)
	return batches
}

func copyElementStore(src map[int64]map[string][]rules.Element) map[int64]map[string][]rules.Element {
	dst := make(map[int64]map[string][]rules.Element, len(src))
	for node, byKey := range src {
		inner := make(map[string][]rules.Element, len(byKey))
		for key, elems := range byKey {
			copied := make([]rules.Element, len(elems))
			copy(copied, elems)
			inner[key] = copied
		}
		dst[node] = inner
	}
	return dst
}

func copyTokenStore(src map[int64]map[string][]rules.Token) map[int64]map[string][]rules.Token {
	dst := make(map[int64]map[string][]rules.Token, len(src))
	for node, byKey := range src {
		inner := make(map[string][]rules.Token, len(byKey))
		for key, tokens := range byKey {
			copied := make([]rules.Token, len(tokens))
			copy(copied, tokens)
			inner[key] = copied
		}
		dst[node] = inner
	}
	return dst
}

func copyAccumStore(src map[int64]map[string]map[string]Reduction) map[int64]map[string]map[string]Reduction {
	dst := make(map[int64]map[string]map[string]Reduction, len(src))
	for node, byJoin := range src {
		innerJoin := make(map[string]map[string]Reduction, len(byJoin))
		for joinKey, byGroup := range byJoin {
			innerGroup := make(map[string]Reduction, len(byGroup))
			for groupKey, r := range byGroup {
				candidates := make([]rules.Fact, len(r.Candidates))
				copy(candidates, r.Candidates)
				innerGroup[groupKey] = Reduction{
					GroupBindings: r.GroupBindings,
					Value:         r.Value,
					Candidates:    candidates,
				}
			}
			innerJoin[joinKey] = innerGroup
		}
		dst[node] = innerJoin
	}
	return dst
}

func copySupportStore(src map[string][][]rules.Fact) map[string][][]rules.Fact {
	dst := make(map[string][][]rules.Fact, len(src))
	for key, batches := range src {
		copied := make([][]rules.Fact, len(batches))
		for i, batch := range batches {
			b := make([]rules.Fact, len(batch))
			copy(b, batch)
			copied[i] = b
		}
		dst[key] = copied
	}
	return dst
}
