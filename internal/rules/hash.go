package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for fingerprint computation. The prefix keeps binding keys,
// token keys, and group keys from colliding even when their rendered content
// happens to match.
const (
	domainBinding = "tercel/binding/v1"
	domainToken   = "tercel/token/v1"
	domainGroup   = "tercel/group/v1"
	domainSupport = "tercel/support/v1"
)

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null byte
// separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// renderBindings produces a deterministic textual rendering of a binding map.
// Keys are sorted; values render with their dynamic type so that, for
// example, int64(1) and "1" never collide.
func renderBindings(b Bindings) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%s=%T:%v", k, b[k], b[k])
	}
	return sb.String()
}

// BindingKey fingerprints the subset of b restricted to keys. Memories index
// their rows by this key; two binding maps that agree on the key variables
// land in the same slot.
func BindingKey(b Bindings, keys []string) string {
	return hashWithDomain(domainBinding, []byte(renderBindings(RestrictBindings(b, keys))))
}

// FullBindingKey fingerprints every variable in b. Accumulator group keys
// use this: pre-reduction groups elements by their complete bindings.
func FullBindingKey(b Bindings) string {
	return hashWithDomain(domainGroup, []byte(renderBindings(b)))
}

// TokenKey fingerprints a complete token: its match chain and bindings.
// Support records and production memories are addressed by this key.
func TokenKey(t Token) string {
	var sb strings.Builder
	for _, m := range t.Matches {
		fmt.Fprintf(&sb, "(%d %T:%v)", m.NodeID, m.Fact, m.Fact)
	}
	sb.WriteByte('|')
	sb.WriteString(renderBindings(t.Bindings))
	return hashWithDomain(domainToken, []byte(sb.String()))
}

// SupportKey addresses a logical-insertion support record by the production
// node that fired and the fingerprint of the token it fired on.
func SupportKey(nodeID int64, tokenKey string) string {
	return hashWithDomain(domainSupport, []byte(fmt.Sprintf("%d:%s", nodeID, tokenKey)))
}

// NormalizeName returns the NFC normalization of a rule, query, or rulebase
// name. Lookups by name normalize both sides so that visually identical
// names compare equal regardless of their Unicode composition.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
