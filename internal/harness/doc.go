// Package harness runs declarative conformance scenarios against a
// registered rulebase.
//
// A scenario is a YAML file naming a rulebase and a sequence of steps:
// fact insertions, retractions, rule firings, and queries. Files are
// validated against an embedded CUE schema before execution, so a malformed
// scenario fails with a schema error instead of a confusing runtime one.
//
// Query results are captured in deterministic order and compared against
// golden files with goldie:
//
//	go test ./internal/harness -update
//
// regenerates the golden files.
package harness
