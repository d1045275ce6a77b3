package engine

import (
	"log/slog"

	"github.com/roach88/tercel/internal/listener"
	"github.com/roach88/tercel/internal/memory"
	"github.com/roach88/tercel/internal/rules"
)

// config holds session construction options with their defaults applied.
type config struct {
	factType  func(rules.Fact) string
	ancestors func(typeTag string) []string
	groupFn   func(r *rules.Rule) any
	groupSort memory.GroupSortFn
	listeners []listener.Persistent
	cache     bool
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		factType:  rules.TypeName,
		ancestors: func(string) []string { return nil },
		groupFn:   func(r *rules.Rule) any { return r.Salience },
		groupSort: memory.DefaultGroupSort,
		cache:     true,
		logger:    slog.Default(),
	}
}

// Option configures session construction.
type Option func(*config)

// WithFactTypeFn sets the function mapping each fact to its type tag.
// The default uses the fact's Go type rendering.
func WithFactTypeFn(fn func(rules.Fact) string) Option {
	return func(c *config) { c.factType = fn }
}

// WithAncestorsFn sets the function mapping a type tag to its ordered
// ancestor tags. Facts also activate alpha nodes keyed on ancestors.
func WithAncestorsFn(fn func(typeTag string) []string) Option {
	return func(c *config) { c.ancestors = fn }
}

// WithActivationGroupFn sets the function assigning each rule to an
// activation group. The default groups by salience.
func WithActivationGroupFn(fn func(r *rules.Rule) any) Option {
	return func(c *config) { c.groupFn = fn }
}

// WithActivationGroupSortFn sets the ordering over activation groups. The
// default fires numerically greater groups first.
func WithActivationGroupSortFn(fn memory.GroupSortFn) Option {
	return func(c *config) { c.groupSort = fn }
}

// WithListeners attaches listeners to the session.
func WithListeners(listeners ...listener.Persistent) Option {
	return func(c *config) { c.listeners = append(c.listeners, listeners...) }
}

// WithCache toggles routing memoization. Disabling it recomputes the
// alpha-routing for every fact batch.
func WithCache(enabled bool) Option {
	return func(c *config) { c.cache = enabled }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}
