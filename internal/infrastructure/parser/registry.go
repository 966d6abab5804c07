package parser

import (
	"fmt"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// Factory builds a parser bound to one source config. Construction fails on
// configuration errors (missing RSS URL, missing required selectors).
type Factory func(src domain.Source) (ports.ArticleParser, error)

// Registry keeps a mapping from parser types to their factories. An unknown
// type resolves to an error the orchestrator treats as a per-source failure.
type Registry struct {
	factories map[domain.ParserType]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[domain.ParserType]Factory{}}
}

// Register adds or replaces a factory for a parser type.
func (r *Registry) Register(t domain.ParserType, f Factory) {
	if r.factories == nil {
		r.factories = map[domain.ParserType]Factory{}
	}
	r.factories[t] = f
}

// Resolve instantiates the parser matching the source's parser type.
func (r *Registry) Resolve(src domain.Source) (ports.ArticleParser, error) {
	factory, ok := r.factories[src.ParserType]
	if !ok {
		return nil, fmt.Errorf("unknown parser type %q for source %s", src.ParserType, src.Name)
	}
	return factory(src)
}
