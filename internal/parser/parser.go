package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmmoran/pbmodelgen/internal/model"
	"github.com/cmmoran/pbmodelgen/pkg/parser"
)

// CollectionSource yields collection descriptors in generation order.
type CollectionSource interface {
	Collections(ctx context.Context) ([]*model.Collection, error)
}

// Parser holds state/results of a generation run.
type Parser struct {
	Opts parser.Options

	Collections []*model.Collection
	Triples     []*model.TypeTriple
}

// New creates a Parser from functional options.
func New(opts ...parser.Option) (*Parser, error) {
	o := parser.NewOptions()
	for _, fn := range opts {
		fn(o)
	}

	return NewWithOpts(o)
}

func NewWithOpts(opts *parser.Options) (*Parser, error) {
	if opts == nil {
		return nil, fmt.Errorf("nil options")
	}
	opts.Normalize()

	return &Parser{
		Opts:        *opts,
		Collections: make([]*model.Collection, 0),
		Triples:     make([]*model.TypeTriple, 0),
	}, nil
}

// Parse reads descriptors from src and builds the IR.
func (p *Parser) Parse(ctx context.Context, src CollectionSource) error {
	cols, err := src.Collections(ctx)
	if err != nil {
		return &GenerationError{Err: err}
	}
	return p.ParseCollections(cols)
}

// ParseCollections builds the IR from descriptors already in memory. On
// error the Parser keeps no partial result.
func (p *Parser) ParseCollections(cols []*model.Collection) error {
	triples, err := NewBuilder(&p.Opts, cols).BuildAll()
	if err != nil {
		p.Collections, p.Triples = nil, nil
		return err
	}
	p.Collections = cols
	p.Triples = triples
	slog.Debug("built collection types", "collections", len(cols), "generated", len(triples))
	return nil
}

// Triple returns the generated triple for a collection name, or nil.
func (p *Parser) Triple(collection string) *model.TypeTriple {
	for _, t := range p.Triples {
		if t.Collection.Name == collection {
			return t
		}
	}
	return nil
}
