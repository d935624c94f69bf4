package source

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

// Export reads a collections export file as produced by the backend's admin
// UI: a JSON array of collections carrying either "schema" or "fields".
type Export struct {
	Path string
}

type exportedCollection struct {
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Schema []rawField `json:"schema"`
	Fields []rawField `json:"fields"`
}

func (e *Export) Collections(_ context.Context) ([]*model.Collection, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read export: %w", ErrSource, err)
	}
	return DecodeExport(data)
}

// DecodeExport parses export JSON, preserving collection and field order.
func DecodeExport(data []byte) ([]*model.Collection, error) {
	var exported []exportedCollection
	if err := json.Unmarshal(data, &exported); err != nil {
		return nil, fmt.Errorf("%w: decode export: %w", ErrSource, err)
	}

	out := make([]*model.Collection, 0, len(exported))
	for _, c := range exported {
		raws := c.Schema
		if len(raws) == 0 {
			raws = c.Fields
		}
		out = append(out, &model.Collection{
			Name:   c.Name,
			Kind:   model.CollectionKind(c.Type),
			Fields: toFields(raws),
		})
	}
	return out, nil
}
