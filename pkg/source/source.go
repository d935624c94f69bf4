// Package source reads collection descriptors from a PocketBase-style
// metadata store.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cmmoran/pbmodelgen/internal/model"
)

var ErrSource = errors.New("schema source")

// Source yields collection descriptors in generation order.
type Source interface {
	Collections(ctx context.Context) ([]*model.Collection, error)
}

// rawField is one entry of a collection's schema (or fields) JSON.
type rawField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	System   bool   `json:"system"`
}

// decodeFields parses a schema JSON cell. Backend-managed entries (system:
// true) are dropped; the generator adds system members itself.
func decodeFields(collection string, data []byte) ([]*model.Field, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raws []rawField
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: decode fields of %q: %w", ErrSource, collection, err)
	}
	return toFields(raws), nil
}

func toFields(raws []rawField) []*model.Field {
	out := make([]*model.Field, 0, len(raws))
	for _, r := range raws {
		if r.System {
			continue
		}
		out = append(out, &model.Field{
			Name:     r.Name,
			Kind:     model.FieldKind(r.Type),
			Required: r.Required,
		})
	}
	return out
}

// Static serves descriptors held in memory.
type Static []*model.Collection

func (s Static) Collections(context.Context) ([]*model.Collection, error) {
	return s, nil
}
