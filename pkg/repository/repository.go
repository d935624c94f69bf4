// Package repository provides typed record operations over a client.Client.
// The collection parameter is a generated Collections value, or a record.Name
// for collections only known at run time.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/cmmoran/pbmodelgen/pkg/client"
	"github.com/cmmoran/pbmodelgen/pkg/record"
)

// ErrInvalidCollection is returned before any request when the collection
// value reports itself invalid.
var ErrInvalidCollection = errors.New("invalid collection")

const (
	DefaultPage    = 1
	DefaultPerPage = 30
)

// Repository holds no state of its own besides the client it sends through.
type Repository struct {
	c *client.Client
}

func New(c *client.Client) *Repository {
	return &Repository{c: c}
}

func (r *Repository) Client() *client.Client { return r.c }

// ListOptions configures FindMany. Zero Page and PerPage take the defaults.
type ListOptions struct {
	Page      int
	PerPage   int
	Sort      string
	Filter    string
	Expand    string
	Fields    string
	SkipTotal bool
	// Token is sent verbatim as the Authorization header.
	Token string
}

func (o ListOptions) query() url.Values {
	page, perPage := o.Page, o.PerPage
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))
	setIf(q, "sort", o.Sort)
	setIf(q, "filter", o.Filter)
	setIf(q, "expand", o.Expand)
	setIf(q, "fields", o.Fields)
	if o.SkipTotal {
		q.Set("skipTotal", "1")
	}
	return q
}

// RecordOptions configures the single-record operations.
type RecordOptions struct {
	Expand string
	Fields string
	Token  string
}

func (o RecordOptions) query() url.Values {
	q := url.Values{}
	setIf(q, "expand", o.Expand)
	setIf(q, "fields", o.Fields)
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func requestOptions(token string, query url.Values, body any) *client.RequestOptions {
	opts := &client.RequestOptions{Query: query, JSONBody: body}
	if token != "" {
		opts.Headers = http.Header{"Authorization": {token}}
	}
	return opts
}

// ListResult is one page of a list endpoint. With SkipTotal the backend
// reports TotalItems and TotalPages as -1.
type ListResult[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

func checkCollection[C record.Collection](collection C) error {
	if !collection.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidCollection, string(collection))
	}
	return nil
}

func recordsPath[C record.Collection](collection C) string {
	return "/collections/" + url.PathEscape(string(collection)) + "/records"
}

func recordPath[C record.Collection](collection C, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

// FindMany fetches one page of records. The page envelope is decoded first
// and its items are then decoded into T, so an item that does not fit T is
// reported with its own body.
func FindMany[T any, C record.Collection](ctx context.Context, r *Repository, collection C, opts ListOptions) (*ListResult[T], error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	env, err := client.Call[ListResult[json.RawMessage]](ctx, r.c, http.MethodGet, recordsPath(collection),
		requestOptions(opts.Token, opts.query(), nil))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	page := env.Data
	out := &ListResult[T]{
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Items:      make([]T, 0, len(page.Items)),
	}
	for i, raw := range page.Items {
		var item T
		if err = json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("find %s: item %d: %w", collection,
				i, &client.DecodeError{Target: fmt.Sprintf("%T", item), Body: raw, Err: err})
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// FindAll pages through FindMany from opts.Page until a short or final page.
// SkipTotal is honored; the last page is then detected by its item count.
func FindAll[T any, C record.Collection](ctx context.Context, r *Repository, collection C, opts ListOptions) ([]T, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if opts.Page <= 0 {
		opts.Page = DefaultPage
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}

	var all []T
	for {
		page, err := FindMany[T](ctx, r, collection, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < opts.PerPage || (page.TotalPages >= 0 && page.Page >= page.TotalPages) {
			return all, nil
		}
		opts.Page++
	}
}

func FindOne[T any, C record.Collection](ctx context.Context, r *Repository, collection C, id string, opts RecordOptions) (*T, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	env, err := client.Call[T](ctx, r.c, http.MethodGet, recordPath(collection, id),
		requestOptions(opts.Token, opts.query(), nil))
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", collection, id, err)
	}
	return &env.Data, nil
}

// Create posts payload, normally a generated Create shape, and returns the
// stored record.
func Create[T any, C record.Collection](ctx context.Context, r *Repository, collection C, payload any, opts RecordOptions) (*T, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	env, err := client.Call[T](ctx, r.c, http.MethodPost, recordsPath(collection),
		requestOptions(opts.Token, opts.query(), payload))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	return &env.Data, nil
}

// Update patches the record with payload. Pass a generated Update shape so
// only the members that were set are sent.
func Update[T any, C record.Collection](ctx context.Context, r *Repository, collection C, id string, payload any, opts RecordOptions) (*T, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	env, err := client.Call[T](ctx, r.c, http.MethodPatch, recordPath(collection, id),
		requestOptions(opts.Token, opts.query(), payload))
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return &env.Data, nil
}

func Delete[C record.Collection](ctx context.Context, r *Repository, collection C, id string, opts RecordOptions) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	_, err := client.Call[json.RawMessage](ctx, r.c, http.MethodDelete, recordPath(collection, id),
		requestOptions(opts.Token, nil, nil))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}
