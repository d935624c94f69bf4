package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cmmoran/pbmodelgen/pkg/client"
	"github.com/cmmoran/pbmodelgen/pkg/record"
)

// AuthResult is the body returned by the auth endpoints of an auth
// collection. Token is what later calls pass as their Token option.
type AuthResult[T any] struct {
	Token  string `json:"token"`
	Record T      `json:"record"`
}

type passwordCredentials struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

func authPath[C record.Collection](collection C, action string) string {
	return "/collections/" + url.PathEscape(string(collection)) + "/" + action
}

// AuthWithPassword exchanges an identity (email or username) and password
// for a token. The token is returned, never stored.
func AuthWithPassword[T any, C record.Collection](ctx context.Context, r *Repository, collection C, identity, password string, opts RecordOptions) (*AuthResult[T], error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	env, err := client.Call[AuthResult[T]](ctx, r.c, http.MethodPost, authPath(collection, "auth-with-password"),
		requestOptions(opts.Token, opts.query(), passwordCredentials{Identity: identity, Password: password}))
	if err != nil {
		return nil, fmt.Errorf("auth %s: %w", collection, err)
	}
	return &env.Data, nil
}

// AuthRefresh trades the token in opts for a fresh one.
func AuthRefresh[T any, C record.Collection](ctx context.Context, r *Repository, collection C, opts RecordOptions) (*AuthResult[T], error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if opts.Token == "" {
		return nil, fmt.Errorf("auth refresh %s: token is required", collection)
	}
	env, err := client.Call[AuthResult[T]](ctx, r.c, http.MethodPost, authPath(collection, "auth-refresh"),
		requestOptions(opts.Token, opts.query(), nil))
	if err != nil {
		return nil, fmt.Errorf("auth refresh %s: %w", collection, err)
	}
	return &env.Data, nil
}
