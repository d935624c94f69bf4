package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/pbmodelgen/pkg/record"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	require.NoError(t, err)
	return c
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New()
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeBlocking},
		{in: "Blocking", want: ModeBlocking},
		{in: "async", want: ModeAwaitable},
		{in: "awaitable", want: ModeAwaitable},
		{in: "streaming", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendClassification(ttt *testing.T) {
	type item struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    error
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{
			name:    "ok",
			handler: respond(http.StatusOK, `{"id":"a1","title":"hello"}`),
		},
		{
			name:       "not found",
			handler:    respond(http.StatusNotFound, `{"code":404,"message":"The requested resource wasn't found.","data":{}}`),
			wantErr:    ErrTransport,
			wantStatus: http.StatusNotFound,
			wantCode:   404,
			wantMsg:    "The requested resource wasn't found.",
		},
		{
			name:       "error key in 2xx body",
			handler:    respond(http.StatusOK, `{"error":"rate limited"}`),
			wantErr:    ErrDomain,
			wantStatus: http.StatusOK,
			wantMsg:    "rate limited",
		},
		{
			name:    "malformed body",
			handler: respond(http.StatusOK, `{"id":`),
			wantErr: ErrDecode,
		},
		{
			name:    "wrong shape",
			handler: respond(http.StatusOK, `{"id":42}`),
			wantErr: ErrDecode,
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			env, err := Send[item](context.Background(), c, http.MethodGet, "/api/collections/posts/records/a1", nil)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, item{ID: "a1", Title: "hello"}, env.Data)
				assert.Equal(t, http.StatusOK, env.Response.StatusCode)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantStatus == 0 {
				return
			}
			var re *ResponseError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.wantStatus, re.StatusCode)
			assert.Equal(t, http.MethodGet, re.Method)
			api, ok := ParseError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, api.Code)
			assert.Equal(t, tt.wantMsg, api.Message)
		})
	}
}

func TestSendUntyped(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `{"id":"a1","n":3}`))
	env, err := Send[any](context.Background(), c, http.MethodGet, "x", nil)
	require.NoError(t, err)
	m, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a1", m["id"])
	assert.Equal(t, float64(3), m["n"])
}

func TestSendEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	env, err := Send[any](context.Background(), c, http.MethodDelete, "/things/1", nil)
	require.NoError(t, err)
	assert.Nil(t, env.Data)
	assert.Equal(t, http.StatusNoContent, env.Response.StatusCode)
}

func TestValidationErrorData(t *testing.T) {
	c := newTestClient(t, respond(http.StatusBadRequest,
		`{"code":400,"message":"Failed to create record.","data":{"title":{"code":"validation_required","message":"Missing required value."}}}`))
	_, err := Send[any](context.Background(), c, http.MethodPost, "/things", &RequestOptions{JSONBody: map[string]any{}})
	require.ErrorIs(t, err, ErrTransport)
	api, ok := ParseError(err)
	require.True(t, ok)
	assert.Equal(t, 400, api.Code)
	assert.Equal(t, "validation_required", api.Data["title"].Code)
}

func TestModeMismatch(t *testing.T) {
	blocking := newTestClient(t, respond(http.StatusOK, `{}`))
	_, err := SendAsync[any](context.Background(), blocking, http.MethodGet, "x", nil).Await(context.Background())
	require.ErrorIs(t, err, ErrMode)

	awaitable := newTestClient(t, respond(http.StatusOK, `{}`), WithMode(ModeAwaitable))
	_, err = Send[any](context.Background(), awaitable, http.MethodGet, "x", nil)
	require.ErrorIs(t, err, ErrMode)
}

func TestSendAsync(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"ok":true}`)
	}, WithMode(ModeAwaitable))

	f := SendAsync[map[string]bool](context.Background(), c, http.MethodGet, "slow", nil)
	select {
	case <-f.Done():
		t.Fatal("future resolved before the server replied")
	default:
	}
	close(release)

	env, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.True(t, env.Data["ok"])

	// Call dispatches on mode.
	env, err = Call[map[string]bool](context.Background(), c, http.MethodGet, "slow", nil)
	require.NoError(t, err)
	assert.True(t, env.Data["ok"])
}

func TestAwaitContextDone(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}, WithMode(ModeAwaitable))
	defer close(block)

	f := SendAsync[any](context.Background(), c, http.MethodGet, "hang", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCallTimeout(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	_, err := Send[any](context.Background(), c, http.MethodGet, "hang", &RequestOptions{Timeout: 20 * time.Millisecond})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	var cookie string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		if ck, err := r.Cookie("session"); err == nil {
			cookie = ck.Value
		}
		_, _ = io.WriteString(w, `{}`)
	},
		WithBearerToken("secret"),
		WithHeaders(http.Header{"X-Client": {"pbmodelgen"}, "X-Override": {"default"}}),
	)

	_, err := Send[any](context.Background(), c, http.MethodPost, "/things", &RequestOptions{
		JSONBody: map[string]string{"a": "b"},
		Headers:  http.Header{"X-Override": {"call"}},
		Cookies:  []*http.Cookie{{Name: "session", Value: "s1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "pbmodelgen", got.Get("X-Client"))
	assert.Equal(t, "call", got.Get("X-Override"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "s1", cookie)
}

func TestRequestQueryAndPath(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := Send[any](context.Background(), c, http.MethodGet, "api/things", &RequestOptions{
		Query: url.Values{"page": {"2"}, "filter": {"a = 1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/things", gotPath)
	q, err := url.ParseQuery(gotQuery)
	require.NoError(t, err)
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "a = 1", q.Get("filter"))
}

func TestRequestBodies(t *testing.T) {
	var ct, body string
	var form url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/") {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			form = r.MultipartForm.Value
			f, _, err := r.FormFile("avatar")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			b, _ := io.ReadAll(f)
			body = string(b)
		} else {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
		}
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	_, err := Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{FormData: url.Values{"name": {"ann"}}})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", ct)
	assert.Equal(t, "name=ann", body)

	_, err = Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{
		FormData: url.Values{"name": {"ann"}},
		Files:    []File{{Field: "avatar", Name: "a.png", Reader: strings.NewReader("PNG")}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "multipart/form-data"))
	assert.Equal(t, []string{"ann"}, form["name"])
	assert.Equal(t, "PNG", body)

	_, err = Send[any](ctx, c, http.MethodPut, "x", &RequestOptions{Content: strings.NewReader("raw")})
	require.NoError(t, err)
	assert.Equal(t, "raw", body)
}

func TestRequestRejected(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `{}`))
	ctx := context.Background()

	_, err := Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{
		JSONBody: map[string]string{},
		FormData: url.Values{"a": {"b"}},
	})
	require.ErrorIs(t, err, ErrConflictingBody)

	_, err = Send[any](ctx, c, "TRACE", "x", nil)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestTypedNilJSONBody(t *testing.T) {
	var ct, body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	_, err := Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{JSONBody: (*postUpdate)(nil)})
	require.NoError(t, err)
	assert.Empty(t, ct)
	assert.Empty(t, body)

	_, err = Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{
		JSONBody: map[string]any(nil),
		FormData: url.Values{"name": {"ann"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "name=ann", body)

	_, err = Send[any](ctx, c, http.MethodPost, "x", &RequestOptions{JSONBody: &postUpdate{}})
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, `{}`, body)
}

func TestHasJSONBody(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{name: "nil", in: nil, want: false},
		{name: "typed nil pointer", in: (*postUpdate)(nil), want: false},
		{name: "nil map", in: map[string]any(nil), want: false},
		{name: "nil raw message", in: []byte(nil), want: false},
		{name: "struct", in: postUpdate{}, want: true},
		{name: "pointer", in: &postUpdate{}, want: true},
		{name: "empty map", in: map[string]any{}, want: true},
		{name: "zero number", in: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasJSONBody(tt.in))
		})
	}
}

type postUpdate struct {
	Title    *record.Nullable[string]  `json:"title,omitempty"`
	Views    *record.Nullable[float64] `json:"views,omitempty"`
	Category *record.Nullable[string]  `json:"category,omitempty"`
}

func TestEncodeJSONSparseUpdate(t *testing.T) {
	data, err := EncodeJSON(postUpdate{
		Title:    record.Set("hello"),
		Category: record.Null[string](),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello","category":null}`, string(data))
	assert.NotContains(t, string(data), "views")

	raw := []byte(`{"pre":"encoded"}`)
	data, err = EncodeJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestNewFromConfig(t *testing.T) {
	var auth, extra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		extra = r.Header.Get("X-Extra")
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := NewFromConfig(Config{
		BaseURL: srv.URL + "/",
		Token:   "tok",
		Mode:    "async",
		Headers: map[string]string{"x-extra": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, ModeAwaitable, c.Mode())
	assert.Equal(t, srv.URL, c.BaseURL())

	_, err = Call[any](context.Background(), c, http.MethodGet, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "1", extra)

	_, err = NewFromConfig(Config{BaseURL: srv.URL, Mode: "psychic"})
	require.Error(t, err)
}
