package graphql_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	gql "github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/pkg/graphql"
)

func echoSchema(t *testing.T) gql.Schema {
	t.Helper()
	schema, err := graphql.NewSchema(gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"echo": &gql.Field{
				Type: gql.String,
				Args: gql.FieldConfigArgument{"msg": &gql.ArgumentConfig{Type: gql.String}},
				Resolve: func(p gql.ResolveParams) (any, error) {
					return p.Args["msg"], nil
				},
			},
		},
	}))
	require.NoError(t, err)
	return schema
}

func TestHandlerPostAndGet(t *testing.T) {
	h := graphql.Handler(echoSchema(t))

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"query($m: String){ echo(msg: $m) }","variables":{"m":"hi"}}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"echo":"hi"}}`, w.Body.String())

	q := url.Values{"query": {`{ echo(msg: "get") }`}}
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"echo":"get"}}`, w.Body.String())
}

func TestHandlerRejects(t *testing.T) {
	h := graphql.Handler(echoSchema(t))

	cases := map[string]struct {
		req  *http.Request
		code int
	}{
		"bad json":      {httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{")), http.StatusBadRequest},
		"empty query":   {httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)), http.StatusBadRequest},
		"bad variables": {httptest.NewRequest(http.MethodGet, "/graphql?query=x&variables=nope", nil), http.StatusBadRequest},
		"wrong method":  {httptest.NewRequest(http.MethodDelete, "/graphql", nil), http.StatusMethodNotAllowed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h(w, tc.req)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"errors"`)
		})
	}

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ nope }"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errors"`)
}
