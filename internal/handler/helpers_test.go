package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/iphash"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
	"github.com/Eninte/ai-resource-navigator/internal/store/memstore"
	"github.com/Eninte/ai-resource-navigator/internal/store/storetest"
)

const (
	testTokenSecret = "test-token-secret"
	testSalt        = "test-salt"
	testClientIP    = "203.0.113.7"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func seededStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	for _, r := range storetest.Fixtures() {
		r := r
		require.NoError(t, s.CreateResource(context.Background(), &r))
	}
	return s
}

func newTokens(t *testing.T) *redirect.Service {
	t.Helper()
	tokens, err := redirect.NewService(testTokenSecret, 0)
	require.NoError(t, err)
	return tokens
}

func newHasher() *iphash.Hasher {
	return iphash.New(testSalt)
}

func doRequest(r http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Forwarded-For", testClientIP)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func published(id, name, category string) domain.Resource {
	return domain.Resource{
		ID: id, Name: name, URL: "https://" + id + ".example", Category: category,
		Price: domain.PriceFree, Status: domain.StatusPublished,
	}
}
