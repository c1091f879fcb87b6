package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/click"
	"github.com/Eninte/ai-resource-navigator/internal/handler"
	"github.com/Eninte/ai-resource-navigator/internal/middleware"
	"github.com/Eninte/ai-resource-navigator/internal/redirect"
	"github.com/Eninte/ai-resource-navigator/internal/store/memstore"
)

type redirectEnv struct {
	router   *gin.Engine
	store    *memstore.Store
	tokens   *redirect.Service
	recorder *click.Recorder
}

func newRedirectEnv(t *testing.T) *redirectEnv {
	t.Helper()
	s := seededStore(t)
	tokens := newTokens(t)
	rec := click.NewRecorder(s, click.Config{FlushInterval: 10 * time.Millisecond}, nil, nil)
	rec.Start()
	t.Cleanup(rec.Stop)

	h := handler.NewRedirectHandler(s, tokens, rec, newHasher(), logger.NewNop(), nil)
	r := newRouter()
	r.GET("/api/go/:id", middleware.BotFilter(), h.Go)
	return &redirectEnv{router: r, store: s, tokens: tokens, recorder: rec}
}

func (e *redirectEnv) url(t *testing.T, id string) string {
	t.Helper()
	token, err := e.tokens.Issue(id)
	require.NoError(t, err)
	return "/api/go/" + id + "?token=" + token
}

var consent = &http.Cookie{Name: handler.ConsentCookie, Value: handler.ConsentAccepted}

func TestGo_RedirectsAndRecordsConsentedClick(t *testing.T) {
	e := newRedirectEnv(t)

	req := httptest.NewRequest(http.MethodGet, e.url(t, "r1"), http.NoBody)
	req.Header.Set("X-Forwarded-For", testClientIP)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "https://navigator.example/")
	req.AddCookie(consent)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://r1.example", w.Header().Get("Location"))

	e.recorder.Stop()
	clicks := e.store.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, "r1", clicks[0].ResourceID)
	assert.Equal(t, newHasher().Hash(testClientIP), clicks[0].IPHash)
	assert.NotContains(t, clicks[0].IPHash, testClientIP)
	assert.Equal(t, "Mozilla/5.0", clicks[0].UserAgent)
	assert.Equal(t, "https://navigator.example/", clicks[0].Referrer)
}

func TestGo_NoConsentNoClick(t *testing.T) {
	e := newRedirectEnv(t)

	w := doRequest(e.router, http.MethodGet, e.url(t, "r1"), nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = doRequest(e.router, http.MethodGet, e.url(t, "r1"), nil,
		&http.Cookie{Name: handler.ConsentCookie, Value: "rejected"})
	require.Equal(t, http.StatusFound, w.Code)

	e.recorder.Stop()
	assert.Empty(t, e.store.Clicks())
}

func TestGo_BotIsRedirectedButNotRecorded(t *testing.T) {
	e := newRedirectEnv(t)

	req := httptest.NewRequest(http.MethodGet, e.url(t, "r1"), http.NoBody)
	req.Header.Set("User-Agent", "Googlebot/2.1")
	req.AddCookie(consent)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	e.recorder.Stop()
	assert.Empty(t, e.store.Clicks())
}

func TestGo_TokenRejections(t *testing.T) {
	e := newRedirectEnv(t)
	otherToken, err := e.tokens.Issue("r2")
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
	}{
		{"missing token", "/api/go/r1"},
		{"garbage token", "/api/go/r1?token=not-a-token"},
		{"token for another resource", "/api/go/r1?token=" + otherToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(e.router, http.MethodGet, tt.target, nil, consent)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
		})
	}
}

func TestGo_UnpublishedOrMissingIsNotFound(t *testing.T) {
	e := newRedirectEnv(t)

	for _, id := range []string{"r5", "r6", "nope"} {
		w := doRequest(e.router, http.MethodGet, e.url(t, id), nil, consent)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.JSONEq(t, `{"error":"Resource not found"}`, w.Body.String())
	}
}

func TestGo_StoreFailureIsInternalError(t *testing.T) {
	e := newRedirectEnv(t)
	target := e.url(t, "r1")
	e.store.FailWith = errors.New("down")

	w := doRequest(e.router, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestGo_DelistedAfterIssueIsNotFound(t *testing.T) {
	e := newRedirectEnv(t)
	target := e.url(t, "r1")

	r, err := e.store.GetResource(context.Background(), "r1")
	require.NoError(t, err)
	r.Status = "delisted"
	require.NoError(t, e.store.UpdateResource(context.Background(), r))

	w := doRequest(e.router, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
