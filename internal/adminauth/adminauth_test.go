package adminauth //nolint:testpackage // drives the session clock

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "session-secret-for-tests-0123456789"

func TestNewSessionManager(t *testing.T) {
	_, err := NewSessionManager("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)

	m, err := NewSessionManager(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, m.TTL())
}

func TestSession_IssueValidate(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("iphash")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "iphash", claims.IPHash)
}

func TestSession_Expired(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := m.Issue("iphash")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession_Rejects(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewSessionManager("another-secret-entirely-9876543210", time.Hour)
	require.NoError(t, err)

	foreign, err := other.Issue("x")
	require.NoError(t, err)

	wrongRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: RoleAdmin}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"foreign":    foreign,
		"wrong role": wrongRole,
		"no expiry":  noExpiry,
		"garbage":    "not.a.token",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordVerifier(t *testing.T) {
	bcryptHash, err := HashPassword("s3cret")
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("legacy"))
	legacy := hex.EncodeToString(sum[:])

	tests := []struct {
		name     string
		hash     string
		plain    string
		password string
		mode     string
		want     bool
	}{
		{"bcrypt ok", bcryptHash, "", "s3cret", "bcrypt", true},
		{"bcrypt wrong", bcryptHash, "", "nope", "bcrypt", false},
		{"sha256 ok", legacy, "", "legacy", "sha256", true},
		{"sha256 uppercase hex", "  " + hexUpper(legacy), "", "legacy", "sha256", true},
		{"sha256 wrong", legacy, "", "other", "sha256", false},
		{"hash wins over plaintext", legacy, "plain", "plain", "sha256", false},
		{"plaintext ok", "", "plain", "plain", "plaintext", true},
		{"dev default", "", "", DevPassword, "development-default", true},
		{"empty never matches", "", "", "", "development-default", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPasswordVerifier(tt.hash, tt.plain)
			assert.Equal(t, tt.want, v.Verify(tt.password))
			assert.Equal(t, tt.mode, v.Mode())
		})
	}
}

func hexUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := m.Issue("h")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", Middleware(m), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.IPHash)
	})

	tests := []struct {
		name  string
		setup func(*http.Request)
		code  int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"bad cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "junk"}) }, http.StatusUnauthorized},
		{"basic scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}
