package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/chetansirohi/Leads-Agent/internal/config"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (l *NoOpLogger) Info(msg string, args ...interface{})  {}
func (l *NoOpLogger) Error(msg string, args ...interface{}) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

func makeFakeToken(t *testing.T, issuer, subject string) string {
	t.Helper()

	claims := map[string]interface{}{
		"iss": issuer,
		"aud": "test-client",
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Add(-1 * time.Minute).Unix(),
	}
	headerData := map[string]interface{}{
		"alg": "RS256",
		"typ": "JWT",
		"kid": "test-key",
	}
	headerBytes, _ := json.Marshal(headerData)
	payload, _ := json.Marshal(claims)
	return base64.RawURLEncoding.EncodeToString(headerBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func runMiddleware(a *Auth, req *http.Request) (echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return c, a.RequireAuth(next)(c)
}

func TestRequireAuth_BearerToken_ExtractsSubject(t *testing.T) {
	issuer := "https://test-issuer.com"
	verifier := oidc.NewVerifier(issuer, &MockKeySet{}, &oidc.Config{
		ClientID:          "test-client",
		SkipClientIDCheck: true, // Matches logic in auth.go for apiVerifier
	})
	a := &Auth{apiVerifier: verifier, logger: &NoOpLogger{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/thread-1/decision", nil)
	req.Header.Set("Authorization", "Bearer "+makeFakeToken(t, issuer, "reviewer-42"))

	c, err := runMiddleware(a, req)
	assert.NoError(t, err)
	assert.Equal(t, "reviewer-42", c.Get(ContextKeySubject))
}

func TestRequireAuth_MissingToken(t *testing.T) {
	verifier := oidc.NewVerifier("https://test-issuer.com", &MockKeySet{}, &oidc.Config{SkipClientIDCheck: true})
	a := &Auth{apiVerifier: verifier, logger: &NoOpLogger{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/thread-1/decision", nil)
	_, err := runMiddleware(a, req)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	verifier := oidc.NewVerifier("https://test-issuer.com", &MockKeySet{}, &oidc.Config{SkipClientIDCheck: true})
	a := &Auth{apiVerifier: verifier, logger: &NoOpLogger{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/thread-1/decision", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")

	_, err := runMiddleware(a, req)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAuth_BypassMode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.Enable = false

	a, err := New(context.Background(), cfg, &NoOpLogger{})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/thread-1/decision", nil)
	c, err := runMiddleware(a, req)
	assert.NoError(t, err)
	assert.Equal(t, "anonymous", c.Get(ContextKeySubject))
}

func TestNew_IncompleteConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.Enable = true

	_, err := New(context.Background(), cfg, &NoOpLogger{})
	assert.Error(t, err)
}
