package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(nil, []byte("test-secret"))
}

func TestIssueAndParseToken(t *testing.T) {
	s := newTestService()
	userID := uuid.New()

	token, err := s.IssueToken(userID, RolePublisher)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != userID || id.Role != RolePublisher {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	s := newTestService()
	token, _ := s.IssueToken(uuid.New(), RoleAdmin)

	other := NewService(nil, []byte("another-secret"))
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected signature mismatch")
	}

	expired := newTestService()
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _ := expired.IssueToken(uuid.New(), RoleAdmin)
	if _, err := s.ParseToken(old); err == nil {
		t.Fatal("expected expired token to fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": uuid.NewString()})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := s.ParseToken(unsigned); err == nil {
		t.Fatal("expected alg=none to be rejected")
	}
}

func TestResolveSecret(t *testing.T) {
	got, err := ResolveSecret("  configured ", zap.NewNop())
	if err != nil || string(got) != "configured" {
		t.Fatalf("unexpected secret %q (%v)", got, err)
	}
	a, _ := ResolveSecret("", zap.NewNop())
	b, _ := ResolveSecret("", zap.NewNop())
	if len(a) == 0 || string(a) == string(b) {
		t.Fatal("expected random fallback secrets")
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService()
	userID := uuid.New()
	token, _ := s.IssueToken(userID, RoleApplicant)

	tests := []struct {
		name   string
		header string
		mw     echo.MiddlewareFunc
		want   int
	}{
		{"required missing", "", s.Middleware, http.StatusUnauthorized},
		{"required bad format", "Token " + token, s.Middleware, http.StatusUnauthorized},
		{"required ok", "Bearer " + token, s.Middleware, http.StatusOK},
		{"optional anonymous", "", s.OptionalMiddleware, http.StatusOK},
		{"optional invalid", "Bearer nope", s.OptionalMiddleware, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := tt.mw(func(c echo.Context) error {
				if id, ok := IdentityFrom(c); ok && id.UserID != userID {
					t.Fatalf("unexpected identity %+v", id)
				}
				return c.NoContent(http.StatusOK)
			})(c)

			status := rec.Code
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			if status != tt.want {
				t.Fatalf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := RequireRole(RoleAdmin, RolePublisher)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err, ok := handler(c).(*echo.HTTPError); !ok || err.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}

	SetIdentity(c, Identity{UserID: uuid.New(), Role: RoleApplicant})
	if err, ok := handler(c).(*echo.HTTPError); !ok || err.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for applicant, got %v", err)
	}

	SetIdentity(c, Identity{UserID: uuid.New(), Role: RolePublisher})
	if err := handler(c); err != nil {
		t.Fatalf("expected publisher to pass, got %v", err)
	}
}
