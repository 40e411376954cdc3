package ginserver

import (
	"log/slog"
	"strings"

	gin "github.com/gin-gonic/gin"

	"shareit/internal/app/policies"
	"shareit/internal/domain/shared/apperr"
	"shareit/internal/infra/security"
)

const principalContextKey = "shareit.principal"

type principal struct {
	ID    string
	Roles []string
}

func (p principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// TokenVerifier turns a bearer token into claims.
type TokenVerifier interface {
	Verify(raw string) (*security.Claims, error)
}

// AuthMiddleware resolves the bearer token, when present, into the request principal.
// Requests without a valid token continue anonymously; the handlers decide what that means.
type AuthMiddleware struct {
	Tokens TokenVerifier
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Tokens == nil {
		c.Next()
		return
	}
	claims, err := m.Tokens.Verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	p := principal{ID: claims.Subject, Roles: claims.Roles}
	c.Set(principalContextKey, p)
	c.Request = c.Request.WithContext(policies.WithUser(c.Request.Context(), p.ID))
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// actorUID is the signed-in user or "". Anonymous requests still reach the engine, which
// rejects them with not_authenticated.
func actorUID(c *gin.Context) string {
	p, _ := currentPrincipal(c)
	return p.ID
}

func requireRole(c *gin.Context, role string) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		writeError(c, apperr.NotAuthenticated("please sign in first"))
		return principal{}, false
	}
	if role != "" && !p.HasRole(role) {
		writeError(c, apperr.Forbidden("insufficient permissions"))
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
