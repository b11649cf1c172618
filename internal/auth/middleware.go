package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskworks/service-desk/internal/domain"
	apperrors "github.com/deskworks/service-desk/pkg/util/errorutil"
)

const viewerKey = "auth_viewer"

// AuthMiddleware validates bearer tokens and stores the caller's identity.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	viewer := claims.Viewer()
	c.Locals(viewerKey, viewer)
	return c.Next()
}

// ViewerFromContext retrieves the authenticated identity.
func ViewerFromContext(c *fiber.Ctx) (domain.Viewer, bool) {
	viewer, ok := c.Locals(viewerKey).(domain.Viewer)
	return viewer, ok
}
