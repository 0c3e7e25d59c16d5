package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/dto"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// SessionHandler mints dashboard session tokens from API keys.
type SessionHandler struct {
	tokens *auth.TokenManager
}

// NewSessionHandler constructs handler.
func NewSessionHandler(tokens *auth.TokenManager) *SessionHandler {
	return &SessionHandler{tokens: tokens}
}

// CreateSession POST /api/session. The API-key middleware has already
// resolved the caller; this just exchanges it for a short-lived token.
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	token, expiresAt, err := h.tokens.GenerateToken(*principal)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      string(principal.Role),
	}})
}
