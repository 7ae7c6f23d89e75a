package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/repository"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

const (
	principalKey = "auth_principal"
	unitKey      = "ingest_unit"
)

// AuthMiddleware validates bearer tokens and loads the caller.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
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

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// APIKeyMiddleware resolves the unit from the device API key header on the
// ingest path.
type APIKeyMiddleware struct {
	units repository.UnitRepository
}

// NewAPIKeyMiddleware constructs middleware.
func NewAPIKeyMiddleware(units repository.UnitRepository) *APIKeyMiddleware {
	return &APIKeyMiddleware{units: units}
}

// Handle validates the X-API-Key header and loads the owning unit.
func (m *APIKeyMiddleware) Handle(c *fiber.Ctx) error {
	apiKey := c.Get("X-API-Key")
	if apiKey == "" {
		return apperrors.NewUnauthorized("missing api key")
	}

	unit, err := m.units.GetByAPIKey(c.Context(), apiKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid api key")
		}
		return apperrors.MapError(err)
	}
	if unit.Status != domain.UnitStatusActive {
		return apperrors.NewForbidden("unit not active")
	}

	c.Locals(unitKey, unit)
	return c.Next()
}

// UnitFromContext retrieves the unit resolved from the API key.
func UnitFromContext(c *fiber.Ctx) (*domain.Unit, bool) {
	val := c.Locals(unitKey)
	if val == nil {
		return nil, false
	}
	unit, ok := val.(*domain.Unit)
	return unit, ok
}
