package serverutils

import (
	"strings"

	"tempnote-be/internal/entity"
	"tempnote-be/internal/session"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

func bearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	// Browsers cannot set headers on websocket upgrades.
	return ctx.Query("token")
}

// OptionalJwtMiddleware resolves the caller's identity when a valid token is
// present. Requests without a token continue anonymously; a bad token is
// rejected.
func OptionalJwtMiddleware(tokens *session.Tokens) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerToken(ctx)
		if tokenStr == "" {
			return ctx.Next()
		}

		identity, err := tokens.Verify(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(identityKey, identity)
		ctx.Locals("user_id", identity.UserID.String())
		return ctx.Next()
	}
}

// RequireIdentity must run after OptionalJwtMiddleware.
func RequireIdentity(ctx *fiber.Ctx) error {
	if IdentityFrom(ctx) == nil {
		return entity.ErrAuthRequired
	}
	return ctx.Next()
}

func IdentityFrom(ctx *fiber.Ctx) *session.Identity {
	identity, ok := ctx.Locals(identityKey).(session.Identity)
	if !ok {
		return nil
	}
	return &identity
}
