package serverutils

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errNoBearerToken = errors.New("no bearer token")

func bearerToken(ctx *fiber.Ctx) (string, error) {
	header := ctx.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errNoBearerToken
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}

// ParseUserClaims validates a signed token and returns its claims. Shared by
// the HTTP middleware and the websocket handshake, which carries the token in
// a query param.
func ParseUserClaims(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// JwtMiddleware authenticates API requests and stashes the caller identity
// in request locals for controllers downstream.
func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr, err := bearerToken(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
	}

	claims, err := ParseUserClaims(tokenStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
	}

	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("user_email", claims["email"])
	return ctx.Next()
}
