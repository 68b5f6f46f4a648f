package middleware

import (
	"net/http"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// JWTContextKey is where echo-jwt stores the parsed token.
const JWTContextKey = "user"

// ExtractUserIDFromJWT copies the "id" claim of the parsed token into the request
// context. Requests without a usable token pass through untouched.
func ExtractUserIDFromJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := userIDFromToken(c.Get(JWTContextKey))
			if !ok {
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(ContextWithUserID(c.Request().Context(), userID)))
			return next(c)
		}
	}
}

// RequireUserID rejects requests that reached it without a caller identity.
func RequireUserID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := GetUserIDFromContext(c.Request().Context()); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}

func userIDFromToken(v interface{}) (uuid.UUID, bool) {
	token, ok := v.(*jwtv5.Token)
	if !ok || token == nil {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	idStr, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
