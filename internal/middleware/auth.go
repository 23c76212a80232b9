package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amankumarsingh77/cloud-video-converter/internal/identity"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// AuthJWTMiddleware verifies the bearer token (or the auth cookie) and puts
// the verified claims on the request context.
func (mw *MiddlewareManager) AuthJWTMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := mw.tokenFromRequest(c)
			if err != nil {
				mw.logger.Warnf("auth middleware: %v", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			claims, err := mw.validateJWTToken(c, tokenString)
			if err != nil {
				mw.logger.Warnf("auth middleware validateJWTToken: %v", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			c.Set("claims", claims)
			c.SetRequest(c.Request().WithContext(identity.WithClaims(c.Request().Context(), claims)))
			return next(c)
		}
	}
}

func (mw *MiddlewareManager) tokenFromRequest(c echo.Context) (string, error) {
	bearerHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if bearerHeader != "" {
		headerParts := strings.Split(bearerHeader, " ")
		if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") {
			return "", fmt.Errorf("malformed authorization header")
		}
		return headerParts[1], nil
	}

	cookie, err := c.Cookie(mw.cfg.Auth.CookieName)
	if err != nil {
		return "", fmt.Errorf("no token in header or cookie %s", mw.cfg.Auth.CookieName)
	}
	return cookie.Value, nil
}

func (mw *MiddlewareManager) validateJWTToken(c echo.Context, tokenString string) (*identity.Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("invalid token string")
	}

	token, err := mw.parseToken(c, tokenString)
	if errors.Is(err, jwt.ErrSignatureInvalid) {
		// The secret may have been rotated since it was cached.
		mw.secrets.Invalidate()
		token, err = mw.parseToken(c, tokenString)
	}
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims := &identity.Claims{
		Subject:  stringClaim(mapClaims, "sub"),
		Email:    stringClaim(mapClaims, "email"),
		Username: stringClaim(mapClaims, "username"),
	}
	if claims.Username == "" {
		claims.Username = stringClaim(mapClaims, "preferred_username")
	}
	if _, err = identity.DeriveOwnerKey(claims); err != nil {
		return nil, fmt.Errorf("token carries no usable identity: %w", err)
	}
	return claims, nil
}

func (mw *MiddlewareManager) parseToken(c echo.Context, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signin method %v", token.Header["alg"])
		}
		secret, err := mw.secrets.Get(c.Request().Context())
		if secret == "" {
			return nil, fmt.Errorf("signing secret unavailable: %w", err)
		}
		if err != nil {
			mw.logger.Warnf("auth middleware: using cached signing secret after refresh error: %v", err)
		}
		return []byte(secret), nil
	})
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}

func ownerFromContext(c echo.Context) string {
	claims, ok := c.Get("claims").(*identity.Claims)
	if !ok {
		return "-"
	}
	owner, err := identity.DeriveOwnerKey(claims)
	if err != nil {
		return "-"
	}
	return owner
}
