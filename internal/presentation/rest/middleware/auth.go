package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"booking-ledger/internal/infrastructure/config"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// ContextKeyUserID 認証済みユーザーIDを格納するechoコンテキストのキー
const ContextKeyUserID = "user_id"

// AuthMiddleware JWT認証ミドルウェア（ウォレット参照API用）
// user_idクレーム、なければsubクレームをユーザーIDとして扱う
func AuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	unauthorized := func(c echo.Context, message string) error {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: message,
		})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// Authorizationヘッダーからトークンを取得
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return unauthorized(c, "Missing authorization header")
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return unauthorized(c, "Invalid authorization header format")
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			})
			if err != nil || !token.Valid {
				fields := map[string]interface{}{}
				if err != nil {
					fields["error"] = err.Error()
				}
				logger.Warn(ctx, "Invalid token", fields)
				return unauthorized(c, "Invalid or expired token")
			}

			userID := userIDFromClaims(claims)
			if userID == "" {
				logger.Warn(ctx, "Missing user_id in token claims", nil)
				return unauthorized(c, "Missing user_id in token")
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}

func userIDFromClaims(claims jwt.MapClaims) string {
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}
