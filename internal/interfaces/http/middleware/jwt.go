package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muniworks/backend/internal/domain/authz"
	"github.com/muniworks/backend/internal/infrastructure/auth"
	"github.com/muniworks/backend/internal/interfaces/http/dto"
)

const (
	// ActorKey is the gin context key holding the resolved actor
	ActorKey = "actor"
	// ClaimsKey is the gin context key holding the raw JWT claims
	ClaimsKey = "jwt_claims"

	bearerPrefix = "Bearer "
)

// JWTAuthConfig configures the JWT authentication middleware
type JWTAuthConfig struct {
	// SkipPaths are exact request paths that bypass authentication
	SkipPaths []string
}

// JWTAuth validates the bearer token and resolves the acting user.
// The actor (id + role) is what every application service authorizes
// against; requests without a resolvable actor never reach a handler.
func JWTAuth(jwtService *auth.JWTService, cfg JWTAuthConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "Authorization header must use the Bearer scheme")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		actorID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abortUnauthorized(c, "Invalid user id in token")
			return
		}

		actor := authz.NewActor(actorID, authz.Role(claims.Role))
		if !actor.IsValid() {
			abortUnauthorized(c, "Unknown role in token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved by the JWTAuth middleware
func GetActor(c *gin.Context) (authz.Actor, bool) {
	value, exists := c.Get(ActorKey)
	if !exists {
		return authz.Actor{}, false
	}
	actor, ok := value.(authz.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.ErrorResponse(dto.ErrCodeUnauthorized, message))
}
