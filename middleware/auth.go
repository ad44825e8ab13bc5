package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mcladder/bedboard/cache"
	"github.com/mcladder/bedboard/config"
)

// AccountIDKey is the gin context key carrying the authenticated account id.
const AccountIDKey = "account_id"

const (
	sessionKeyPrefix  = "session:"
	sessionCheckLimit = 2 * time.Second
)

// Auth guards a route group with Bearer JWT auth. A token is accepted
// only while its session key is still present in the cache, so logout
// and bans take effect before the JWT itself expires.
func Auth(sec config.SecurityConfig, store cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			abortUnauthorized(ctx, "missing token")
			return
		}

		claims, err := ParseToken(token, sec.JWTSecret)
		if err != nil {
			abortUnauthorized(ctx, "invalid token")
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), sessionCheckLimit)
		defer cancel()
		alive, err := store.Exists(cacheCtx, sessionKeyPrefix+token)
		if err != nil || !alive {
			abortUnauthorized(ctx, "session expired")
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, bool) {
	header := ctx.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func abortUnauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// GetAccountID returns the account id set by Auth, or 0 outside an
// authenticated request.
func GetAccountID(c *gin.Context) int64 {
	v, ok := c.Get(AccountIDKey)
	if !ok {
		return 0
	}
	return v.(int64)
}
