package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/opsdesk/internal/model"
)

const principalKey = "principal"

type TokenParser interface {
	ParsePrincipal(token string) (model.Principal, error)
}

type PageChecker interface {
	Check(ctx context.Context, principal model.Principal, pagePath string) bool
}

// Auth rejects requests without a valid bearer token and stores the caller's
// principal in the context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		principal, err := parser.ParsePrincipal(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	if !ok || principal.IsZero() {
		return model.Principal{}, false
	}
	return principal, true
}

// RequirePage answers 403 unless the caller may view pagePath.
func RequirePage(checker PageChecker, pagePath string) gin.HandlerFunc {
	return RequirePagePath(checker, func(*gin.Context) string { return pagePath })
}

// RequirePagePath is RequirePage for pages whose path depends on the request,
// such as a resource detail page.
func RequirePagePath(checker PageChecker, pagePath func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
			return
		}
		page := pagePath(c)
		if !checker.Check(c.Request.Context(), principal, page) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access to " + page + " denied"})
			return
		}
		c.Next()
	}
}
