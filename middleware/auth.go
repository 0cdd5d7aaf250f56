package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kirill-Khudyakov/shotline/permissions"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// ContextSubjectKey is the key used to store the authenticated subject in Gin context.
const ContextSubjectKey = "subject"

// ContextTokenKey stores the raw bearer token for logout.
const ContextTokenKey = "token"

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		subject, token, errCode, errMsg := subjectFromHeader(ctx)
		if errCode != 0 {
			utils.Error(ctx, http.StatusUnauthorized, errCode, errMsg)
			ctx.Abort()
			return
		}
		ctx.Set(ContextSubjectKey, subject)
		ctx.Set(ContextTokenKey, token)
		ctx.Next()
	}
}

// AuthOptional resolves an identity when a valid token is supplied but lets
// anonymous requests through. Read endpoints use it so that reads stay
// public while the ownership policy still sees who is asking.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") != "" {
			if subject, token, errCode, _ := subjectFromHeader(ctx); errCode == 0 {
				ctx.Set(ContextSubjectKey, subject)
				ctx.Set(ContextTokenKey, token)
			}
		}
		ctx.Next()
	}
}

// Subject returns the request identity, or permissions.Anonymous when the
// request carries no valid token.
func Subject(ctx *gin.Context) permissions.Subject {
	value, exists := ctx.Get(ContextSubjectKey)
	if !exists {
		return permissions.Anonymous
	}
	subject, ok := value.(permissions.Subject)
	if !ok {
		return permissions.Anonymous
	}
	return subject
}

func subjectFromHeader(ctx *gin.Context) (permissions.Subject, string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return permissions.Anonymous, "", 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return permissions.Anonymous, "", 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return permissions.Anonymous, "", 40103, "empty bearer token"
	}

	if utils.IsTokenRevoked(tokenString) {
		return permissions.Anonymous, "", 40104, "token revoked"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return permissions.Anonymous, "", 40105, "invalid token"
	}

	subject := permissions.Subject{
		UserID:        claims.UserID,
		Username:      claims.Username,
		Superuser:     claims.IsSuperuser,
		Authenticated: true,
	}
	return subject, tokenString, 0, ""
}
