// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/utilities"
)

type authError struct {
	status int
	msg    string
}

// RequireAuth validates the Bearer token in the Authorization header and loads
// the profile it names. The profile is stored under "user" in the gin context
// and the matching actor is attached to the request context for the engine.
// Requests already authenticated by OptionalAuth are not checked twice.
func RequireAuth(db *database.DBinstanceStruct) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := ctx.Get("user"); ok {
			ctx.Next()
			return
		}
		if aerr := authenticate(ctx, db); aerr != nil {
			ctx.AbortWithStatusJSON(aerr.status, utilities.ErrorResponse{Error: aerr.msg})
			return
		}
		ctx.Next()
	}
}

// OptionalAuth authenticates the caller when an Authorization header is
// present and lets anonymous requests through otherwise.
func OptionalAuth(db *database.DBinstanceStruct) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			ctx.Next()
			return
		}
		if aerr := authenticate(ctx, db); aerr != nil {
			ctx.AbortWithStatusJSON(aerr.status, utilities.ErrorResponse{Error: aerr.msg})
			return
		}
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context, db *database.DBinstanceStruct) *authError {
	tokenString, err := utilities.ExtractBearerToken(ctx)
	if err != nil {
		return &authError{http.StatusBadRequest, err.Error()}
	}

	token, err := auth.ValidatedToken(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &authError{http.StatusUnauthorized, "Access token expired"}
		}
		return &authError{http.StatusUnauthorized, fmt.Sprintf("Failed to validate token: %s", err.Error())}
	}
	if !token.Valid {
		return &authError{http.StatusUnauthorized, "Invalid access token"}
	}

	claims := token.Claims.(*jwt.RegisteredClaims)
	if claims.Issuer != auth.JwtIssuer {
		return &authError{http.StatusUnauthorized, "Invalid token issuer"}
	}
	ctx.Set("claims", claims)

	var profile model.Profile
	if err := db.WithContext(ctx.Request.Context()).Where("id = ?", claims.Subject).First(&profile).Error; err != nil {
		if database.IsNotFound(err) {
			return &authError{http.StatusUnauthorized, "User not exist"}
		}
		return &authError{http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve user data: %s", err.Error())}
	}

	ctx.Set("user", profile)
	ctx.Request = ctx.Request.WithContext(auth.WithActor(ctx.Request.Context(), auth.ActorFromProfile(profile)))
	return nil
}
