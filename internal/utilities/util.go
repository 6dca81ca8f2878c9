// Package utilities contain utility code that use across the package
package utilities

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/model"
)

// ErrorResponse type for swagger docs
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse type for swagger docs
type MessageResponse struct {
	Message string `json:"message"`
}

// ExtractUser extracts the profile loaded by RequireAuth from Gin context.
// It does not abort the request; it returns an error when missing or invalid.
func ExtractUser(c *gin.Context) (model.Profile, error) {
	u, _ := c.Get("user")
	if u == nil {
		return model.Profile{}, errors.New("User information not provided")
	}

	user, ok := u.(model.Profile)
	if !ok {
		return model.Profile{}, errors.New("Failed to assert type")
	}
	return user, nil
}

// AbortWithError answers with the status matching err and aborts the chain.
// Unexpected failures are logged and their detail is not echoed to the client.
func AbortWithError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: apperror.Code(err)})
}
