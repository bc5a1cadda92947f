package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// respondError translates a service error into a response.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, verr.Fields)
	case errors.Is(err, service.ErrAlreadyExists), errors.Is(err, service.ErrSelfFollow):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"unable to log in with provided credentials"}})
	case errors.Is(err, storage.ErrInvalidImage):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"image": []string{err.Error()}})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication credentials were not provided"})
	case errors.Is(err, service.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "you do not have permission to perform this action"})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// respondBindError reports a request body that could not be decoded or
// failed its binding rules.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string)
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, fields)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{typeErr.Field: []string{"invalid value type"}})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "malformed request body"})
}
