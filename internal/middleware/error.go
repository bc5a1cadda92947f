package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler recovers from panics in handlers and answers with a JSON 500.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		logging.Ctx(c.Request.Context()).Error().
			Interface("panic", err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	})
}

// StripTrailingSlash routes "/api/recipes/" and "/api/recipes" to the same
// handler.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && p[len(p)-1] == '/' {
			r.URL.Path = p[:len(p)-1]
			if r.URL.RawPath != "" && len(r.URL.RawPath) > 1 {
				r.URL.RawPath = r.URL.RawPath[:len(r.URL.RawPath)-1]
			}
		}
		next.ServeHTTP(w, r)
	})
}
