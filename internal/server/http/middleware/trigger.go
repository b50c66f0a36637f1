package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/lotteryengine/internal/pkg/auth"
	"github.com/polkiloo/lotteryengine/internal/server/http/dto"
)

// TriggerAuth rejects requests without a valid bearer token when the
// verifier is enabled.
func TriggerAuth(verifier pkgAuth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		if err := verifier.Verify(c.GetHeader("Authorization")); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, pkgAuth.ErrMissingToken) || errors.Is(err, pkgAuth.ErrInvalidToken) {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, dto.ErrorResponse{Success: false, Error: err.Error()})
			return
		}
		c.Next()
	}
}
