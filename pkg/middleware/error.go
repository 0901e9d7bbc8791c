package middleware

import (
	"net/http"

	"streamrewards/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last handler error in the award API shape:
// {"success": false, "error": "<message>"} with the mapped status code.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}

		if v, ok := err.Err.(errutil.BaseError); ok {
			c.JSON(v.Code.HTTPStatus(), gin.H{
				"success": false,
				"error":   v.Message,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
	}
}
