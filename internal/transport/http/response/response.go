// Package response renders the flat {ok, ...} envelope the frontend expects.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes {ok:true} with the payload fields spread at the top level.
func OK(c *gin.Context, fields map[string]any) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail writes {ok:false, detail} and aborts the handler chain.
func Fail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "detail": detail})
}
