package user

import (
	"bitwise74/otp-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserMe returns the logged in user. Runs behind the login middleware which
// already loaded the row.
func UserMe(c *gin.Context) {
	user := c.MustGet("user").(*model.User)

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
