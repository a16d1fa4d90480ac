package user

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		status, msg := middleware.BindError(err)
		c.JSON(status, gin.H{
			"error":     msg,
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Username field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if data.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Password field can't be empty",
			"requestID": requestID,
		})
		return
	}

	sess := middleware.Session(c)

	user, err := d.Accounts.Login(c.Request.Context(), data.Username, data.Password)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid username or password",
			"requestID": requestID,
		})
		return
	case errors.Is(err, model.ErrVerificationRequired):
		sess.Clear(false)
		sess.VerifyEmail = user.Email
		sess.Username = user.Username
		if err := middleware.SaveSession(c); err != nil {
			zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Please verify your email first",
			"email":     user.Email,
			"requestID": requestID,
		})
		return
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Database error. Please try again",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check credentials", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	sess.Clear(false)
	sess.UserID = user.ID
	sess.Username = user.Username
	if err := middleware.SaveSession(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful!",
		"user":    user,
	})
}
