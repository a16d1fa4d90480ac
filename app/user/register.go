package user

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/middleware"
	"bitwise74/otp-api/pkg/validators"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if !d.Mail.Configured() {
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"error":     "Please configure email settings first",
			"requestID": requestID,
		})
		return
	}

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		status, msg := middleware.BindError(err)
		c.JSON(status, gin.H{
			"error":     msg,
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	for _, err := range []error{
		validators.UsernameValidator(data.Username),
		validators.EmailValidator(data.Email),
		validators.PasswordValidator(data.Password),
	} {
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})

			zap.L().Debug("Invalid registration field", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	user, err := d.Accounts.Register(c.Request.Context(), data.Username, data.Email, data.Password)
	if user == nil {
		if errors.Is(err, model.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Username or email already exists",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Database error. Please try again",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// The user exists from here on, so the session points at it even if the
	// code never went out
	sess := middleware.Session(c)
	sess.Clear(false)
	sess.VerifyEmail = user.Email
	sess.Username = user.Username
	if err := middleware.SaveSession(c); err != nil {
		zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
	}

	if err != nil {
		status := http.StatusServiceUnavailable
		msg := "Account created but the verification code could not be stored. Please request a new code"
		if errors.Is(err, model.ErrDeliveryUnavailable) {
			status = http.StatusBadGateway
			msg = "Account created but the verification email could not be sent. Please request a new code"
		}

		c.JSON(status, gin.H{
			"error":     msg,
			"email":     user.Email,
			"resend":    true,
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue verification code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Please check your email for the verification code",
		"email":   user.Email,
		"user":    user,
	})
}
