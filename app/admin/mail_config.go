// Package admin holds the operator endpoints: runtime mail settings, the
// bulk reset and test mails
package admin

import (
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/pkg/mailer"
	"bitwise74/otp-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mailConfigBody struct {
	Username string  `json:"mail_username" form:"mail_username"`
	Password string  `json:"mail_password" form:"mail_password"`
	Sender   string  `json:"mail_default_sender" form:"mail_default_sender"`
	Server   *string `json:"mail_server" form:"mail_server"`
	Port     *int    `json:"mail_port" form:"mail_port"`
	UseTLS   *bool   `json:"mail_use_tls" form:"mail_use_tls"`
}

// MailConfigFetch reports the current mail settings without the password
func MailConfigFetch(c *gin.Context, d *internal.Deps) {
	host, port, useTLS := d.Mail.Server()

	res := gin.H{
		"configured": false,
		"server":     host,
		"port":       port,
		"use_tls":    useTLS,
	}

	if cfg := d.Mail.Current(); cfg != nil {
		res["configured"] = true
		res["username"] = cfg.Username
		res["sender"] = cfg.Sender()
	}

	c.JSON(http.StatusOK, res)
}

// MailConfigUpdate replaces the mail credentials. Server fields are optional
// and keep their previous value when omitted.
func MailConfigUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data mailConfigBody
	if err := c.ShouldBind(&data); err != nil {
		status, msg := middleware.BindError(err)
		c.JSON(status, gin.H{
			"success":   false,
			"message":   msg,
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	cfg, err := d.Mail.Configure(mailer.Update{
		Username: data.Username,
		Password: data.Password,
		From:     data.Sender,
		Host:     data.Server,
		Port:     data.Port,
		UseTLS:   data.UseTLS,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	}

	zap.L().Info("Mail settings updated",
		zap.String("server", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("username", cfg.Username),
		zap.String("requestID", requestID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"mail_username":       cfg.Username,
			"mail_default_sender": cfg.Sender(),
			"mail_server":         cfg.Host,
			"mail_port":           cfg.Port,
			"mail_use_tls":        cfg.UseTLS,
		},
	})
}

// MailConfigClear drops the mail credentials. Registration is refused again
// until new ones are set.
func MailConfigClear(c *gin.Context, d *internal.Deps) {
	d.Mail.Reset()

	zap.L().Info("Mail settings cleared", zap.String("requestID", c.GetString("requestID")))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
