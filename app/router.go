package app

import (
	"bitwise74/otp-api/app/admin"
	"bitwise74/otp-api/app/root"
	"bitwise74/otp-api/app/session"
	"bitwise74/otp-api/app/user"
	"bitwise74/otp-api/db"
	"bitwise74/otp-api/internal"
	"bitwise74/otp-api/pkg/middleware"
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultMaxBody = 1 << 20

// New builds the dependencies from the loaded configuration and returns the
// ready router
func New() (*gin.Engine, error) {
	conn, err := db.New(db.Opts{
		Driver: viper.GetString("database.driver"),
		Path:   viper.GetString("database.path"),
		DSN:    viper.GetString("database.dsn"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	d := internal.NewDeps(internal.DepsOpts{
		DB:            conn,
		MailHost:      viper.GetString("mail.host"),
		MailPort:      viper.GetInt("mail.port"),
		MailUseTLS:    viper.GetBool("mail.tls"),
		OTPLength:     viper.GetInt("otp.length"),
		OTPTTL:        viper.GetDuration("otp.ttl"),
		SessionSecret: viper.GetString("session.secret"),
		SessionMaxAge: viper.GetDuration("session.max_age"),
		SecureCookies: viper.GetBool("host.ssl.enabled"),
	})

	return NewRouter(d, origins(viper.GetStringSlice("host.cors")), viper.GetInt64("upload.max_body")), nil
}

// origins flattens comma separated entries, HOST_CORS arrives as one string
func origins(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, o := range strings.Split(r, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}

	return out
}

func NewRouter(d *internal.Deps, origins []string, maxBody int64) *gin.Engine {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	router := gin.New()

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}

	router.Use(
		cors.New(corsCfg),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("username"); v != "" {
					fields = append(fields, zap.String("username", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	m := router.Group("/api",
		middleware.BodySizeLimiter(maxBody),
		middleware.NewSweepMiddleware(d.OTP),
		middleware.NewSessionMiddleware(d.Sessions, d.SecureCookies),
	)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	loggedIn := middleware.NewRequireLoginMiddleware(d.Accounts)

	u := m.Group("/users")
	{
		// GET /api/users/me		-> Returns the logged in user
		u.GET("/me", loggedIn, user.UserMe)

		// POST /api/users 		-> Registers a new user and mails the first code
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/verify	-> Checks a code for the pending email
		u.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })

		// POST /api/users/resend	-> Replaces the pending email's codes with a new one
		u.POST("/resend", func(c *gin.Context) { user.UserResend(c, d) })

		// POST /api/users/login 	-> Logs in a verified user
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/logout	-> Clears the session
		u.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })
	}

	s := m.Group("/session")
	{
		// GET /api/session		-> Reports what the session points at
		s.GET("", session.SessionFetch)

		// POST /api/session/clear	-> Clears the session, optionally keeping the pending email
		s.POST("/clear", session.SessionClear)
	}

	a := m.Group("/admin")
	{
		// GET /api/admin/mail-config	-> Returns the mail settings without the password
		a.GET("/mail-config", func(c *gin.Context) { admin.MailConfigFetch(c, d) })

		// POST /api/admin/mail-config	-> Sets the mail credentials
		a.POST("/mail-config", func(c *gin.Context) { admin.MailConfigUpdate(c, d) })

		// DELETE /api/admin/mail-config	-> Drops the mail credentials
		a.DELETE("/mail-config", func(c *gin.Context) { admin.MailConfigClear(c, d) })

		// POST /api/admin/reset	-> Deletes all users and codes
		a.POST("/reset", func(c *gin.Context) { admin.Reset(c, d) })

		// POST /api/admin/test-email	-> Sends a test email
		a.POST("/test-email", func(c *gin.Context) { admin.TestEmail(c, d) })
	}

	return router
}
