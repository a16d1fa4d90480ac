package middleware

import (
	"context"
	"errors"
	"net/http"

	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CookieName = "session"

	sessionKey = "session"
	codecKey   = "sessionCodec"
	secureKey  = "sessionSecure"
)

// NewSessionMiddleware decodes the session cookie into the request context.
// A missing, expired or tampered cookie starts an empty session.
func NewSessionMiddleware(codec *session.Codec, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess session.Session

		if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
			sess, err = codec.Decode(raw)
			if err != nil {
				zap.L().Debug("Discarding session cookie", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
				sess = session.Session{}
			}
		}

		if sess.Username != "" {
			c.Set("username", sess.Username)
		}

		c.Set(sessionKey, &sess)
		c.Set(codecKey, codec)
		c.Set(secureKey, secure)
		c.Next()
	}
}

// Session returns the mutable session of the current request
func Session(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(*session.Session)
	}

	sess := &session.Session{}
	c.Set(sessionKey, sess)
	return sess
}

// SaveSession writes the current session back as a cookie. Must be called
// before the response body is written.
func SaveSession(c *gin.Context) error {
	codec, ok := c.MustGet(codecKey).(*session.Codec)
	if !ok {
		return errors.New("session codec missing")
	}

	secure := c.GetBool(secureKey)
	sess := Session(c)

	c.SetSameSite(http.SameSiteLaxMode)
	if sess.Empty() {
		c.SetCookie(CookieName, "", -1, "/", "", secure, true)
		return nil
	}

	token, err := codec.Encode(*sess)
	if err != nil {
		return err
	}

	c.SetCookie(CookieName, token, int(codec.MaxAge().Seconds()), "/", "", secure, true)
	return nil
}

// UserLookup loads the user a session points at
type UserLookup interface {
	User(ctx context.Context, id uint) (*model.User, error)
}

// NewRequireLoginMiddleware rejects requests without an authenticated
// session. The user is re-read on every request so a reset or deleted account
// drops the session immediately.
func NewRequireLoginMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)
		sess := Session(c)

		if !sess.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Please login first",
				"requestID": requestID,
			})
			return
		}

		user, err := users.User(c.Request.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				sess.Clear(false)
				if err := SaveSession(c); err != nil {
					zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
				}

				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Please login first",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":     "Database error. Please try again",
				"requestID": requestID,
			})

			zap.L().Error("Failed to load session user", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if !user.IsVerified {
			sess.Clear(false)
			sess.VerifyEmail = user.Email
			sess.Username = user.Username
			if err := SaveSession(c); err != nil {
				zap.L().Error("Failed to save session", zap.Error(err), zap.String("requestID", requestID))
			}

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Please verify your email first",
				"email":     user.Email,
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
