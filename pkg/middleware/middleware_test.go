package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingSweeper struct{ calls int }

func (s *countingSweeper) Sweep(context.Context) int64 {
	s.calls++
	return 0
}

type fakeUsers map[uint]*model.User

func (f fakeUsers) User(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, model.ErrNotFound
}

func newEngine(codec *session.Codec) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestIDMiddleware(), NewSessionMiddleware(codec, false))
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}

	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())

	var ids []string
	r.GET("/", func(c *gin.Context) {
		ids = append(ids, c.MustGet("requestID").(string))
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	require.Len(t, ids, 2)
	assert.Len(t, ids[0], 10)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestSweepRunsEveryRequest(t *testing.T) {
	s := &countingSweeper{}

	r := gin.New()
	r.Use(NewSweepMiddleware(s))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, 3, s.calls)
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware(), BodySizeLimiter(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way more than eight bytes")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodySizeLimiterChunked(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware(), BodySizeLimiter(24))
	r.POST("/", func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}

		if err := c.ShouldBindJSON(&body); err != nil {
			status, msg := BindError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		c.String(http.StatusOK, body.Email)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(body)))
		require.EqualValues(t, -1, req.ContentLength)
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"email": "someone-with-a-long-name@example.com"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = send(`{"email":"a@x.co"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.co", rec.Body.String())

	rec = send(`{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionSurvivesRoundTrip(t *testing.T) {
	codec := session.NewCodec("secret", time.Hour)
	r := newEngine(codec)

	r.POST("/set", func(c *gin.Context) {
		Session(c).VerifyEmail = "a@x.com"
		require.NoError(t, SaveSession(c))
		c.Status(http.StatusOK)
	})
	r.GET("/get", func(c *gin.Context) {
		c.String(http.StatusOK, Session(c).VerifyEmail)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/set", nil))
	ck := sessionCookie(t, rec)
	assert.True(t, ck.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "a@x.com", rec.Body.String())
}

func TestSessionTamperedCookieIsEmpty(t *testing.T) {
	r := newEngine(session.NewCodec("secret", time.Hour))
	r.GET("/", func(c *gin.Context) {
		assert.True(t, Session(c).Empty())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveEmptySessionExpiresCookie(t *testing.T) {
	r := newEngine(session.NewCodec("secret", time.Hour))
	r.POST("/", func(c *gin.Context) {
		require.NoError(t, SaveSession(c))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Less(t, sessionCookie(t, rec).MaxAge, 0)
}

func TestRequireLogin(t *testing.T) {
	codec := session.NewCodec("secret", time.Hour)
	users := fakeUsers{
		1: {ID: 1, Username: "alice", Email: "a@x.com", IsVerified: true},
		2: {ID: 2, Username: "bob", Email: "b@x.com"},
	}

	r := newEngine(codec)
	r.GET("/me", NewRequireLoginMiddleware(users), func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet("user").(*model.User).Username)
	})

	do := func(s *session.Session) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if s != nil {
			token, err := codec.Encode(*s)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		}

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(&session.Session{UserID: 1, Username: "alice"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())

	rec = do(&session.Session{UserID: 2, Username: "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	pending, err := codec.Decode(sessionCookie(t, rec).Value)
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", pending.VerifyEmail)
	assert.False(t, pending.Authenticated())

	rec = do(&session.Session{UserID: 9, Username: "ghost"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Less(t, sessionCookie(t, rec).MaxAge, 0)
}
