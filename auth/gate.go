package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"

	"kbdesk/apperr"
	"kbdesk/models"
	"kbdesk/store"
)

const (
	sessionUserKey    = "user_id"
	sessionExpiresKey = "expires_at"

	contextUserIDKey = "user_id"
	contextUserKey   = "user"
)

// Gate maps the session attached to a request to a user. Sessions expire
// after ttl regardless of cookie lifetime. Roles are carried on the user but
// no route is restricted by them.
type Gate struct {
	store *store.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewGate(s *store.Store, ttl time.Duration) *Gate {
	return &Gate{store: s, ttl: ttl, now: time.Now}
}

// Start binds user to a fresh session id. Any session the request arrived
// with is removed from the store first, so an id known before login never
// becomes authenticated.
func (g *Gate) Start(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	if err := rotate(c, session); err != nil {
		return apperr.Store("rotating session", err)
	}
	session.Clear()
	session.Set(sessionUserKey, user.ID)
	session.Set(sessionExpiresKey, g.now().Add(g.ttl).Unix())
	if err := session.Save(); err != nil {
		return apperr.Store("saving session", err)
	}
	return nil
}

// rotate drops the stored values of the request's session and resets its id
// so the next Save issues a new one. Only the fresh cookie reaches the client.
func rotate(c *gin.Context, session sessions.Session) error {
	backed, ok := session.(interface{ Session() *gsessions.Session })
	if !ok {
		return nil
	}
	gs := backed.Session()
	if gs == nil || gs.ID == "" || gs.Options == nil {
		return nil
	}

	opts := *gs.Options
	expired := opts
	expired.MaxAge = -1
	gs.Options = &expired
	if err := gs.Save(c.Request, cookieSink{ResponseWriter: c.Writer, header: http.Header{}}); err != nil {
		return err
	}

	gs.ID = ""
	gs.IsNew = true
	gs.Options = &opts
	return nil
}

// cookieSink swallows the headers written to it.
type cookieSink struct {
	http.ResponseWriter
	header http.Header
}

func (w cookieSink) Header() http.Header {
	return w.header
}

// End forgets the current session.
func (g *Gate) End(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		return apperr.Store("clearing session", err)
	}
	return nil
}

// Resolve returns the user behind the request's session. Missing sessions,
// expired ones (which are cleared) and sessions of deleted users all fail
// with an authentication error.
func (g *Gate) Resolve(c *gin.Context) (*models.User, error) {
	session := sessions.Default(c)

	userID, ok := session.Get(sessionUserKey).(string)
	if !ok || userID == "" {
		return nil, apperr.Unauthenticated("not authenticated")
	}

	expiresAt, ok := session.Get(sessionExpiresKey).(int64)
	if !ok || g.now().Unix() >= expiresAt {
		_ = g.End(c)
		return nil, apperr.Unauthenticated("session expired")
	}

	user, err := g.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = g.End(c)
		return nil, apperr.Unauthenticated("not authenticated")
	}
	return user, nil
}

// Require admits requests with a valid session and rejects the rest with 401.
func (g *Gate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.Resolve(c)
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		c.Set(contextUserIDKey, user.ID)
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUserID is the id Require stored for this request.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

// CurrentUser is the user Require stored for this request, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
