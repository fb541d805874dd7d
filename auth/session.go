package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"

	"kbdesk/config"
)

// NewSessionStore builds the process-local session store: values live in
// memory keyed by session id and the cookie only carries the signed id.
// Everything is lost on restart. Create it once at startup and hand it to
// sessions.Sessions.
func NewSessionStore(conf config.SessionConfig) sessions.Store {
	store := memstore.NewStore([]byte(conf.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(conf.TTL.Seconds()),
		HttpOnly: true,
		Secure:   conf.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
