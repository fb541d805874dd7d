package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
)

// NewTestRouter returns a test-mode engine with an in-memory session store
// and the /api group modules register on.
func NewTestRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := memstore.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router, router.Group("/api")
}

// PerformRequest sends body (JSON-encoded when not nil) and returns the
// recorded response.
func PerformRequest(r http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Login posts credentials to /api/auth/login and returns the session
// cookies. The router must have the auth routes mounted.
func Login(t *testing.T, r http.Handler, username string) []*http.Cookie {
	t.Helper()

	w := PerformRequest(r, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": TestPassword,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

// DecodeJSON unmarshals the recorded body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}
