// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/session"
)

// LocalSession is attached to every request when no keys are configured.
var LocalSession = session.Session{UserID: "local", Role: session.RoleAdmin}

type apiKey struct {
	key     []byte
	session session.Session
}

// Keyring resolves API keys to sessions
type Keyring struct {
	keys []apiKey
}

// NewKeyring builds a keyring from configured keys
func NewKeyring(cfg []config.APIKeyConfig) (*Keyring, error) {
	k := &Keyring{}
	for i, c := range cfg {
		if c.Key == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("api_keys[%d].key is empty", i))
		}
		role, err := session.ParseRole(c.Role)
		if err != nil {
			return nil, err
		}
		userID := c.UserID
		if userID == "" {
			userID = fmt.Sprintf("key-%d", i)
		}
		k.keys = append(k.keys, apiKey{
			key:     []byte(c.Key),
			session: session.Session{UserID: userID, Role: role},
		})
	}
	return k, nil
}

// Enabled reports whether any key is configured
func (k *Keyring) Enabled() bool {
	return k != nil && len(k.keys) > 0
}

// Lookup returns the session for a key. Every configured key is compared
// in constant time.
func (k *Keyring) Lookup(provided string) (session.Session, bool) {
	var found session.Session
	ok := false
	for _, c := range k.keys {
		if subtle.ConstantTimeCompare([]byte(provided), c.key) == 1 {
			found = c.session
			ok = true
		}
	}
	return found, ok
}

// APIKeyAuth returns middleware that validates the X-API-Key header and
// stores the caller's session in the request context. Browsers opening a
// websocket may pass the key as the api_key query parameter instead.
// If the keyring is empty, authentication is disabled.
func APIKeyAuth(keys *Keyring) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keys.Enabled() {
				next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), LocalSession)))
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				providedKey = r.URL.Query().Get("api_key")
			}
			if providedKey == "" {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrUnauthorized, fmt.Errorf("X-API-Key header is required")))
				return
			}

			s, ok := keys.Lookup(providedKey)
			if !ok {
				response.Error(w, http.StatusUnauthorized, core.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin rejects callers whose session is not an admin session.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, core.ErrUnauthorized)
			return
		}
		if !s.IsAdmin() {
			response.Error(w, http.StatusForbidden, core.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
