package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SessionCookieName names the signed session cookie.
const SessionCookieName = "JUMPSHIP_SESSION"

const sessionTTL = 30 * 24 * time.Hour

// SessionData is the payload carried inside the signed cookie.
type SessionData struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sessions issues and verifies signed session cookies.
type Sessions struct {
	key    []byte
	secure bool
	now    func() time.Time
}

// SessionOption customises Sessions.
type SessionOption func(*Sessions)

// WithSecureCookies marks cookies Secure (production deployments).
func WithSecureCookies(secure bool) SessionOption {
	return func(s *Sessions) { s.secure = secure }
}

// WithSessionClock overrides the clock used for timestamps.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Sessions) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessions builds the session middleware. An empty signingKey generates a
// process-ephemeral key, so sessions do not survive restarts.
func NewSessions(signingKey string, logger *zap.Logger, opts ...SessionOption) (*Sessions, error) {
	s := &Sessions{now: time.Now}
	if key := strings.TrimSpace(signingKey); key != "" {
		s.key = []byte(key)
	} else {
		s.key = make([]byte, 32)
		if _, err := rand.Read(s.key); err != nil {
			return nil, fmt.Errorf("session: generate signing key: %w", err)
		}
		if logger != nil {
			logger.Warn("session: using ephemeral signing key; set JUMPSHIP_SESSION_SIGNING_KEY for production")
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler loads or starts a session and stores it in the request context.
func (s *Sessions) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, ok := s.read(r)
		if !ok {
			sd = &SessionData{
				ID:        ulid.Make().String(),
				CreatedAt: s.now().UTC(),
			}
			s.write(w, sd)
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sd)))
	})
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	payloadRaw, sigRaw, found := strings.Cut(c.Value, ".")
	if !found {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadRaw)
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigRaw)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return nil, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return nil, false
	}
	if _, err := ulid.ParseStrict(sd.ID); err != nil {
		return nil, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	b, err := json.Marshal(sd)
	if err != nil {
		return
	}
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(s.sign(b))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(sessionTTL),
	})
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}
