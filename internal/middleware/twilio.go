package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/util"
)

// TwilioSignatureMiddleware validates the X-Twilio-Signature header on
// webhook requests: base64(HMAC-SHA1(authToken, url + sorted form params)).
type TwilioSignatureMiddleware struct {
	authToken string
	publicURL string
}

// NewTwilioSignatureMiddleware needs the externally visible base URL
// because Twilio signs the URL it dialed, not what the proxy rewrote.
func NewTwilioSignatureMiddleware(authToken, publicURL string) *TwilioSignatureMiddleware {
	return &TwilioSignatureMiddleware{
		authToken: authToken,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (m *TwilioSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authToken == "" {
			log.Warn().Msg("twilio signature verification bypassed: TWILIO_AUTH_TOKEN is not configured")
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get("X-Twilio-Signature")
		if signature == "" {
			log.Warn().Msg("twilio signature middleware: missing signature header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		if err := r.ParseForm(); err != nil {
			log.Error().Err(err).Msg("twilio signature middleware: failed to parse form")
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Invalid request body",
			})
			return
		}

		computed := util.HmacSHA1Base64(m.authToken, m.signedPayload(r))
		if !util.ConstantTimeEqual(computed, signature) {
			log.Warn().Msg("twilio signature middleware: invalid signature")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *TwilioSignatureMiddleware) signedPayload(r *http.Request) string {
	var b strings.Builder
	b.WriteString(m.publicURL + r.URL.RequestURI())

	keys := make([]string, 0, len(r.PostForm))
	for key := range r.PostForm {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range r.PostForm[key] {
			b.WriteString(key)
			b.WriteString(value)
		}
	}
	return b.String()
}
