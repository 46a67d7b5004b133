package middleware

import (
	"net/http"
)

// DefaultMaxBodySize caps request bodies at 1 MiB. Twilio form posts and
// dashboard calls are far smaller than that.
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimitMiddleware rejects oversized request bodies before a handler
// starts reading them.
type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		// Chunked uploads carry no Content-Length; the reader enforces the
		// cap for those.
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		}
		next.ServeHTTP(w, r)
	})
}
