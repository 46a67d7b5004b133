package util

import (
	"regexp"
	"strings"
)

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// NormalizePhone strips the channel prefix Twilio puts on WhatsApp
// addresses ("whatsapp:+26097...") and any surrounding whitespace, leaving
// the bare E.164 number used as the session key.
func NormalizePhone(addr string) string {
	addr = strings.TrimSpace(addr)
	addr = strings.TrimPrefix(addr, "whatsapp:")
	return addr
}
