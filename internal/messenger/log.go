package messenger

import (
	"github.com/rs/zerolog/log"
)

// LogSender writes outbound messages to the log instead of delivering
// them. Used when Twilio credentials are not configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendWhatsApp(to, body string, mediaURL *string) error {
	event := log.Info().Str("to", to).Str("body", body)
	if mediaURL != nil {
		event = event.Str("mediaUrl", *mediaURL)
	}
	event.Msg("whatsapp message (log only, twilio not configured)")
	return nil
}
