package messenger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	apperrors "github.com/inxsource/sales-assistant-go/internal/errors"
)

// Sender delivers an outbound WhatsApp message. The session core never
// calls this; it is invoked by the responder after the store mutation is
// already applied.
type Sender interface {
	SendWhatsApp(to, body string, mediaURL *string) error
}

// TwilioSender sends WhatsApp messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{client: client, from: from}, nil
}

func (t *TwilioSender) SendWhatsApp(to, body string, mediaURL *string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsAppAddr(t.from))
	params.SetTo(whatsAppAddr(to))
	params.SetBody(body)
	if mediaURL != nil && *mediaURL != "" {
		params.SetMediaUrl([]string{*mediaURL})
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return apperrors.DeliveryFailed(err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Info().Str("to", to).Str("sid", sid).Msg("whatsapp message sent")
	return nil
}

func whatsAppAddr(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}
