package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Messenger delivers short text messages to a phone number.
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}

type TwilioMessenger struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

func NewTwilioMessenger(accountSID, authToken, from string, logger *zap.Logger) *TwilioMessenger {
	return &TwilioMessenger{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:   from,
		logger: logger,
	}
}

func (m *TwilioMessenger) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toE164(to))
	params.SetFrom(m.from)
	params.SetBody(body)

	resp, err := m.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid != nil {
		m.logger.Debug("sms sent", zap.String("to", to), zap.String("sid", *resp.Sid))
	}
	return nil
}

// toE164 assumes bare 10 digit numbers are North American.
func toE164(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	if len(phone) == 10 {
		return "+1" + phone
	}
	return "+" + phone
}
