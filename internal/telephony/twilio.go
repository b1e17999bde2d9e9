package telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioDialer places outbound calls through the Twilio REST API, steering
// each call to an answer webhook that returns TwiML connecting it into this
// server's media stream.
type TwilioDialer struct {
	client        *twilio.RestClient
	callerID      string
	publicBaseURL string
}

// NewTwilioDialer returns a Dialer backed by the Twilio account identified by
// accountSID/authToken. publicBaseURL must be reachable by Twilio (e.g. an
// ngrok tunnel in development) and is used to build the answer and
// status-callback webhook URLs.
func NewTwilioDialer(accountSID, authToken, callerID, publicBaseURL string) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioDialer{client: client, callerID: callerID, publicBaseURL: publicBaseURL}
}

// Dial implements Dialer.
func (t *TwilioDialer) Dial(ctx context.Context, toPhone, campaignID, providerID string) (string, error) {
	answerURL := fmt.Sprintf("%s/twilio/voice?campaign_id=%s&provider_id=%s", t.publicBaseURL, campaignID, providerID)
	statusURL := fmt.Sprintf("%s/twilio/voice/status?campaign_id=%s&provider_id=%s", t.publicBaseURL, campaignID, providerID)

	params := &openapi.CreateCallParams{}
	params.SetTo(toPhone)
	params.SetFrom(t.callerID)
	params.SetUrl(answerURL)
	params.SetStatusCallback(statusURL)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetStatusCallbackMethod("POST")
	params.SetTimeout(60)

	resp, err := t.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("telephony: create call: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("telephony: twilio response missing call sid")
	}
	return *resp.Sid, nil
}
