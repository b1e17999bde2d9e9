package telephony

import "fmt"

const disclosureText = "This is an automated assistant calling to schedule an appointment."

// BuildTwiML returns the call-control markup Twilio executes once a call is
// answered: a brief spoken disclosure, then a bidirectional media stream
// connected to streamURL so the voice agent can hear and speak on the call.
func BuildTwiML(streamURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="Polly.Joanna">%s</Say>
  <Connect>
    <Stream url="%s" />
  </Connect>
</Response>`, disclosureText, streamURL)
}
