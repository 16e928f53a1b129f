package core

type (
	SMSMessage struct {
		To   string // E.164
		Body string
	}

	// SMSService is any service that can deliver short messages (OTP codes).
	SMSService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*SMSMessage)
	}
)

func (m *SMSMessage) HasRecipient() bool { return m.To != "" }
func (m *SMSMessage) HasContent() bool   { return m.Body != "" }
