package graph

// Message is a Graph mail message.
// See https://learn.microsoft.com/en-us/graph/api/resources/message
type Message struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
	CcRecipients []Recipient `json:"ccRecipients,omitempty"`
}

// ItemBody holds the message body with its content type, either "Text" or
// "HTML".
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Recipient wraps an email address.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// EmailAddress is the address part of a Recipient.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// NewMessage builds an HTML message to the given addresses.
func NewMessage(subject, htmlBody string, to ...string) Message {
	recipients := make([]Recipient, len(to))
	for i, address := range to {
		recipients[i] = Recipient{EmailAddress: EmailAddress{Address: address}}
	}
	return Message{
		Subject: subject,
		Body: ItemBody{
			ContentType: "HTML",
			Content:     htmlBody,
		},
		ToRecipients: recipients,
	}
}

// sendMailRequest is the body of the sendMail action.
// See https://learn.microsoft.com/en-us/graph/api/user-sendmail
type sendMailRequest struct {
	Message         Message `json:"message"`
	SaveToSentItems bool    `json:"saveToSentItems"`
}
