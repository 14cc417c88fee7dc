package dispatch

import (
	"encoding/base64"
	"strings"
)

const subject = "Trade Instruction"

// BuildMessage renders the plain-text trade instruction addressed to the broker.
// The sender is filled in by the mail provider.
func BuildMessage(brokerEmail, tradeDetails string) string {
	body := "Please execute the following trade immediately:\n\n" + tradeDetails + "\n\nRegards,\nClient"
	return strings.Join([]string{
		"To: " + brokerEmail,
		"Subject: " + subject,
		`Content-Type: text/plain; charset="UTF-8"`,
		"MIME-Version: 1.0",
		"",
		body,
	}, "\n")
}

// EncodeRaw encodes a message for the Gmail raw field (URL-safe, unpadded base64).
func EncodeRaw(msg string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(msg))
}
