package mail

import (
	"fmt"
	"html"
)

// VerificationMessage asks the recipient to confirm their email address.
func VerificationMessage(to, link string) Message {
	return Message{
		Recipients: []string{to},
		Subject:    "Verify your email",
		HTMLBody: fmt.Sprintf(
			`<h1>Verify your Email</h1><p>Please click this <a href="%s">link</a> to verify your email</p>`,
			html.EscapeString(link),
		),
	}
}

// PasswordResetMessage carries a password reset link.
func PasswordResetMessage(to, link string) Message {
	return Message{
		Recipients: []string{to},
		Subject:    "Reset your password",
		HTMLBody: fmt.Sprintf(
			`<h1>Reset Your Password</h1><p>Please click this <a href="%s">link</a> to reset your password</p>`,
			html.EscapeString(link),
		),
	}
}
