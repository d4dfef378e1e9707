package mail

import (
	"fmt"
	"strings"
	"text/template"
)

// Template data for the account emails. The verification and reset emails
// carry both the signed link and the short code, so the recipient can finish
// the flow from either.

const verificationSubject = "Verify your account"

const verificationBody = `Hi {{.FullName}},

Welcome! Please verify your account within {{.ValidFor}}.

Your verification code is {{.Code}}.

Or follow this link: {{.Link}}

If you did not sign up, you can ignore this email.
`

const passwordResetSubject = "Reset your password"

const passwordResetBody = `Hi {{.FullName}},

We received a request to reset your password. The link below is valid for {{.ValidFor}}.

Your reset code is {{.Code}}.

Or follow this link: {{.Link}}

If you did not request a reset, you can ignore this email and your password will stay unchanged.
`

const inviteSubject = "Your new account"

const inviteBody = `Hi {{.FullName}},

An account has been created for you.

Email: {{.Email}}
Temporary password: {{.Password}}

Verify your account here: {{.Link}}

Please sign in and change your password right away.
`

var (
	verificationTmpl  = template.Must(template.New("verification").Parse(verificationBody))
	passwordResetTmpl = template.Must(template.New("password_reset").Parse(passwordResetBody))
	inviteTmpl        = template.Must(template.New("invite").Parse(inviteBody))
)

// VerificationData fills the verification and password-reset emails.
type VerificationData struct {
	FullName string
	Code     string
	Link     string
	ValidFor string
}

// InviteData fills the admin-created-account email.
type InviteData struct {
	FullName string
	Email    string
	Password string
	Link     string
}

// NewVerificationMessage renders the account-verification email.
func NewVerificationMessage(to string, data VerificationData) (*Message, error) {
	return render(verificationTmpl, to, verificationSubject, data)
}

// NewPasswordResetMessage renders the password-reset email.
func NewPasswordResetMessage(to string, data VerificationData) (*Message, error) {
	return render(passwordResetTmpl, to, passwordResetSubject, data)
}

// NewInviteMessage renders the email sent when an administrator creates an
// account on someone's behalf.
func NewInviteMessage(to string, data InviteData) (*Message, error) {
	return render(inviteTmpl, to, inviteSubject, data)
}

func render(tmpl *template.Template, to, subject string, data any) (*Message, error) {
	var body strings.Builder
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}

	return &Message{
		To:      to,
		Subject: subject,
		Body:    body.String(),
	}, nil
}
