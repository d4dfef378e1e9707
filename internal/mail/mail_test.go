package mail

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationMessage(t *testing.T) {
	msg, err := NewVerificationMessage("alice@example.com", VerificationData{
		FullName: "Alice Smith",
		Code:     "4821",
		Link:     "https://accounts.example.com/verify?token=abc",
		ValidFor: "48 hours",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Verify your account", msg.Subject)
	assert.Contains(t, msg.Body, "Alice Smith")
	assert.Contains(t, msg.Body, "4821")
	assert.Contains(t, msg.Body, "https://accounts.example.com/verify?token=abc")
	assert.Contains(t, msg.Body, "48 hours")
}

func TestNewPasswordResetMessage(t *testing.T) {
	msg, err := NewPasswordResetMessage("alice@example.com", VerificationData{
		FullName: "Alice Smith",
		Code:     "7305",
		Link:     "https://accounts.example.com/reset?token=xyz",
		ValidFor: "15 minutes",
	})
	require.NoError(t, err)

	assert.Equal(t, "Reset your password", msg.Subject)
	assert.Contains(t, msg.Body, "7305")
	assert.Contains(t, msg.Body, "15 minutes")
}

func TestNewInviteMessage(t *testing.T) {
	msg, err := NewInviteMessage("bob@example.com", InviteData{
		FullName: "Bob Brown",
		Email:    "bob@example.com",
		Password: "s3cretpass",
		Link:     "https://accounts.example.com/verify?token=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your new account", msg.Subject)
	assert.Contains(t, msg.Body, "bob@example.com")
	assert.Contains(t, msg.Body, "s3cretpass")
	assert.Contains(t, msg.Body, "https://accounts.example.com/verify?token=abc")
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "noreply@example.com",
	})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.Send(context.Background(), &Message{
		To:      "alice@example.com",
		Subject: "Hello",
		Body:    "body text",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hello\r\n")
	assert.Contains(t, string(gotMsg), "body text")
}

func TestSMTPMailer_Send_CanceledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send should not be called with a canceled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, &Message{To: "alice@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
