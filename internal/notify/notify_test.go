package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func newTestMailer(t *testing.T) *Mailer {
	t.Helper()
	m, err := NewMailer(Config{
		Host:            "localhost",
		Port:            2525,
		From:            "certificates@vellum.dev",
		FrontendBaseURL: "https://certs.example.com",
	})
	require.NoError(t, err)
	return m
}

func TestBuildMessage(t *testing.T) {
	m := newTestMailer(t)

	msg, err := m.buildMessage(Notification{
		Email:      "ann@x.com",
		Name:       "Ann Lee",
		Program:    "Data Engineering",
		IssuanceID: "iss-123",
	})
	require.NoError(t, err)

	to := msg.GetTo()
	require.Len(t, to, 1)
	assert.Equal(t, "ann@x.com", to[0].Address)

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Contains(t, subject[0], "Data Engineering")

	parts := msg.GetParts()
	require.Len(t, parts, 1)
	content, err := parts[0].GetContent()
	require.NoError(t, err)

	body := string(content)
	assert.Contains(t, body, "Hello Ann Lee")
	assert.Contains(t, body, "https://certs.example.com/certificate/iss-123")
	assert.Contains(t, body, "does not expire")
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	m := newTestMailer(t)

	_, err := m.buildMessage(Notification{Email: "not-an-address", Name: "Bo"})
	require.Error(t, err)
}

func TestCertificateURL(t *testing.T) {
	m := newTestMailer(t)
	assert.Equal(t, "https://certs.example.com/certificate/abc", m.CertificateURL("abc"))
}

func TestCertificateURLTrailingSlashBase(t *testing.T) {
	m, err := NewMailer(Config{
		Host:            "localhost",
		Port:            2525,
		From:            "certificates@vellum.dev",
		FrontendBaseURL: "https://certs.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://certs.example.com/certificate/abc", m.CertificateURL("abc"))
}
