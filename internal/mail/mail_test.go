package mail

import (
	"context"
	"encoding/json"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/pkg/logger"
)

func TestConsoleSender(t *testing.T) {
	s := NewConsoleSender(logger.Discard(), "[ZuluSkills] ")
	msg := Message{To: mail.Address{Address: "a@b.c"}, Subject: "Hi", Text: "body"}

	require.NoError(t, s.Send(context.Background(), msg))
	assert.Equal(t, []Message{msg}, s.Sent())
}

func TestSendgridSender_Prepare(t *testing.T) {
	s := NewSendgridSender(logger.Discard(), "key", "ZuluSkills", "no-reply@zuluskills.dev", "[ZuluSkills] ")
	m := s.prepare(Message{
		To:      mail.Address{Name: "Ann", Address: "ann@example.com"},
		Subject: "Sign in",
		Text:    "link",
		HTML:    "<a>link</a>",
	})

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(sgmail.GetRequestBody(m), &body))

	assert.Equal(t, "no-reply@zuluskills.dev", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[ZuluSkills] Sign in", body.Personalizations[0].Subject)
	assert.Equal(t, "ann@example.com", body.Personalizations[0].To[0].Email)
	assert.Len(t, body.Content, 2)
}
