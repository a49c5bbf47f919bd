// Package mail delivers transactional email: sign-in links for now.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendgridSender struct {
	log        logger.Log
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Sender = (*SendgridSender)(nil)

func NewSendgridSender(l logger.Log, key, fromName, fromAddress, subjectPrefix string) *SendgridSender {
	return &SendgridSender{
		log:        l,
		key:        key,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: subjectPrefix,
	}
}

func (s *SendgridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *SendgridSender) Send(_ context.Context, msg Message) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		s.log.ErrorErr("sendgrid request failed", err)
		return fmt.Errorf("send mail: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.log.Error("sendgrid rejected message", "status", res.StatusCode, "body", res.Body)
		return fmt.Errorf("send mail: sendgrid status %d", res.StatusCode)
	}
	return nil
}

// ConsoleSender writes messages to the log instead of sending them and
// remembers them for inspection.
type ConsoleSender struct {
	log        logger.Log
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(l logger.Log, subjectPrefix string) *ConsoleSender {
	return &ConsoleSender{log: l, subjPrefix: subjectPrefix}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email",
		"to", msg.To.String(),
		"subject", s.subjPrefix+msg.Subject,
		"text", msg.Text,
	)
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
