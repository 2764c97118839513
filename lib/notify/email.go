package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type EmailOptions struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// defaults to EmailAddress
	To string `json:"to"`
}

func (o EmailOptions) configured() bool {
	return o.Server != "" && o.EmailAddress != ""
}

// EmailChannel mails the text to the configured address, the first line of
// the text becomes the subject.
type EmailChannel struct {
	opts EmailOptions
}

func NewEmailChannel(opts EmailOptions) EmailChannel {
	if opts.Port == 0 {
		opts.Port = 587
	}
	if opts.To == "" {
		opts.To = opts.EmailAddress
	}
	return EmailChannel{opts: opts}
}

func (c EmailChannel) Name() string {
	return "email"
}

func (c EmailChannel) message(text string) *email.Email {
	subject, _, _ := strings.Cut(text, "\n")
	if subject == "" {
		subject = "Transcript update"
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("gradewatch <%s>", c.opts.EmailAddress)
	mail.To = []string{c.opts.To}
	mail.Subject = subject
	mail.Text = []byte(text)
	return mail
}

func (c EmailChannel) Send(ctx context.Context, text string) error {
	if !c.opts.configured() {
		return errors.New("email channel selected but no smtp server is configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := c.message(text)
	addr := fmt.Sprintf("%s:%d", c.opts.Server, c.opts.Port)
	auth := smtp.PlainAuth("", c.opts.EmailAddress, c.opts.Password, c.opts.Server)

	err := mail.Send(addr, auth)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	return err
}
