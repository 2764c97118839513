package notify

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	PushdeerTemplate = "https://api2.pushdeer.com/message/push?pushkey={TOKEN}&text={RESULT}"
	PushplusTemplate = "http://www.pushplus.plus/send?token={TOKEN}&content={RESULT}&template=txt"
)

// TemplateChannel pushes by requesting a URL built from a template, {TOKEN}
// is replaced by the token and {RESULT} by the URL-encoded text.
type TemplateChannel struct {
	name     string
	template string
	token    string
	http     *resty.Client
}

func NewTemplateChannel(name, template, token string, client *resty.Client) TemplateChannel {
	return TemplateChannel{
		name:     name,
		template: template,
		token:    token,
		http:     client,
	}
}

func (c TemplateChannel) Name() string {
	return c.name
}

func (c TemplateChannel) url(text string) string {
	return strings.NewReplacer(
		"{TOKEN}", c.token,
		"{RESULT}", url.QueryEscape(text),
	).Replace(c.template)
}

func (c TemplateChannel) Send(ctx context.Context, text string) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url(text))
	if err != nil {
		return err
	}
	if !res.IsSuccess() {
		return &PushError{
			Channel: c.name,
			Status:  res.StatusCode(),
			Body:    res.String(),
		}
	}
	return nil
}
