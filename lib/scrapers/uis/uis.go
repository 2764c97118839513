package uis

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/lib/restyutil"
	"gradewatch/lib/telemetry"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("gradewatch.lib.scrapers.uis")

var ErrLoginFailed = errors.New("failed to login to UIS")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0"

type ClientOptions struct {
	// the authserver login endpoint, ex. https://uis.fudan.edu.cn/authserver/login
	LoginUrl string
	// requested after the session is done with, empty skips logout
	LogoutUrl string
	// the application the login is for, sent as the `service` parameter
	ServiceUrl string
	UserAgent  string
	// applied to every request, defaults to 30 seconds
	Timeout          time.Duration
	CloudflareBypass bool
	// receives HTTP message dumps when debug logging is on, can be nil
	InstrumentOutput restyutil.InstrumentOutput
}

// Client is an HTTP session against the UIS single sign-on portal. once
// logged in, requests made with R() carry the session cookies.
type Client struct {
	Http *resty.Client

	loginUrl   *url.URL
	logoutUrl  string
	serviceUrl string
}

type noFollowKey struct{}

// withoutRedirects marks a request so that its redirect response is returned
// as is instead of followed.
func withoutRedirects(ctx context.Context) context.Context {
	return context.WithValue(ctx, noFollowKey{}, true)
}

func NewClient(opts ClientOptions) (*Client, error) {
	loginUrl, err := url.Parse(opts.LoginUrl)
	if err != nil {
		return nil, fmt.Errorf("parse login url: %w", err)
	}
	if loginUrl.Scheme == "" || loginUrl.Host == "" {
		return nil, fmt.Errorf("login url %q is not absolute", opts.LoginUrl)
	}
	if opts.ServiceUrl != "" {
		query := loginUrl.Query()
		query.Set("service", opts.ServiceUrl)
		loginUrl.RawQuery = query.Encode()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(timeout)
	if opts.CloudflareBypass {
		client.SetTransport(cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport))
	}

	follow := resty.FlexibleRedirectPolicy(10)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if noFollow, _ := req.Context().Value(noFollowKey{}).(bool); noFollow {
			return http.ErrUseLastResponse
		}
		return follow.Apply(req, via)
	}))

	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	return &Client{
		Http:       client,
		loginUrl:   loginUrl,
		logoutUrl:  opts.LogoutUrl,
		serviceUrl: opts.ServiceUrl,
	}, nil
}

// R starts a request on the authenticated session.
func (c *Client) R() *resty.Request {
	return c.Http.R()
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Login walks through the authserver form: it fetches the login page, copies
// the hidden form fields, posts them with the credentials and treats a
// redirect as success. any other response wraps ErrLoginFailed.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	loginUrl := c.loginUrl.String()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return fmt.Errorf("fetch login page: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: login page returned status %d", ErrLoginFailed, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	hidden, err := ScrapeHiddenFields(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page")
		return fmt.Errorf("parse login page: %w", err)
	}
	span.SetAttributes(attribute.Int("hidden_fields", len(hidden)))

	form := make(map[string]string, len(hidden)+3)
	for name, value := range hidden {
		form[name] = value
	}
	form["username"] = username
	form["password"] = password
	if c.serviceUrl != "" {
		form["service"] = c.serviceUrl
	}

	res, err = c.Http.R().
		SetContext(withoutRedirects(ctx)).
		SetHeader("Origin", fmt.Sprintf("%s://%s", c.loginUrl.Scheme, c.loginUrl.Host)).
		SetHeader("Referer", loginUrl).
		SetFormData(form).
		Post(loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return fmt.Errorf("post credentials: %w", err)
	}
	span.SetAttributes(attribute.Int("login_status", res.StatusCode()))

	if !isRedirect(res.StatusCode()) {
		err := fmt.Errorf("%w: expected a redirect, got status %d", ErrLoginFailed, res.StatusCode())
		if message := scrapeLoginError(res.Body()); message != "" {
			err = fmt.Errorf("%w: %s", err, message)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Logout ends the session on the authserver.
func (c *Client) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	if c.logoutUrl == "" {
		return nil
	}
	_, err := c.Http.R().
		SetContext(ctx).
		Get(c.logoutUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to logout")
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
