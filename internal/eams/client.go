package eams

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"eamsgrab/internal/components/assert"
	"eamsgrab/internal/components/telemetry"
	"eamsgrab/pkg/textdecode"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_new         = "client.new"
	report_client_prepare     = "client.prepare"
	report_client_check_login = "client.check-login"
	report_client_submit      = "client.submit"
)

const formContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// Response is the part of an HTTP response the election pages care about.
type Response struct {
	Status int
	// Url is the url of the last request after redirects were followed.
	Url  string
	Body []byte
	// Charset is the charset declared by the Content-Type header, if any.
	Charset string
}

func newResponse(res *resty.Response) Response {
	out := Response{
		Status:  res.StatusCode(),
		Body:    res.Body(),
		Charset: textdecode.CharsetFromContentType(res.Header().Get("Content-Type")),
	}
	switch {
	case res.RawResponse != nil && res.RawResponse.Request != nil && res.RawResponse.Request.URL != nil:
		out.Url = res.RawResponse.Request.URL.String()
	case res.Request != nil:
		out.Url = res.Request.URL
	}
	return out
}

// Text decodes the body, see textdecode.Decode.
func (r Response) Text() (text string, encoding string) {
	return textdecode.Decode(r.Body, r.Charset)
}

// Bounced reports whether the response is the authentication wall.
func (r Response) Bounced() bool {
	text, _ := r.Text()
	return IsAuthBounce(r.Url, text)
}

type ClientOptions struct {
	BaseUrl   string
	Cookie    string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond caps outgoing requests, 0 disables the cap.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Output receives request/response transcripts when non-nil.
	Output telemetry.InstrumentOutput
}

// Client is an authenticated session against one EAMS deployment. It is
// not safe for concurrent use: headers change during Prepare.
type Client struct {
	BaseUrl string
	Http    *resty.Client

	tel telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("eams", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	parsed, err := url.Parse(opts.BaseUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		err = fmt.Errorf("invalid base url %q: %v", opts.BaseUrl, err)
		tel.ReportBroken(report_client_new, err)
		return nil, err
	}
	origin := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)

	httpClient := resty.New()
	// resty installs a jar by default, Set-Cookie responses must not leak
	// into the fixed Cookie header.
	httpClient.SetCookieJar(nil)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	// the cookie goes in verbatim, a cookie jar would drop values whose
	// domain/path do not match the request.
	httpClient.SetHeaders(map[string]string{
		"User-Agent":      opts.UserAgent,
		"Cookie":          opts.Cookie,
		"Accept":          "application/json, text/javascript, */*; q=0.01",
		"Accept-Encoding": "gzip, deflate",
		"Origin":          origin,
		"Content-Type":    formContentType,
	})

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, "eamsgrab/eams/http", tel, opts.Output)

	return &Client{
		BaseUrl: origin + parsed.EscapedPath(),
		Http:    httpClient,
		tel:     tel,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return Response{}, err
	}
	return newResponse(res), nil
}

// Prepare warms the session up the way a browser would before the election
// page is used: it visits the home page and the election landing page of
// `profileId`, switches to XHR headers with that landing page as Referer and
// finally checks that the cookie is still logged in.
func (c *Client) Prepare(ctx context.Context, profileId string) error {
	_, err := c.get(ctx, joinUrl(c.BaseUrl, homeExtPath))
	if err != nil {
		c.tel.ReportBroken(report_client_prepare, fmt.Errorf("home page: %w", err))
		return fmt.Errorf("warm up home page: %w", err)
	}

	referer := DefaultPageUrl(c.BaseUrl, profileId)
	_, err = c.get(ctx, referer)
	if err != nil {
		c.tel.ReportBroken(report_client_prepare, fmt.Errorf("default page: %w", err), referer)
		return fmt.Errorf("warm up election page: %w", err)
	}

	c.Http.SetHeader("Referer", referer)
	c.Http.SetHeader("X-Requested-With", "XMLHttpRequest")

	return c.CheckLogin(ctx)
}

// CheckLogin returns ErrCookieExpired if the home page bounces to the
// authentication wall.
func (c *Client) CheckLogin(ctx context.Context) error {
	res, err := c.get(ctx, joinUrl(c.BaseUrl, homePath))
	if err != nil {
		c.tel.ReportBroken(report_client_check_login, err)
		return fmt.Errorf("login probe: %w", err)
	}
	if res.Bounced() {
		c.tel.ReportWarning(report_client_check_login, "bounced to authentication", res.Url)
		return ErrCookieExpired
	}
	return nil
}

// Submit posts one election form to `endpoint`. The body is encoded by hand
// since SetFormData would drop the charset from the Content-Type.
func (c *Client) Submit(ctx context.Context, endpoint string, form Form) (Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Content-Type", formContentType).
		SetBody(form.Encode()).
		Post(endpoint)
	if err != nil {
		c.tel.ReportDebug(report_client_submit, err, endpoint)
		return Response{}, err
	}
	return newResponse(res), nil
}
