package blender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blender-scraper/internal/components/assert"
	"blender-scraper/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_document = "client.document"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrNotHTML          = errors.New("response is not html")
)

type ClientOptions struct {
	// Timeout applies to every request, defaults to 30 seconds.
	Timeout   time.Duration
	UserAgent string
	// Hosts restricts redirects to the given hostnames, unrestricted if empty.
	Hosts []string
	// Output receives full request/response dumps, can be nil.
	Output telemetry.MessageOutput
}

// Client fetches download pages. Every fetch is a single attempt.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(tel telemetry.API, opts ClientOptions) Client {
	assert.NotNil(tel)

	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	httpClient := resty.New()
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRetryCount(0)
	if len(opts.Hosts) > 0 {
		httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(opts.Hosts...))
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return Client{http: httpClient, tel: tel}
}

// Document fetches `link` and parses it as html. Transport failures, non-2xx
// statuses and non-html responses are all errors.
func (c Client) Document(ctx context.Context, link string) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "text/html").
		Get(link)
	if err != nil {
		c.tel.ReportBroken(
			report_client_document,
			fmt.Errorf("fetch: %w", err),
			link,
		)
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		c.tel.ReportBroken(report_client_document, err, link)
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	contentType := res.Header().Get("content-type")
	if !strings.Contains(strings.ToLower(contentType), "html") {
		err = fmt.Errorf("%w: content-type %q", ErrNotHTML, contentType)
		c.tel.ReportBroken(report_client_document, err, link)
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_document,
			fmt.Errorf("parse: %w", err),
			link,
		)
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}
	return doc, nil
}
