package lti

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
)

// Consumer launches an LTI 1.0 tool hosted by any compliant provider.
//
// The provider uses ConsumerKey to tell its consumers apart; it cannot be
// left out of the request as per the LTI standard, even when the provider
// ignores it. ConsumerSecret is the value agreed with the provider when the
// tool was published.
type Consumer struct {
	ConsumerKey    string
	ConsumerSecret string

	// LaunchURL is the tool's launch endpoint (not a cartridge URL).
	LaunchURL string

	// ResourceLinkID identifies the tool placement; defaults to "1".
	ResourceLinkID string

	// HTTPClient is the base client used for the signed request; defaults
	// to http.DefaultClient.
	HTTPClient *http.Client
}

// LaunchResult is the provider's raw response to a launch request.
type LaunchResult struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Launch signs the launch parameters with an OAuth 1.0a HMAC-SHA1 signature
// and POSTs them to the provider. extra entries are merged into the payload
// and may override the defaults, including lti_message_type and
// lti_version. Each parameter carries a single value; when extra holds
// several values for a name, the last one wins. The response is returned
// as-is; only transport failures produce an error.
func (c *Consumer) Launch(ctx context.Context, extra url.Values) (*LaunchResult, error) {
	form := LaunchValues(c.resourceLinkID())
	for k, vs := range extra {
		if len(vs) == 0 {
			continue
		}
		form.Set(k, vs[len(vs)-1])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.launchURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build launch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.signingClient(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", c.LaunchURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read launch response: %w", err)
	}

	return &LaunchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	}, nil
}

// signingClient wraps the base client with a transport that signs each
// request per OAuth 1.0a (two-legged: empty token credentials). The signed
// protocol parameters travel in the Authorization header; form body
// parameters are part of the signature base string.
func (c *Consumer) signingClient(ctx context.Context) *http.Client {
	cfg := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret)
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth1.HTTPClient, c.HTTPClient)
	}
	return cfg.Client(ctx, oauth1.NewToken("", ""))
}

// launchURL normalizes an empty path to "/" so the signed base string URI
// matches what the provider rebuilds from the request (RFC 5849 section
// 3.4.1.2).
func (c *Consumer) launchURL() string {
	u, err := url.Parse(c.LaunchURL)
	if err != nil || u.Path != "" {
		return c.LaunchURL
	}
	u.Path = "/"
	return u.String()
}

func (c *Consumer) resourceLinkID() string {
	if c.ResourceLinkID != "" {
		return c.ResourceLinkID
	}
	return "1"
}
