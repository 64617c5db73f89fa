package lti

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

/*
OAuth 1.0a verification for inbound launch requests (RFC 5849 section 3).

A Tool Consumer signs the launch with HMAC-SHA1 over the signature base
string and transmits the protocol parameters either in the Authorization
header or inline in the form body. The provider rebuilds the base string
from the request and compares signatures.

Verification order: structural checks (consumer key, signature method,
timestamp) -> secret lookup -> signature -> nonce single-use. The nonce is
only consumed after the signature verifies, so unauthenticated traffic
cannot burn nonces.
*/

const SignatureMethodHMACSHA1 = "HMAC-SHA1"

var (
	ErrMissingConsumerKey         = errors.New("lti: missing oauth_consumer_key")
	ErrMissingSignature           = errors.New("lti: missing oauth_signature")
	ErrMissingNonce               = errors.New("lti: missing oauth_nonce")
	ErrUnsupportedSignatureMethod = errors.New("lti: unsupported oauth_signature_method")
	ErrBadTimestamp               = errors.New("lti: malformed oauth_timestamp")
	ErrStaleTimestamp             = errors.New("lti: oauth_timestamp outside allowed window")
	ErrUnknownConsumerKey         = errors.New("lti: unknown oauth_consumer_key")
	ErrNonceReplayed              = errors.New("lti: oauth_nonce replay detected")
	ErrSignatureMismatch          = errors.New("lti: oauth_signature mismatch")
)

// Verifier authenticates OAuth 1.0a signed requests against a set of
// registered consumer secrets.
type Verifier struct {
	Secrets SecretSource

	// Optional nonce replay protection. Nil disables the check.
	Replay ReplayProtector

	// Optional knobs
	MaxClockSkew time.Duration // default 5m
	NonceTTL     time.Duration // default 10m
	Now          func() time.Time
}

// Verify authenticates r and returns the consumer key that signed it.
// All failures map onto the package sentinel errors.
func (v *Verifier) Verify(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", ErrMissingSignature
	}

	params, sig := collectRequestParams(r)

	consumerKey := params.Get(oauthConsumerKey)
	if consumerKey == "" {
		return "", ErrMissingConsumerKey
	}
	if sig == "" {
		return "", ErrMissingSignature
	}
	if m := params.Get(oauthSignatureMethod); m != SignatureMethodHMACSHA1 {
		return "", ErrUnsupportedSignatureMethod
	}

	ts, err := strconv.ParseInt(params.Get(oauthTimestamp), 10, 64)
	if err != nil || ts <= 0 {
		return "", ErrBadTimestamp
	}
	if d := v.now().Sub(time.Unix(ts, 0)); d > v.skew() || d < -v.skew() {
		return "", ErrStaleTimestamp
	}

	secret, err := v.Secrets.SecretFor(r.Context(), consumerKey)
	if err != nil {
		return "", ErrUnknownConsumerKey
	}

	base := SignatureBase(r.Method, requestBaseURI(r), params)
	want := SignHMACSHA1(base, secret, "")
	if subtle.ConstantTimeCompare([]byte(want), []byte(sig)) != 1 {
		return "", ErrSignatureMismatch
	}

	if v.Replay != nil {
		nonce := params.Get(oauthNonce)
		if nonce == "" {
			return "", ErrMissingNonce
		}
		ok, err := v.Replay.Use("oauth_nonce:"+consumerKey, nonce, v.nonceTTL())
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNonceReplayed
		}
	}

	return consumerKey, nil
}

// collectRequestParams gathers the signed parameters from the query, the
// form body and the OAuth Authorization header (excluding realm), and
// splits off the transmitted signature. r.ParseForm must have been called.
func collectRequestParams(r *http.Request) (url.Values, string) {
	params := url.Values{}
	for k, vs := range r.Form {
		params[k] = append([]string(nil), vs...)
	}

	var sig string
	if hv, ok := parseOAuthHeader(r.Header.Get("Authorization")); ok {
		for k, vs := range hv {
			params[k] = vs
		}
	}
	if s := params.Get(oauthSignature); s != "" {
		sig = s
	}
	params.Del(oauthSignature)
	return params, sig
}

// parseOAuthHeader parses an `OAuth k="v", ...` Authorization header into
// percent-decoded values per RFC 5849 section 3.5.1. The realm parameter is
// dropped (it is not part of the base string).
func parseOAuthHeader(h string) (url.Values, bool) {
	if len(h) < 6 || !strings.EqualFold(h[:6], "OAuth ") {
		return nil, false
	}
	vals := url.Values{}
	for _, part := range strings.Split(h[6:], ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if strings.EqualFold(k, "realm") {
			continue
		}
		dk, err := url.PathUnescape(k)
		if err != nil {
			continue
		}
		dv, err := url.PathUnescape(strings.Trim(v, `"`))
		if err != nil {
			continue
		}
		vals.Set(dk, dv)
	}
	return vals, true
}

// SignatureBase builds the RFC 5849 section 3.4.1 signature base string.
// rawurl must not carry a query component; params holds every signed
// parameter (oauth_signature excluded).
func SignatureBase(method, rawurl string, params url.Values) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		u = &url.URL{}
	}
	base := baseStringURI(u.Scheme, u.Host, u.Path)
	return strings.ToUpper(method) + "&" + percentEncode(base) + "&" + percentEncode(normalizedParams(params))
}

// SignHMACSHA1 signs base with HMAC-SHA1 keyed per RFC 5849 section 3.4.2
// and returns the base64 signature. Two-legged callers pass "" for
// tokenSecret.
func SignHMACSHA1(base, consumerSecret, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// baseStringURI normalizes scheme://host/path: lowercase scheme and host,
// default ports stripped, empty path rendered as "/" (RFC 5849 section
// 3.4.1.2).
func baseStringURI(scheme, host, path string) string {
	scheme = strings.ToLower(scheme)
	host = strings.ToLower(host)
	if path == "" {
		path = "/"
	}
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host + path
}

// normalizedParams percent-encodes every name/value pair, sorts by encoded
// name with the encoded value as tiebreak, and joins them (RFC 5849
// section 3.4.1.3.2).
func normalizedParams(params url.Values) string {
	type kv struct{ k, v string }
	pairs := make([]kv, 0, len(params))
	for k, vs := range params {
		ek := percentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, kv{ek, percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k == pairs[j].k {
			return pairs[i].v < pairs[j].v
		}
		return pairs[i].k < pairs[j].k
	})
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.k)
		b.WriteByte('=')
		b.WriteString(p.v)
	}
	return b.String()
}

// percentEncode escapes everything outside the RFC 3986 unreserved set,
// uppercase hex, byte-wise over UTF-8 (RFC 5849 section 3.6).
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			out = append(out, c)
			continue
		}
		out = append(out, '%', hex[c>>4], hex[c&15])
	}
	return string(out)
}

// requestBaseURI rebuilds the base string URI from an inbound request.
func requestBaseURI(r *http.Request) string {
	return baseStringURI(schemeFromRequest(r), r.Host, r.URL.Path)
}

// schemeFromRequest honors X-Forwarded-Proto set by proxies, then falls
// back to the connection state.
func schemeFromRequest(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		// may be "https,http"; take first
		if i := strings.IndexByte(xf, ','); i >= 0 {
			return strings.TrimSpace(xf[:i])
		}
		return strings.TrimSpace(xf)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (v *Verifier) skew() time.Duration {
	if v.MaxClockSkew > 0 {
		return v.MaxClockSkew
	}
	return 5 * time.Minute
}

func (v *Verifier) nonceTTL() time.Duration {
	if v.NonceTTL > 0 {
		return v.NonceTTL
	}
	return 10 * time.Minute
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}
