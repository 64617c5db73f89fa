package lti_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/edubridge/lti-bridge/internal/lti"
)

func TestConsumerSendsSignedLaunchForm(t *testing.T) {
	var got *http.Request
	var form url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		got = r
		form = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := &lti.Consumer{ConsumerKey: "12345", ConsumerSecret: "secret", LaunchURL: ts.URL + "/launch"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Launch(ctx, nil); err != nil {
		t.Fatalf("launch: %v", err)
	}

	if form.Get("lti_message_type") != lti.MessageTypeBasicLaunch {
		t.Errorf("lti_message_type = %q", form.Get("lti_message_type"))
	}
	if form.Get("lti_version") != lti.VersionLTI1p0 {
		t.Errorf("lti_version = %q", form.Get("lti_version"))
	}
	if form.Get("resource_link_id") != "1" {
		t.Errorf("resource_link_id = %q, want default \"1\"", form.Get("resource_link_id"))
	}

	auth := got.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "OAuth ") {
		t.Fatalf("Authorization = %q, want OAuth scheme", auth)
	}
	for _, p := range []string{"oauth_consumer_key", "oauth_nonce", "oauth_signature_method", "oauth_timestamp", "oauth_signature"} {
		if !strings.Contains(auth, p+"=") {
			t.Errorf("Authorization header missing %s", p)
		}
	}
}

func TestConsumerExtraParamsOverrideDefaults(t *testing.T) {
	var form url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form = r.PostForm
	}))
	defer ts.Close()

	c := &lti.Consumer{ConsumerKey: "12345", ConsumerSecret: "secret", LaunchURL: ts.URL}
	extra := url.Values{
		"lti_version":      {"LTI-1p2"}, // overrides the default
		"user_id":          {"student-7"},
		"launch_presentat": {""}, // blank values are kept
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Launch(ctx, extra); err != nil {
		t.Fatalf("launch: %v", err)
	}

	if form.Get("lti_version") != "LTI-1p2" {
		t.Errorf("lti_version = %q, want override LTI-1p2", form.Get("lti_version"))
	}
	if form.Get("user_id") != "student-7" {
		t.Errorf("user_id = %q", form.Get("user_id"))
	}
	if _, ok := form["launch_presentat"]; !ok {
		t.Errorf("blank-valued extra param was dropped")
	}
}

func TestConsumerLastValueWinsForRepeatedExtras(t *testing.T) {
	// A repeated extra name collapses to its last value before signing;
	// a multi-valued form cannot be represented in the signed parameter
	// set, so the launch must stay verifiable.
	v := &lti.Verifier{Secrets: lti.StaticSecrets{"12345": "secret"}}
	ts := httptest.NewServer(lti.LaunchHandler(v))
	defer ts.Close()

	c := &lti.Consumer{ConsumerKey: "12345", ConsumerSecret: "secret", LaunchURL: ts.URL + "/launch"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := c.Launch(ctx, url.Values{"custom_dup": {"b", "a"}})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", res.StatusCode, res.Body)
	}

	// And the transmitted form carries exactly the last value.
	var got url.Values
	echo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r.PostForm
	}))
	defer echo.Close()
	c.LaunchURL = echo.URL
	if _, err := c.Launch(ctx, url.Values{"custom_dup": {"b", "a"}}); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if want := []string{"a"}; len(got["custom_dup"]) != 1 || got["custom_dup"][0] != want[0] {
		t.Fatalf("custom_dup = %v, want %v", got["custom_dup"], want)
	}
}

func TestConsumerReturnsResponseAsIs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tool", "demo")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer ts.Close()

	c := &lti.Consumer{ConsumerKey: "12345", ConsumerSecret: "secret", LaunchURL: ts.URL}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := c.Launch(ctx, nil)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}

	if res.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", res.StatusCode)
	}
	if res.Header.Get("X-Tool") != "demo" {
		t.Errorf("X-Tool header = %q", res.Header.Get("X-Tool"))
	}
	if res.Body != "short and stout" {
		t.Errorf("body = %q", res.Body)
	}
}

func TestConsumerNetworkErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused

	c := &lti.Consumer{ConsumerKey: "12345", ConsumerSecret: "secret", LaunchURL: ts.URL}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Launch(ctx, nil); err == nil {
		t.Fatalf("expected transport error")
	}
}
