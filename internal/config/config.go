package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string

	// Primary consumer credentials. The same pair is used by the consumer
	// to sign launches and by the provider to verify them.
	ConsumerKey    string
	ConsumerSecret string

	// Additional key:secret pairs accepted by the provider.
	ExtraConsumers map[string]string

	// Consumer-side launch target.
	LaunchURL      string
	ResourceLinkID string

	// Nonce/timestamp replay protection on the provider.
	ReplayGuard bool

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8000"),
		ConsumerKey:    envOr("LTI_CONSUMER_KEY", "12345"),
		ConsumerSecret: envOr("LTI_CONSUMER_SECRET", "secret"),
		ExtraConsumers: pairsOr("LTI_CONSUMERS", ""),
		LaunchURL:      envOr("LTI_LAUNCH_URL", "http://localhost:8000/launch"),
		ResourceLinkID: envOr("LTI_RESOURCE_LINK_ID", "1"),
		ReplayGuard:    envBool("LTI_REPLAY_GUARD", true),
		CORSOrigins:    csvOr("CORS_ORIGINS", "*"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// pairsOr parses "key:secret,key2:secret2" into a map. Entries without a
// colon are skipped.
func pairsOr(k, def string) map[string]string {
	out := map[string]string{}
	for _, p := range csvOr(k, def) {
		key, secret, ok := strings.Cut(p, ":")
		if !ok || key == "" {
			continue
		}
		out[key] = secret
	}
	return out
}
