package lti

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
)

// ConfirmationString is rendered on every successful launch page. Consumers
// (and tests) can look for it to confirm the handshake worked.
const ConfirmationString = "take this awesome tool"

var launchPage = template.Must(template.New("launch").Parse(`<!DOCTYPE html>
<html>
<head><title>LTI Tool</title></head>
<body>
<div><h1>` + ConfirmationString + `</h1></div>
<p>Launched by consumer <code>{{.ConsumerKey}}</code> for resource link <code>{{.ResourceLinkID}}</code>.</p>
</body>
</html>
`))

// LaunchHandler receives an OAuth 1.0a signed launch POST. A request is
// only answered with the tool page when the signature verifies, i.e. the
// consumer used the correct secret and the message was not modified after
// signing.
func LaunchHandler(v *Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		for _, p := range requiredLaunchParams {
			if r.PostFormValue(p) == "" {
				http.Error(w, "missing "+p, http.StatusBadRequest)
				return
			}
		}

		consumerKey, err := v.Verify(r)
		if err != nil {
			log.Printf("launch rejected: %v", err)
			status, reason := launchErrorStatus(err)
			writeLaunchError(w, status, reason)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = launchPage.Execute(w, struct {
			ConsumerKey    string
			ResourceLinkID string
		}{
			ConsumerKey:    consumerKey,
			ResourceLinkID: r.PostFormValue(ParamResourceLinkID),
		})
	}
}

// LaunchHintHandler answers GETs on the launch endpoint with a usage hint.
func LaunchHintHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Launch requests should be a POST request!")
	}
}

// launchErrorStatus maps verification errors onto HTTP semantics:
// structurally broken requests are client errors, authentication failures
// are unauthorized.
func launchErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingConsumerKey):
		return http.StatusBadRequest, "missing_consumer_key"
	case errors.Is(err, ErrMissingSignature):
		return http.StatusBadRequest, "missing_signature"
	case errors.Is(err, ErrMissingNonce):
		return http.StatusBadRequest, "missing_nonce"
	case errors.Is(err, ErrUnsupportedSignatureMethod):
		return http.StatusBadRequest, "unsupported_signature_method"
	case errors.Is(err, ErrBadTimestamp):
		return http.StatusBadRequest, "malformed_timestamp"
	case errors.Is(err, ErrStaleTimestamp):
		return http.StatusUnauthorized, "stale_timestamp"
	case errors.Is(err, ErrUnknownConsumerKey):
		return http.StatusUnauthorized, "unknown_consumer_key"
	case errors.Is(err, ErrNonceReplayed):
		return http.StatusUnauthorized, "nonce_replayed"
	case errors.Is(err, ErrSignatureMismatch):
		return http.StatusUnauthorized, "invalid_signature"
	default:
		return http.StatusInternalServerError, "verification_failed"
	}
}

type launchErr struct {
	Reason string `json:"reason"`
}

func writeLaunchError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(launchErr{Reason: reason})
}
