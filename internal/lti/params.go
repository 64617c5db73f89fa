// Package lti implements the LTI 1.0 basic launch handshake: an OAuth 1.0a
// signed form POST from a Tool Consumer to a Tool Provider.
package lti

import "net/url"

// Fixed protocol values for a basic launch, per LTI 1.0.
const (
	MessageTypeBasicLaunch = "basic-lti-launch-request"
	VersionLTI1p0          = "LTI-1p0"
)

// LTI parameter names used by the launch contract.
const (
	ParamMessageType    = "lti_message_type"
	ParamVersion        = "lti_version"
	ParamResourceLinkID = "resource_link_id"
)

// OAuth 1.0a protocol parameter names (RFC 5849 section 3.1).
const (
	oauthConsumerKey     = "oauth_consumer_key"
	oauthNonce           = "oauth_nonce"
	oauthSignature       = "oauth_signature"
	oauthSignatureMethod = "oauth_signature_method"
	oauthTimestamp       = "oauth_timestamp"
	oauthToken           = "oauth_token"
	oauthVersion         = "oauth_version"
)

// requiredLaunchParams must be present and non-blank in every launch POST.
// The oauth_* fields are checked separately by the Verifier.
var requiredLaunchParams = []string{
	ParamMessageType,
	ParamVersion,
	ParamResourceLinkID,
}

// LaunchValues returns the default parameter set for a basic launch.
// Callers may override any entry (including the fixed protocol values)
// before signing; blank values are kept.
func LaunchValues(resourceLinkID string) url.Values {
	return url.Values{
		ParamMessageType:    {MessageTypeBasicLaunch},
		ParamVersion:        {VersionLTI1p0},
		ParamResourceLinkID: {resourceLinkID},
	}
}
