package internal

import (
	"net/url"
	"strings"
)

// Address is the parsed page address at bootstrap or callback time. Identity
// backends deliver recovery and confirmation tokens in either the query
// string or the fragment, so both are folded together here.
type Address struct {
	Path string

	// Recovery is true when a recovery-type token is present.
	Recovery bool
	// SignupConfirmation is true for an email-confirmation redirect
	// (type=signup plus an access token).
	SignupConfirmation bool
	// HasAccessToken is true when an access token rides in the address.
	HasAccessToken bool

	// Code is the PKCE exchange code, when present.
	Code string
	// ErrorMessage carries the backend's error description, when present.
	ErrorMessage string
}

// ParseAddress extracts auth-relevant markers from a raw page address.
// A malformed address parses as an empty Address; bootstrap treats that the
// same as a plain route.
func ParseAddress(raw string) Address {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}
	}

	params := u.Query()
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			for key, values := range frag {
				for _, v := range values {
					params.Add(key, v)
				}
			}
		}
	}

	addr := Address{
		Path:           u.Path,
		HasAccessToken: params.Get("access_token") != "",
		Code:           params.Get("code"),
	}

	switch params.Get("type") {
	case "recovery":
		addr.Recovery = true
	case "signup":
		addr.SignupConfirmation = addr.HasAccessToken
	}
	// Some backend redirects carry the recovery marker outside any
	// parseable parameter set.
	if !addr.Recovery && strings.Contains(raw, "type=recovery") {
		addr.Recovery = true
	}

	if msg := params.Get("error_description"); msg != "" {
		addr.ErrorMessage = strings.ReplaceAll(msg, "+", " ")
	} else if msg := params.Get("error"); msg != "" {
		addr.ErrorMessage = strings.ReplaceAll(msg, "+", " ")
	}

	return addr
}
