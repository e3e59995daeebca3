// Package ablysig verifies signed webhook requests from the realtime broker.
//
// The broker signs the exact raw request body with HMAC-SHA256 using the
// secret half of the configured API key ("keyName:keySecret") and sends the
// base64-encoded digest alongside the key name.
package ablysig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrMalformedKey     = errors.New("api key must be in keyName:keySecret form")
	ErrMissingHeader    = errors.New("missing key or signature header")
	ErrKeyNameMismatch  = errors.New("key name does not match configured key")
	ErrBadSignature     = errors.New("signature mismatch")
	ErrInvalidSignature = errors.New("signature is not valid base64")
)

// Verifier checks webhook signatures against one configured API key.
type Verifier struct {
	keyName   string
	keySecret string
}

// New parses an API key of the form "keyName:keySecret".
func New(apiKey string) (*Verifier, error) {
	name, secret, ok := strings.Cut(apiKey, ":")
	if !ok || name == "" || secret == "" {
		return nil, ErrMalformedKey
	}
	return &Verifier{keyName: name, keySecret: secret}, nil
}

// KeyName returns the public half of the configured key.
func (v *Verifier) KeyName() string {
	return v.keyName
}

// Verify checks the key name and the base64 HMAC-SHA256 signature over the
// raw body. The header key may be the full "appId.keyId" name or just the
// keyId suffix after the last dot.
func (v *Verifier) Verify(headerKey, headerSig string, body []byte) error {
	if headerKey == "" || headerSig == "" {
		return ErrMissingHeader
	}

	if !v.keyNameMatches(headerKey) {
		return ErrKeyNameMismatch
	}

	got, err := base64.StdEncoding.DecodeString(headerSig)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(v.keySecret))
	mac.Write(body)
	want := mac.Sum(nil)

	// hmac.Equal is constant time
	if !hmac.Equal(got, want) {
		return ErrBadSignature
	}

	return nil
}

func (v *Verifier) keyNameMatches(headerKey string) bool {
	if headerKey == v.keyName {
		return true
	}
	// accept the keyId suffix alone
	if i := strings.LastIndex(v.keyName, "."); i >= 0 {
		return headerKey == v.keyName[i+1:]
	}
	return false
}

// Sign computes the base64 signature for a body. Used by tests and tooling.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(v.keySecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
