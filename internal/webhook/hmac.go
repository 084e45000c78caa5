package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// signaturePrefix is the mandatory header prefix. Headers in any other
// form fail closed.
const signaturePrefix = "sha256="

// verifySignature checks a received "sha256=<hex>" signature header against
// the HMAC-SHA256 of body keyed by secret.
//
// The digest comparison uses crypto/subtle to stay constant-time regardless
// of where the signatures first differ. Pure function of its inputs.
func verifySignature(secret, body []byte, header string) bool {
	claim, ok := parseSignatureHeader(header)
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	return subtle.ConstantTimeCompare(expected, claim) == 1
}

// parseSignatureHeader extracts the claimed digest bytes. Missing prefix,
// non-hex content, or a digest of the wrong size all reject.
func parseSignatureHeader(header string) ([]byte, bool) {
	if !strings.HasPrefix(header, signaturePrefix) {
		return nil, false
	}
	claim, err := hex.DecodeString(header[len(signaturePrefix):])
	if err != nil || len(claim) != sha256.Size {
		return nil, false
	}
	return claim, true
}

// SignBody computes the signature header value for a body and secret:
// HMAC-SHA256, lowercase hex, "sha256=" prefix. This is the scheme callers
// use to sign requests; tests use it to build valid traffic.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
