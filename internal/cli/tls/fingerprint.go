// Package tls pins server certificates for the ccclogin CLI.
package tls

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
)

const fingerprintPrefix = "SHA256:"

// ComputeFingerprint returns "SHA256:<base64>" of the DER-encoded certificate.
func ComputeFingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return fingerprintPrefix + base64.StdEncoding.EncodeToString(hash[:])
}

// FingerprintMatches checks cert against an expected fingerprint.
func FingerprintMatches(cert *x509.Certificate, expected string) bool {
	actual := ComputeFingerprint(cert)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
