package omv

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
)

// Diagnosis codes reported through Client.ErrorCode.
const (
	ErrCannotConnect       = "cannot_connect"
	ErrSSLHandshakeFailure = "ssl_handshake_failure"
	ErrWrongLogin          = "wrong_login"
	ErrNoResponse          = "no_response"
	ErrInvalidResponse     = "invalid_response"
)

// classifyTransportError maps a failed round trip to a diagnosis code.
func classifyTransportError(err error) string {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError

	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &certInvalid),
		errors.As(err, &recordErr):
		return ErrSSLHandshakeFailure
	}

	msg := err.Error()
	if strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") {
		return ErrSSLHandshakeFailure
	}
	return ErrCannotConnect
}
