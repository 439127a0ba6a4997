package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"

	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
)

// SignatureHeader is the header Paystack signs deliveries with.
const SignatureHeader = "X-Paystack-Signature"

// Verifier checks webhook payload signatures. The digest is computed over
// the raw request bytes, before any JSON decode, and compared in constant
// time.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns nil when header carries a valid HMAC-SHA512 hex digest of
// payload under the shared secret.
func (v *Verifier) Verify(payload []byte, header string) error {
	if len(v.secret) == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "webhook signing secret not configured")
	}
	if header == "" {
		return pkgerrors.New(pkgerrors.CodeSignature, "signature header missing")
	}

	mac := hmac.New(sha512.New, v.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(header)) {
		return pkgerrors.New(pkgerrors.CodeSignature, "computed digest did not match header")
	}
	return nil
}
