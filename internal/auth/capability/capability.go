// Package capability implements self-contained export tokens. A token grants
// export rights without a live session: the payload names a subject and an
// expiry, and an HMAC signature over the encoded payload makes it
// tamper-evident. Tokens are never stored server-side.
package capability

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalid is returned for every verification failure. Callers never learn
// whether the signature, encoding or expiry was at fault.
var ErrInvalid = errors.New("invalid capability token")

// Payload is the signed token body.
type Payload struct {
	SubjectID        string `json:"subjectId"`
	ExpiresAtEpochMs int64  `json:"expiresAtEpochMs,omitempty"`
	Note             string `json:"note,omitempty"`
}

// Expired reports whether the payload carries an expiry in the past.
func (p *Payload) Expired(now time.Time) bool {
	return p.ExpiresAtEpochMs != 0 && p.ExpiresAtEpochMs < now.UnixMilli()
}

// Verifier validates capability tokens against a server-held secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a Verifier. The secret must match the one used to mint
// tokens; rotation invalidates all outstanding tokens by design.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Verify checks token and returns its payload, or ErrInvalid. The wire shape
// is base64(payload JSON) + "." + hex(HMAC-SHA256(secret, base64 segment)).
func (v *Verifier) Verify(token string) (*Payload, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return nil, ErrInvalid
	}

	if !hmac.Equal([]byte(v.sign(encoded)), []byte(signature)) {
		return nil, ErrInvalid
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalid
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrInvalid
	}
	if payload.SubjectID == "" {
		return nil, ErrInvalid
	}
	if payload.Expired(v.now()) {
		return nil, ErrInvalid
	}

	return &payload, nil
}

// Issue mints a token for payload with the verifier's secret. Used by the
// operational surface that hands out export links, and by tests.
func (v *Verifier) Issue(payload Payload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded + "." + v.sign(encoded), nil
}

func (v *Verifier) sign(encoded string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
