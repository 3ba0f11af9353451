package notification

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Headers set on signed webhook deliveries.
const (
	HeaderSignature   = "X-Workflow-Signature"
	HeaderTimestamp   = "X-Workflow-Timestamp"
	HeaderSignatureV2 = "X-Workflow-Signature-V2"
)

// Signer computes HMAC-SHA256 webhook signatures of the form
// "sha256=<hex>". The V2 signature covers "<unix seconds>.<payload>" so
// receivers can reject replays.
type Signer struct {
	now func() time.Time
}

// NewSigner returns a signer using the wall clock.
func NewSigner() *Signer {
	return &Signer{now: time.Now}
}

func mac(secret string, parts ...[]byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		h.Write(p)
	}
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// SignPayload signs payload with secret.
func (s *Signer) SignPayload(payload []byte, secret string) string {
	return mac(secret, payload)
}

// VerifySignature reports whether signature is the V1 signature of payload.
func (s *Signer) VerifySignature(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(mac(secret, payload)), []byte(signature))
}

// SignedHeaders returns the signature headers for a delivery at ts.
func (s *Signer) SignedHeaders(payload []byte, secret string, ts time.Time) map[string]string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return map[string]string{
		HeaderSignature:   mac(secret, payload),
		HeaderTimestamp:   unix,
		HeaderSignatureV2: mac(secret, []byte(unix+"."), payload),
	}
}

// VerifyTimestampedSignature checks a V2 signature and that timestamp is
// within tolerance of now.
func (s *Signer) VerifyTimestampedSignature(payload []byte, secret, signature string, timestamp int64, tolerance time.Duration) bool {
	if d := s.now().Unix() - timestamp; d > int64(tolerance.Seconds()) || -d > int64(tolerance.Seconds()) {
		return false
	}
	want := mac(secret, []byte(strconv.FormatInt(timestamp, 10)+"."), payload)
	return hmac.Equal([]byte(want), []byte(signature))
}
