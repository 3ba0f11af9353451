package notification

import (
	"strconv"
	"testing"
	"time"
)

func TestSigner_SignPayload(t *testing.T) {
	t.Parallel()

	signer := NewSigner()
	got := signer.SignPayload([]byte("The quick brown fox jumps over the lazy dog"), "key")
	want := "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Errorf("SignPayload() = %s, want %s", got, want)
	}
}

func TestSigner_VerifySignature(t *testing.T) {
	t.Parallel()

	signer := NewSigner()
	payload := []byte(`{"type":"manager_approved"}`)
	sig := signer.SignPayload(payload, "secret")

	tests := []struct {
		name      string
		payload   []byte
		secret    string
		signature string
		want      bool
	}{
		{"valid", payload, "secret", sig, true},
		{"wrong secret", payload, "other", sig, false},
		{"tampered payload", []byte(`{"type":"client_approved"}`), "secret", sig, false},
		{"garbage signature", payload, "secret", "sha256=00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := signer.VerifySignature(tt.payload, tt.secret, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSigner_TimestampedSignature(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	signer := &Signer{now: func() time.Time { return now }}
	payload := []byte(`{"id":"n-1"}`)

	headers := signer.SignedHeaders(payload, "secret", now)
	if headers[HeaderSignature] != signer.SignPayload(payload, "secret") {
		t.Errorf("%s = %s", HeaderSignature, headers[HeaderSignature])
	}
	ts, err := strconv.ParseInt(headers[HeaderTimestamp], 10, 64)
	if err != nil || ts != now.Unix() {
		t.Fatalf("%s = %q", HeaderTimestamp, headers[HeaderTimestamp])
	}

	v2 := headers[HeaderSignatureV2]
	if !signer.VerifyTimestampedSignature(payload, "secret", v2, ts, 5*time.Minute) {
		t.Error("VerifyTimestampedSignature() = false for fresh signature")
	}

	signer.now = func() time.Time { return now.Add(10 * time.Minute) }
	if signer.VerifyTimestampedSignature(payload, "secret", v2, ts, 5*time.Minute) {
		t.Error("VerifyTimestampedSignature() = true outside tolerance")
	}
}
