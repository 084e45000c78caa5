package webhook

import (
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte(`{"event":"push","repository":"test"}`)

	valid := SignBody(secret, body)

	tests := []struct {
		name   string
		secret []byte
		body   []byte
		header string
		want   bool
	}{
		{
			name:   "valid signature",
			secret: secret,
			body:   body,
			header: valid,
			want:   true,
		},
		{
			name:   "wrong secret",
			secret: []byte("wrong-secret"),
			body:   body,
			header: valid,
			want:   false,
		},
		{
			name:   "tampered body",
			secret: secret,
			body:   []byte(`{"event":"push","repository":"hacked"}`),
			header: valid,
			want:   false,
		},
		{
			name:   "wrong digest",
			secret: secret,
			body:   body,
			header: "sha256=" + strings.Repeat("00", 32),
			want:   false,
		},
		{
			name:   "missing prefix",
			secret: secret,
			body:   body,
			header: strings.TrimPrefix(valid, "sha256="),
			want:   false,
		},
		{
			name:   "wrong prefix",
			secret: secret,
			body:   body,
			header: "sha1=" + strings.TrimPrefix(valid, "sha256="),
			want:   false,
		},
		{
			name:   "empty header",
			secret: secret,
			body:   body,
			header: "",
			want:   false,
		},
		{
			name:   "non-hex digest",
			secret: secret,
			body:   body,
			header: "sha256=" + strings.Repeat("zz", 32),
			want:   false,
		},
		{
			name:   "odd-length digest",
			secret: secret,
			body:   body,
			header: valid[:len(valid)-1],
			want:   false,
		},
		{
			name:   "truncated digest",
			secret: secret,
			body:   body,
			header: "sha256=" + strings.Repeat("ab", 16),
			want:   false,
		},
		{
			name:   "oversized digest",
			secret: secret,
			body:   body,
			header: valid + "abcd",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifySignature(tt.secret, tt.body, tt.header); got != tt.want {
				t.Errorf("verifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignBody(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte("deploy --env prod")

	sig := SignBody(secret, body)

	if !strings.HasPrefix(sig, "sha256=") {
		t.Errorf("signature missing sha256= prefix: %q", sig)
	}
	if len(sig) != len("sha256=")+64 {
		t.Errorf("signature length = %d, want %d", len(sig), len("sha256=")+64)
	}
	if sig != strings.ToLower(sig) {
		t.Errorf("signature should be lowercase hex: %q", sig)
	}

	// Deterministic
	if sig != SignBody(secret, body) {
		t.Error("signature should be deterministic")
	}

	// Round trip
	if !verifySignature(secret, body, sig) {
		t.Error("verifySignature should accept SignBody output")
	}
}

func TestSignBody_DistinctInputsDistinctSignatures(t *testing.T) {
	body := []byte("payload")

	if SignBody([]byte("a"), body) == SignBody([]byte("b"), body) {
		t.Error("different secrets should produce different signatures")
	}
	if SignBody([]byte("a"), body) == SignBody([]byte("a"), []byte("other")) {
		t.Error("different bodies should produce different signatures")
	}
}
