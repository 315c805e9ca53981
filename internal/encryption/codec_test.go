package encryption

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/starford/lumina/internal/apperr"
)

var codec = New(MinIterations)

func TestEncrypt_EmptyPassesThrough(t *testing.T) {
	out, err := codec.Encrypt("", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if out != "" {
		t.Errorf("encrypt of empty = %q, want empty", out)
	}
	back, err := codec.Decrypt("", "pw")
	if err != nil || back != "" {
		t.Errorf("decrypt of empty = %q, %v", back, err)
	}
}

func TestEncrypt_BlobLayout(t *testing.T) {
	blob, err := codec.Encrypt("hello", "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("blob is not base64: %v", err)
	}
	// One block of ciphertext for a five byte message.
	if len(raw) != SaltSize+IVSize+16 {
		t.Errorf("blob length = %d, want %d", len(raw), SaltSize+IVSize+16)
	}

	again, _ := codec.Encrypt("hello", "pw")
	if again == blob {
		t.Error("two encryptions of the same plaintext should differ (random salt and IV)")
	}
}

func TestDecrypt_MalformedInputs(t *testing.T) {
	valid, _ := codec.Encrypt("some content", "pw")
	raw, _ := base64.StdEncoding.DecodeString(valid)

	cases := map[string]string{
		"not base64":  "%%%not-base64%%%",
		"salt only":   base64.StdEncoding.EncodeToString(raw[:SaltSize]),
		"no body":     base64.StdEncoding.EncodeToString(raw[:SaltSize+IVSize]),
		"ragged body": base64.StdEncoding.EncodeToString(raw[:len(raw)-3]),
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decrypt(blob, "pw")
			if !errors.Is(err, apperr.ErrDecryption) {
				t.Errorf("err = %v, want ErrDecryption", err)
			}
		})
	}
}

func TestUnpad_RejectsInconsistentPadding(t *testing.T) {
	block := []byte(strings.Repeat("a", 13) + "\x01\x02\x03")
	if _, ok := unpad(block, 16); ok {
		t.Error("mixed padding bytes should be rejected")
	}
	block = []byte(strings.Repeat("a", 15) + "\x00")
	if _, ok := unpad(block, 16); ok {
		t.Error("zero padding should be rejected")
	}
	block = []byte(strings.Repeat("a", 13) + "\x03\x03\x03")
	got, ok := unpad(block, 16)
	if !ok || string(got) != strings.Repeat("a", 13) {
		t.Errorf("unpad = %q, %v", got, ok)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	stored, err := codec.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !codec.VerifyPassword("correct horse", stored) {
		t.Error("matching password should verify")
	}
	if codec.VerifyPassword("battery staple", stored) {
		t.Error("different password should not verify")
	}
	if codec.VerifyPassword("correct horse", "garbage") {
		t.Error("malformed stored hash should not verify")
	}
}

func TestNew_ClampsIterations(t *testing.T) {
	if New(5).Iterations != MinIterations {
		t.Errorf("iterations = %d, want %d", New(5).Iterations, MinIterations)
	}
	var zero Codec
	if zero.iterations() != MinIterations {
		t.Error("zero codec should use the minimum work factor")
	}
}

func passwordGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9!@#$%^&*]{1,24}`)
}

func TestRoundTrip_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plaintext := rapid.StringN(1, 300, -1).Draw(t, "plaintext")
		password := passwordGen().Draw(t, "password")

		blob, err := codec.Encrypt(plaintext, password)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if blob == plaintext {
			t.Fatalf("ciphertext equals plaintext")
		}
		got, err := codec.Decrypt(blob, password)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Fatalf("round trip = %q, want %q", got, plaintext)
		}
	})
}

func TestWrongPassword_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plaintext := rapid.StringN(1, 300, -1).Draw(t, "plaintext")
		w1 := passwordGen().Draw(t, "w1")
		w2 := passwordGen().Filter(func(s string) bool { return s != w1 }).Draw(t, "w2")

		blob, err := codec.Encrypt(plaintext, w1)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		got, err := codec.Decrypt(blob, w2)
		if !errors.Is(err, apperr.ErrDecryption) {
			t.Fatalf("decrypt with wrong password = %q, %v; want ErrDecryption", got, err)
		}
	})
}
