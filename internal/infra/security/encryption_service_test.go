package security

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		svc, err := NewEncryptionService(strings.Repeat("k", keyLen))
		if err != nil {
			t.Fatalf("key len %d: %v", keyLen, err)
		}
		plain := "meeting transcript with names in it"
		ct, err := svc.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if strings.Contains(ct, plain) {
			t.Error("ciphertext contains plaintext")
		}
		got, err := svc.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plain {
			t.Errorf("round trip = %q", got)
		}
	}
}

func TestEncryptNoncesDiffer(t *testing.T) {
	svc, _ := NewEncryptionService(strings.Repeat("k", 32))
	a, _ := svc.Encrypt("same input")
	b, _ := svc.Encrypt("same input")
	if a == b {
		t.Error("two encryptions produced identical ciphertext")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc, _ := NewEncryptionService(strings.Repeat("k", 32))
	other, _ := NewEncryptionService(strings.Repeat("x", 32))

	ct, _ := svc.Encrypt("secret")
	if _, err := other.Decrypt(ct); err == nil {
		t.Error("wrong key decrypted successfully")
	}
	if _, err := svc.Decrypt("not base64!!"); err == nil {
		t.Error("invalid base64 decrypted successfully")
	}
	if _, err := svc.Decrypt("c2hvcnQ="); err == nil {
		t.Error("truncated ciphertext decrypted successfully")
	}
}

func TestNewEncryptionServiceKeyLength(t *testing.T) {
	for _, key := range []string{"", "short", strings.Repeat("k", 31)} {
		if _, err := NewEncryptionService(key); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}
