package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.success","data":{"reference":"pay_1"}}`)

	if !VerifySignature(secret, body, sign(secret, body)) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(secret, body, sign("wrong-secret", body)) {
		t.Fatal("signature under wrong secret accepted")
	}
	if VerifySignature(secret, []byte(`tampered`), sign(secret, body)) {
		t.Fatal("signature over different body accepted")
	}
}

func TestVerifySignatureRejectsEmptyInputs(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature("", body, sign("", body)) {
		t.Fatal("empty secret accepted")
	}
	if VerifySignature("whsec_test", body, "") {
		t.Fatal("empty signature accepted")
	}
}
