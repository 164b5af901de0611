package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"txn_abc"}}`)

	assert.True(t, VerifySignature(secret, body, signBody(secret, body)))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	sig := signBody("sk_test_other", body)

	assert.False(t, VerifySignature("sk_test_secret", body, sig))
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	secret := "sk_test_secret"
	sig := signBody(secret, []byte(`{"amount":500000}`))

	assert.False(t, VerifySignature(secret, []byte(`{"amount":100}`), sig))
}

func TestVerifySignature_EmptyInputs(t *testing.T) {
	assert.False(t, VerifySignature("", []byte("body"), "sig"))
	assert.False(t, VerifySignature("secret", []byte("body"), ""))
}
