package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":"))
	mac.Write(body)
	return fmt.Sprintf("ts=%s;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyPaddleWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event_type":"subscription.created","data":{"id":"sub_1"}}`)
	header := signBody(secret, "1725148800", body)

	assert.True(t, VerifyPaddleWebhookSignature(body, header, secret))
}

func TestVerifyPaddleWebhookSignature_Rejections(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event_type":"subscription.created"}`)
	header := signBody(secret, "1725148800", body)

	tests := []struct {
		name   string
		body   []byte
		header string
		secret string
	}{
		{"missing header", body, "", secret},
		{"missing secret", body, header, ""},
		{"garbage header", body, "not-a-signature", secret},
		{"header missing h1", body, "ts=1725148800", secret},
		{"header missing ts", body, "h1=deadbeef", secret},
		{"non-hex digest", body, "ts=1725148800;h1=zzzz", secret},
		{"mutated body", append([]byte("x"), body...), header, secret},
		{"wrong secret", body, header, "whsec_other"},
		{"mutated timestamp", body, signBody(secret, "1725148801", body)[:len(header)-1] + "0", secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPaddleWebhookSignature(tt.body, tt.header, tt.secret))
		})
	}
}

func TestVerifyPaddleWebhookSignature_SingleByteDigestMutation(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event_type":"transaction.completed"}`)
	header := signBody(secret, "1725148800", body)

	// Flip the last hex digit of the digest.
	last := header[len(header)-1]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	mutated := header[:len(header)-1] + string(flip)

	assert.True(t, VerifyPaddleWebhookSignature(body, header, secret))
	assert.False(t, VerifyPaddleWebhookSignature(body, mutated, secret))
}
