package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyPaddleWebhookSignature checks a Paddle-Signature header of the form
// "ts=<unix-ts>;h1=<hex-digest>" against the raw request body. The digest is
// HMAC-SHA256 over "<ts>:<body>" keyed with the webhook secret. Anything that
// does not parse and match exactly is a rejection; verification never errs on
// the side of acceptance.
// See: https://developer.paddle.com/webhooks/signature-verification
func VerifyPaddleWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	var ts, h1 string
	for _, part := range strings.Split(sig, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return false
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "h1":
			h1 = kv[1]
		}
	}
	if ts == "" || h1 == "" {
		return false
	}

	expectedSig, err := hex.DecodeString(strings.ToLower(h1))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}
