package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseSignatureHeader splits the x-signature header ("ts=...,v1=...") into
// its timestamp and hash parts.
func ParseSignatureHeader(header string) (ts string, v1 string) {
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	return ts, v1
}

// VerifyWebhookSignature checks the x-signature header against the manifest
// string the gateway documents: "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"
// signed with HMAC-SHA256. The data id is lowercased per the gateway docs.
//
// A false result is advisory only: the webhook handler records it and
// proceeds, because the authoritative state is re-fetched from the API.
// Legacy query-string notifications carry no signature at all and can never
// verify.
func VerifyWebhookSignature(signatureHeader, requestID, dataID, secret string) bool {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return false
	}
	ts, v1 := ParseSignatureHeader(signatureHeader)
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := mac.Sum(nil)

	decoded, err := hex.DecodeString(strings.ToLower(v1))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, decoded)
}
