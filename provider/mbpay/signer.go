package mbpay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"
)

// Sign returns the lowercase hex SHA-256 of the canonical string with
// "&key=<secret>" appended
func Sign(params Params, secret string) string {
	sum := sha256.Sum256([]byte(CanonicalString(params) + "&key=" + secret))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature of params and compares it with candidate
func Verify(params Params, secret, candidate string) bool {
	expected := Sign(params, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}

// Authenticate returns a copy of params carrying app_id, timestamp and sign.
// A sign already present in params is replaced.
func Authenticate(params Params, appID, secret string, now time.Time) Params {
	signed := params.Clone()
	delete(signed, signKey)
	signed["app_id"] = appID
	signed["timestamp"] = strconv.FormatInt(now.Unix(), 10)
	signed[signKey] = Sign(signed, secret)
	return signed
}
