// Package session implements the signed stateless session token carried
// in the "session" cookie.
//
// Token format: base64(JSON{userId}) + "." + hex(HMAC-SHA256(secret, JSON)).
// The signature covers the decoded JSON string, not the base64 form;
// every issuer and verifier in the system must agree on that.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// DefaultSecret is the fallback signing key. Deployments must override
// it via SESSION_SECRET; running with the default is a misconfiguration.
const DefaultSecret = "dev-secret-change-in-production"

// Codec signs and verifies session tokens. It is stateless and safe for
// concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Codec{secret: []byte(secret)}
}

type payload struct {
	UserID json.Number `json:"userId"`
}

// Encode produces a signed token for the given user id.
func (c *Codec) Encode(userID uint) string {
	data, _ := json.Marshal(map[string]uint{"userId": userID})
	return base64.StdEncoding.EncodeToString(data) + "." + c.sign(data)
}

// Decode verifies a token and extracts the user id. Any malformed,
// tampered or incomplete token yields (0, false); callers cannot
// distinguish the failure modes.
func (c *Codec) Decode(token string) (uint, bool) {
	if token == "" {
		return 0, false
	}
	encoded, sig, found := strings.Cut(token, ".")
	if !found || encoded == "" || sig == "" {
		return 0, false
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, false
	}
	if !hmac.Equal([]byte(c.sign(data)), []byte(sig)) {
		return 0, false
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, false
	}
	id, err := p.UserID.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (c *Codec) sign(data []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
