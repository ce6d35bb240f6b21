package blob

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadToken     = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// Signer mints and validates time-limited download tokens.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign encodes storagePath and expiry into an HMAC-protected token.
func (s *Signer) Sign(storagePath string, expiry time.Time) string {
	payload := fmt.Sprintf("%s|%d", storagePath, expiry.Unix())
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(payload)) + "." + sig
}

// Verify validates a token and returns the storage path it grants.
func (s *Signer) Verify(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrBadToken
	}

	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrBadToken
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	want := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(parts[1]), []byte(want)) {
		return "", ErrBadToken
	}

	// The storage path may itself contain the separator; the expiry is
	// always the segment after the last one.
	sep := strings.LastIndex(string(payload), "|")
	if sep < 0 {
		return "", ErrBadToken
	}
	path, expiryField := string(payload[:sep]), string(payload[sep+1:])
	expiry, err := strconv.ParseInt(expiryField, 10, 64)
	if err != nil {
		return "", ErrBadToken
	}
	if time.Now().Unix() > expiry {
		return "", ErrTokenExpired
	}
	return path, nil
}
