package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and verifies download tokens for generated
// documents. A token embeds the document id, expiry and file path, sealed
// with an HMAC so the download endpoint needs no database lookup.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate mints a token for the document at relPath.
func (s *SignedURLSigner) Generate(docID, relPath string) (string, time.Time, error) {
	if docID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("docID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{docID, ts, encodedPath, s.seal(docID, ts, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse verifies a token and returns its contents. allowExpired skips the
// expiry check for cleanup routines.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (docID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	docID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	// Verify before trusting anything inside the token.
	if !hmac.Equal([]byte(s.seal(docID, ts, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode path: %w", err)
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return docID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) seal(docID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", docID, ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
