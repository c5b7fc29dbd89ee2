package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Alphabet leaves out 0/O, 1/I/L and lowercase so keys survive being read
// aloud or typed from a printout.
const accessKeyAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	accessKeyGroups    = 4
	accessKeyGroupSize = 4
)

// AccessKeyService mints and verifies customer access keys. Only the keyed
// digest is ever stored; the plaintext key exists for the duration of the
// registration response.
type AccessKeyService struct {
	secret []byte
}

func NewAccessKeyService(secret string) *AccessKeyService {
	return &AccessKeyService{secret: []byte(secret)}
}

// Configured reports whether a signing secret is present. Generation and
// verification must refuse to run without one.
func (s *AccessKeyService) Configured() bool {
	return len(s.secret) > 0
}

// Generate returns a fresh key in XXXX-XXXX-XXXX-XXXX form.
func (s *AccessKeyService) Generate() (string, error) {
	if !s.Configured() {
		return "", ErrConfiguration
	}

	raw := make([]byte, accessKeyGroups*accessKeyGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate access key: %w", err)
	}

	groups := make([]string, accessKeyGroups)
	for g := 0; g < accessKeyGroups; g++ {
		var group strings.Builder
		for i := 0; i < accessKeyGroupSize; i++ {
			b := raw[g*accessKeyGroupSize+i]
			group.WriteByte(accessKeyAlphabet[int(b)%len(accessKeyAlphabet)])
		}
		groups[g] = group.String()
	}
	return strings.Join(groups, "-"), nil
}

// Digest returns the hex HMAC-SHA256 of the key under the service secret.
func (s *AccessKeyService) Digest(key string) (string, error) {
	if !s.Configured() {
		return "", ErrConfiguration
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(NormalizeAccessKey(key)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify compares a candidate key against a stored digest in constant time.
func (s *AccessKeyService) Verify(key, storedDigest string) (bool, error) {
	digest, err := s.Digest(key)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(digest), []byte(storedDigest)), nil
}

// NormalizeAccessKey uppercases and strips whitespace so keys typed with
// stray spaces or lowercase still verify.
func NormalizeAccessKey(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	return strings.ReplaceAll(key, " ", "")
}
