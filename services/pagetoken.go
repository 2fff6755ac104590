// services/pagetoken.go - Keyed page access tokens
package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// tokenLength is the number of hex characters kept from the digest.
const tokenLength = 16

// TokenService derives deterministic page tokens from a process-wide secret.
// A token binds one (team, round, page) triple; nothing is stored, so the
// same inputs always yield the same token.
type TokenService struct {
	secret string
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: secret}
}

// Issue returns the token authorizing access to the given page.
func (s *TokenService) Issue(teamID uint, roundNumber, pageNumber int) string {
	data := fmt.Sprintf("%d-%d-%d-%s", teamID, roundNumber, pageNumber, s.secret)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:tokenLength]
}

// Verify reports whether token authorizes the given page.
func (s *TokenService) Verify(token string, teamID uint, roundNumber, pageNumber int) bool {
	expected := s.Issue(teamID, roundNumber, pageNumber)
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}
