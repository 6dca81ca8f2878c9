package auth

import (
	"testing"

	"github.com/google/uuid"
)

// GetAccessToken is a helper function to obtain an access token for a profile in tests.
func GetAccessToken(t *testing.T, profileID uuid.UUID) string {
	t.Helper()
	if SecretKey == "" {
		SecretKey = "test-secret"
	}
	token, err := GenerateToken(profileID)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	return token
}
