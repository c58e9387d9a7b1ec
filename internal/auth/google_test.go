package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserInfoFromVerifiedClaims(t *testing.T) {
	info, err := userInfoFromClaims("sub-123", map[string]interface{}{
		"email":          "ada@example.com",
		"email_verified": true,
		"name":           "Ada",
		"picture":        "https://example.com/ada.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-123", info.ID)
	assert.Equal(t, "ada@example.com", info.Email)
	assert.Equal(t, "Ada", info.Name)
	assert.Equal(t, "https://example.com/ada.png", info.Picture)
}

func TestUserInfoRejectsUnverifiedEmail(t *testing.T) {
	_, err := userInfoFromClaims("sub-123", map[string]interface{}{
		"email":          "ada@example.com",
		"email_verified": false,
	})
	require.ErrorIs(t, err, ErrUnverifiedEmail)

	// An absent claim fails closed the same way.
	_, err = userInfoFromClaims("sub-123", map[string]interface{}{
		"email": "ada@example.com",
	})
	require.ErrorIs(t, err, ErrUnverifiedEmail)
}

func TestUserInfoRejectsMissingOrMalformedEmail(t *testing.T) {
	_, err := userInfoFromClaims("sub-123", map[string]interface{}{
		"email_verified": true,
	})
	require.ErrorIs(t, err, ErrInvalidGoogleToken)

	// A non-string email claim must not panic.
	_, err = userInfoFromClaims("sub-123", map[string]interface{}{
		"email":          42,
		"email_verified": true,
	})
	require.ErrorIs(t, err, ErrInvalidGoogleToken)
}

func TestUserInfoToleratesMissingOptionalClaims(t *testing.T) {
	info, err := userInfoFromClaims("sub-123", map[string]interface{}{
		"email":          "ada@example.com",
		"email_verified": true,
		"name":           nil,
	})
	require.NoError(t, err)
	assert.Empty(t, info.Name)
	assert.Empty(t, info.Picture)
}
