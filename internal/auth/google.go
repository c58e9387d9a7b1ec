package auth

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidGoogleToken = errors.New("invalid google id token")
	ErrUnverifiedEmail    = errors.New("google account email not verified")
)

// GoogleUserInfo is the identity the sign-in flow extracts from a verified
// Google ID token. Email is always present and verified.
type GoogleUserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// GoogleAuthenticator verifies Google ID tokens for the sign-in endpoint.
type GoogleAuthenticator struct {
	clientID string
}

func NewGoogleAuthenticator(clientID string) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		clientID: clientID,
	}
}

// VerifyIDToken validates the token signature and audience, then requires a
// verified email claim. Accounts without one cannot be matched to a user row.
func (g *GoogleAuthenticator) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	payload, err := idtoken.Validate(ctx, idToken, g.clientID)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	return userInfoFromClaims(payload.Subject, payload.Claims)
}

func userInfoFromClaims(subject string, claims map[string]interface{}) (*GoogleUserInfo, error) {
	if verified, _ := claims["email_verified"].(bool); !verified {
		return nil, ErrUnverifiedEmail
	}
	email := stringClaim(claims, "email")
	if email == "" {
		return nil, ErrInvalidGoogleToken
	}

	return &GoogleUserInfo{
		ID:      subject,
		Email:   email,
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}, nil
}

// stringClaim reads an optional claim; non-string or absent values are "".
func stringClaim(claims map[string]interface{}, key string) string {
	val, _ := claims[key].(string)
	return val
}
