package model

import "strings"

// Account is one line of the credential file. PrivateKey is immutable once
// loaded; the token pair is replaced wholesale on refresh or login, never
// merged field by field.
type Account struct {
	AccessToken  string
	RefreshToken string
	PrivateKey   string
}

// WithTokens returns a copy of the account carrying a new session. The
// workflow passes accounts by value and returns the updated record, so a
// failed iteration can always hand back the original untouched.
func (a Account) WithTokens(accessToken, refreshToken string) Account {
	a.AccessToken = accessToken
	a.RefreshToken = refreshToken
	return a
}

func (a Account) HasSession() bool {
	return strings.TrimSpace(a.AccessToken) != ""
}
