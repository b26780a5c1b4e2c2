package harbor

import (
	"errors"
	"strings"
)

type AuthSource string

const (
	AuthSourceNone     AuthSource = "none"
	AuthSourceExplicit AuthSource = "explicit"
	AuthSourceBasic    AuthSource = "basic"
)

// Credentials holds whatever the caller collected from flags and environment.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// ResolveAuth picks one authentication method.
//
// Precedence:
//  1. bearer token (if non-empty)
//  2. username + password
//  3. anonymous
//
// It never prints secrets.
func ResolveAuth(c Credentials) ([]Option, AuthSource, error) {
	if tok := strings.TrimSpace(c.Token); tok != "" {
		if strings.ContainsAny(tok, " \t\n\r") {
			return nil, "", errors.New("invalid token: contains whitespace")
		}
		return []Option{WithToken(tok)}, AuthSourceExplicit, nil
	}

	user := strings.TrimSpace(c.Username)
	if user != "" {
		if c.Password == "" {
			return nil, "", errors.New("username is set but password is empty")
		}
		return []Option{WithBasicAuth(user, c.Password)}, AuthSourceBasic, nil
	}
	if c.Password != "" {
		return nil, "", errors.New("password is set but username is empty")
	}

	return nil, AuthSourceNone, nil
}
