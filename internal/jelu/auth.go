package jelu

import "encoding/base64"

const (
	headerAuthorization = "Authorization"
	headerAuthToken     = "X-Auth-Token"
)

// AuthMode is the credential a request is sent with. Exactly one of Basic or
// Token is in effect at a time.
type AuthMode interface {
	isAuthMode()
}

// Basic authenticates with the account's username and password.
type Basic struct {
	Username string
	Password string
}

// Token authenticates with a session token issued by the server.
type Token struct {
	Value string
}

func (Basic) isAuthMode() {}
func (Token) isAuthMode() {}

// HeaderFor returns the single header carrying the credential for mode.
func HeaderFor(mode AuthMode) (name, value string) {
	switch m := mode.(type) {
	case Token:
		return headerAuthToken, m.Value
	case Basic:
		raw := m.Username + ":" + m.Password
		return headerAuthorization, "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	default:
		return "", ""
	}
}
