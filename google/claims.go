package google

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")
)

// Issuers lists the accepted values of the iss claim
var Issuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Claims represents the claims of a Google ID token
type Claims struct {
	jwt.RegisteredClaims
	Email           string `json:"email"`
	EmailVerified   bool   `json:"email_verified"`
	Name            string `json:"name"`
	Picture         string `json:"picture"`
	AuthorizedParty string `json:"azp,omitempty"`
	HostedDomain    string `json:"hd,omitempty"`
}

// Identity is the verified subject of a Google ID token
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Identity converts verified claims to an Identity. The email claim is required.
func (c *Claims) Identity() (*Identity, error) {
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	if c.Email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingClaim)
	}

	return &Identity{
		Subject:       c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Picture:       c.Picture,
	}, nil
}

func validIssuer(iss string) bool {
	for _, accepted := range Issuers {
		if iss == accepted {
			return true
		}
	}
	return false
}
