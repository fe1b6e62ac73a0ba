package dispatch

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nalix-net/nalix/connection"
)

// authorityClaims is the JWT claim set carried by a handshake bearer token:
// a numeric authority level the issuer vouches for.
type authorityClaims struct {
	Authority uint8 `json:"authority"`
	jwt.RegisteredClaims
}

// UpgradeAuthorityFromBearer verifies a JWT bearer token against secret and,
// if valid, upgrades conn's authority to the level the token claims. Used
// by the handshake's authority-upgrade path rather than as pipeline
// middleware, since it runs once per connection rather than per packet.
func UpgradeAuthorityFromBearer(conn *connection.Connection, token string, secret []byte) error {
	claims := &authorityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("dispatch: unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return fmt.Errorf("dispatch: invalid bearer token: %w", err)
	}
	conn.UpgradeAuthority(connection.Authority(claims.Authority))
	return nil
}

// IssueBearer mints a signed bearer token asserting authority, for tests
// and for a handshake service to hand back to an authenticated client.
func IssueBearer(authority connection.Authority, secret []byte) (string, error) {
	claims := authorityClaims{Authority: uint8(authority)}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}
