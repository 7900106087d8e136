package tokens

import "github.com/golang-jwt/jwt/v5"

// Kind separates access tokens from refresh tokens. A token of one kind is
// never accepted where the other is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	// KindAny skips the kind check on Verify.
	KindAny Kind = ""
)

type Claims struct {
	Type Kind `json:"type"`
	jwt.RegisteredClaims
}
