package oauth2svc

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"user-service/pkg/xerrors"
)

// Identity is the trusted claim set extracted from a verified assertion.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
	Sub       string // provider-unique user ID
}

// DisplayName joins the verified name claims, substituting a placeholder
// when the provider sent none.
func (i *Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return "New User"
	}
	return name
}

// Verifier validates an externally issued identity assertion. Any failure
// means the login attempt must be rejected outright; no partial trust.
type Verifier interface {
	Verify(ctx context.Context, assertion string) (*Identity, error)
}

// GoogleVerifier checks the assertion against Google's current public key
// set and the service's registered client ID as audience.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (g *GoogleVerifier) Verify(ctx context.Context, assertion string) (*Identity, error) {
	payload, err := idtoken.Validate(ctx, assertion, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: assertion carries no email claim", xerrors.ErrUnauthorized)
	}
	firstName, _ := payload.Claims["given_name"].(string)
	lastName, _ := payload.Claims["family_name"].(string)
	sub, _ := payload.Claims["sub"].(string)

	return &Identity{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Sub:       sub,
	}, nil
}
