package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"user-service/internal/domain"
	"user-service/pkg/xerrors"
)

// LoginResult is what a successful login returns: the service's own session
// token plus the provisioned account's current profile.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// LoginWithGoogle verifies the externally issued assertion and provisions an
// account for the verified email on first login. The operation is idempotent
// on email: two concurrent first logins for the same identity end with one
// row and one CREATED event, and correctness is delegated to the store's
// uniqueness constraint rather than any in-process lock, since only the
// store has a global view across processes.
func (uc *UserUsecase) LoginWithGoogle(ctx context.Context, assertion string) (*LoginResult, error) {
	identity, err := uc.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		// Existing account: no mutation, no event.

	case errors.Is(err, xerrors.ErrUserNotFound):
		user, err = uc.provisionUser(ctx, identity.Email, identity.DisplayName())
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("lookup by email failed: %w", err)
	}

	token, err := uc.jwtGen.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// provisionUser attempts the first-login insert. A uniqueness violation on
// email means another request won the race; that row becomes the login
// result and no event is emitted here, the winner already emitted it.
func (uc *UserUsecase) provisionUser(ctx context.Context, email, name string) (*domain.User, error) {
	skeleton := &domain.User{
		ID:    uc.sf.Generate(),
		Email: email,
		Name:  &name,
	}

	err := uc.userRepo.Create(ctx, skeleton)
	switch {
	case err == nil:
		uc.logger.Info("provisioned new account",
			zap.String("user_id", skeleton.ID),
		)
		uc.publishEvent(EventUserCreated, skeleton)
		return skeleton, nil

	case errors.Is(err, xerrors.ErrEmailAlreadyInUse):
		existing, ferr := uc.userRepo.GetByEmail(ctx, email)
		if ferr != nil {
			return nil, fmt.Errorf("re-fetch after insert race failed: %w", ferr)
		}
		return existing, nil

	default:
		return nil, fmt.Errorf("failed to provision account: %w", err)
	}
}
