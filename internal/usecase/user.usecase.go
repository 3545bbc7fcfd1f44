package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"user-service/internal/domain"
	oauth2svc "user-service/internal/service/oauth2"
	"user-service/pkg/jwtutil"
	"user-service/pkg/xerrors"
)

const publishTimeout = 3 * time.Second

// UserRepo is the Account Store contract the usecase depends on: atomic
// create/get/update/delete/list, with insert collisions distinguishable from
// other store faults.
type UserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.User, error)
	Update(ctx context.Context, id string, update *domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

// IDGenerator mints new account IDs.
type IDGenerator interface {
	Generate() string
}

type UserUsecase struct {
	userRepo UserRepo
	sf       IDGenerator
	verifier oauth2svc.Verifier
	jwtGen   *jwtutil.Generator
	producer UserEventProducer
	logger   *zap.Logger
}

func NewUserUsecase(
	userRepo UserRepo,
	sf IDGenerator,
	verifier oauth2svc.Verifier,
	jwtGen *jwtutil.Generator,
	producer UserEventProducer,
	logger *zap.Logger,
) *UserUsecase {
	return &UserUsecase{
		userRepo: userRepo,
		sf:       sf,
		verifier: verifier,
		jwtGen:   jwtGen,
		producer: producer,
		logger:   logger,
	}
}

// CreateUser inserts an explicitly supplied profile. A client-supplied ID is
// honored; otherwise one is generated. Collisions on id or email surface as
// conflict errors and emit nothing.
func (uc *UserUsecase) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Email == "" {
		return nil, xerrors.ErrEmailRequired
	}
	if user.ID == "" {
		user.ID = uc.sf.Generate()
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.publishEvent(EventUserCreated, user)
	return user, nil
}

func (uc *UserUsecase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

func (uc *UserUsecase) ListUsers(ctx context.Context, filter domain.ListFilter) ([]*domain.User, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.userRepo.List(ctx, filter)
}

// UpdateUser applies only the fields present in the partial payload. The
// authorization guard has already run by the time this is called.
func (uc *UserUsecase) UpdateUser(ctx context.Context, id string, update *domain.UserUpdate) (*domain.User, error) {
	user, err := uc.userRepo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	uc.publishEvent(EventUserUpdated, user)
	return user, nil
}

func (uc *UserUsecase) DeleteUser(ctx context.Context, id string) error {
	// Fetch first so the DELETED event can carry the email.
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	uc.publishEvent(EventUserDeleted, user)
	return nil
}

func (uc *UserUsecase) Health(ctx context.Context) error {
	return uc.userRepo.Health(ctx)
}

// publishEvent emits a change notification after the triggering mutation has
// committed. Failures are logged and swallowed: the mutation already
// succeeded, so the caller proceeds regardless.
func (uc *UserUsecase) publishEvent(eventType string, user *domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	event := &UserEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payload: UserEventPayload{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
		},
	}

	if err := uc.producer.PublishUserEvent(ctx, event); err != nil {
		uc.logger.Warn("event publish failed",
			zap.String("event_type", eventType),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}
