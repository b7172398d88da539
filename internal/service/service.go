package service

import (
	"context"
	"errors"
	"strings"

	"github.com/patric-chuzhbe/usrinfo/internal/models"
)

type additionalKeeper interface {
	CreateAdditional(ctx context.Context, additional *models.Additional) (string, error)

	GetAdditionalByID(ctx context.Context, additionalID string) (*models.Additional, bool, error)

	ListAdditionals(ctx context.Context) ([]models.Additional, error)

	UpdateAdditional(ctx context.Context, additional *models.Additional) error

	DeleteAdditional(ctx context.Context, additionalID string) error

	GetNumberOfAdditionals(ctx context.Context) (int64, error)
}

type userKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) (string, error)

	FindUserByEmail(ctx context.Context, email string) (*models.User, bool, error)

	ListUsersWithAdditional(ctx context.Context) ([]models.UserWithAdditional, error)

	UpdateUser(ctx context.Context, usr *models.User) error

	DeleteUser(ctx context.Context, userID string) error

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	additionalKeeper
	userKeeper
	pinger
}

type metricsRecorder interface {
	IncrementUsersCreated()
	IncrementUsersUpdated()
	IncrementUsersDeleted()
	IncrementDuplicateEmailsRejected()
}

type noopMetrics struct{}

func (noopMetrics) IncrementUsersCreated()            {}
func (noopMetrics) IncrementUsersUpdated()            {}
func (noopMetrics) IncrementUsersDeleted()            {}
func (noopMetrics) IncrementDuplicateEmailsRejected() {}

var (
	ErrNoUsers = errors.New("no users registered")

	ErrNoAdditionals = errors.New("no additional records registered")

	// ErrDuplicateEmail is returned when a user with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	ErrEmailNotProvided = errors.New("no user email provided")

	ErrUserNotFound = errors.New("no user registered with this email")

	// ErrAdditionalMissing means the user's additional reference points nowhere.
	ErrAdditionalMissing = errors.New("the user's additional record does not exist")
)

type Service struct {
	db               storage
	metrics          metricsRecorder
	emptyListIsError bool
}

type initOptions struct {
	metrics          metricsRecorder
	emptyListIsError bool
}

type InitOption func(*initOptions)

func WithMetrics(metrics metricsRecorder) InitOption {
	return func(options *initOptions) {
		options.metrics = metrics
	}
}

// WithEmptyListIsError makes the list operations fail with ErrNoUsers and
// ErrNoAdditionals instead of returning an empty slice.
func WithEmptyListIsError(value bool) InitOption {
	return func(options *initOptions) {
		options.emptyListIsError = value
	}
}

func New(db storage, optionsProto ...InitOption) *Service {
	options := &initOptions{
		metrics:          noopMetrics{},
		emptyListIsError: true,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}
	if options.metrics == nil {
		options.metrics = noopMetrics{}
	}

	return &Service{
		db:               db,
		metrics:          options.metrics,
		emptyListIsError: options.emptyListIsError,
	}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ListUsers returns every user with its additional record embedded.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserWithAdditional, error) {
	users, err := s.db.ListUsersWithAdditional(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 && s.emptyListIsError {
		return nil, ErrNoUsers
	}

	return users, nil
}

// CreateUser stores the additional record first and then the user pointing
// at it. A failure between the two writes leaves the additional record behind.
func (s *Service) CreateUser(ctx context.Context, newUser models.NewUser) (*models.UserWithAdditional, error) {
	email := NormalizeEmail(newUser.Email)

	_, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if found {
		s.metrics.IncrementDuplicateEmailsRejected()
		return nil, ErrDuplicateEmail
	}

	additional := models.Additional{
		Art:    newUser.Art,
		Music:  newUser.Music,
		Cinema: newUser.Cinema,
	}
	additional.ID, err = s.db.CreateAdditional(ctx, &additional)
	if err != nil {
		return nil, err
	}

	usr := models.User{
		Email:        email,
		Names:        newUser.Names,
		LastNames:    newUser.LastNames,
		Phone:        newUser.Phone,
		Address:      newUser.Address,
		AdditionalID: additional.ID,
	}
	usr.ID, err = s.db.CreateUser(ctx, &usr)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementUsersCreated()

	return &models.UserWithAdditional{
		User:       usr,
		Additional: &additional,
	}, nil
}

func (s *Service) findUser(ctx context.Context, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailNotProvided
	}

	usr, found, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return usr, nil
}

// GetUser returns the user registered with email. The embedded additional
// record is nil when the reference is dangling.
func (s *Service) GetUser(ctx context.Context, email string) (*models.UserWithAdditional, error) {
	usr, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	additional, found, err := s.db.GetAdditionalByID(ctx, usr.AdditionalID)
	if err != nil {
		return nil, err
	}
	if !found {
		additional = nil
	}

	return &models.UserWithAdditional{
		User:       *usr,
		Additional: additional,
	}, nil
}

func (s *Service) ListAdditionals(ctx context.Context) ([]models.Additional, error) {
	additionals, err := s.db.ListAdditionals(ctx)
	if err != nil {
		return nil, err
	}
	if len(additionals) == 0 && s.emptyListIsError {
		return nil, ErrNoAdditionals
	}

	return additionals, nil
}

// UpdateUser applies the sent fields: the additional record is saved first,
// then the user. Email and the additional reference never change.
func (s *Service) UpdateUser(
	ctx context.Context,
	email string,
	patch models.UserPatch,
) (*models.UserWithAdditional, error) {
	usr, err := s.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	additional, found, err := s.db.GetAdditionalByID(ctx, usr.AdditionalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAdditionalMissing
	}

	if value, ok := patch.Music.NonEmpty(); ok {
		additional.Music = value
	}
	if value, ok := patch.Art.NonEmpty(); ok {
		additional.Art = value
	}
	if value, ok := patch.Cinema.NonEmpty(); ok {
		additional.Cinema = value
	}
	if err := s.db.UpdateAdditional(ctx, additional); err != nil {
		return nil, err
	}

	if value, ok := patch.Names.NonBlank(); ok {
		usr.Names = value
	}
	if value, ok := patch.LastNames.NonBlank(); ok {
		usr.LastNames = value
	}
	if value, ok := patch.Address.NonBlank(); ok {
		usr.Address = value
	}
	if value, ok := patch.Phone.NonBlank(); ok {
		usr.Phone = value
	}
	if err := s.db.UpdateUser(ctx, usr); err != nil {
		return nil, err
	}

	s.metrics.IncrementUsersUpdated()

	return &models.UserWithAdditional{
		User:       *usr,
		Additional: additional,
	}, nil
}

// DeleteUser removes the additional record, then the user.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	usr, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}

	if err := s.db.DeleteAdditional(ctx, usr.AdditionalID); err != nil {
		return err
	}

	if err := s.db.DeleteUser(ctx, usr.ID); err != nil {
		return err
	}

	s.metrics.IncrementUsersDeleted()

	return nil
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns the number of users and additional records.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	additionals, err := s.db.GetNumberOfAdditionals(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:       users,
		Additionals: additionals,
	}, nil
}
