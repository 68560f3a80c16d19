package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/internal/users"
	"github.com/trustpoints/trustpoints-backend/internal/wallet"
	pkgAuth "github.com/trustpoints/trustpoints-backend/pkg/auth"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type service struct {
	tx          txRunner
	users       *users.Repository
	wallet      wallet.Repository
	recorder    activity.Recorder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	pointsCfg   config.PointsConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	TxRunner       txRunner
	UserRepo       *users.Repository
	WalletRepo     wallet.Repository
	Recorder       activity.Recorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	PointsConfig   config.PointsConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.WalletRepo == nil {
		return nil, fmt.Errorf("wallet repository is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{
		tx:          params.TxRunner,
		users:       params.UserRepo,
		wallet:      params.WalletRepo,
		recorder:    params.Recorder,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		pointsCfg:   params.PointsConfig,
		now:         time.Now,
	}, nil
}

// Register creates the account, grants the signup points, and writes the
// matching ledger entry in one transaction.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		walletRepo := s.wallet.WithTx(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(req.FullName),
			Phone:        req.Phone,
			Points:       s.pointsCfg.SignupGrant,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if s.pointsCfg.SignupGrant > 0 {
			entry := &models.LedgerEntry{
				ID:     uuid.New(),
				UserID: created.ID,
				Delta:  s.pointsCfg.SignupGrant,
				Reason: enums.LedgerReasonSignupGrant,
			}
			if err := walletRepo.CreateEntry(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record signup grant")
			}
		}

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	grant := s.pointsCfg.SignupGrant
	s.recorder.Record(ctx, activity.Event{
		UserID: user.ID,
		Type:   enums.ActivityAccountCreated,
		Title:  "Welcome to TrustPoints",
		Points: &grant,
	})

	return s.buildResponse(user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(user)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) buildResponse(user *models.User) (*AuthResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{UserID: user.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResponse{
		AccessToken: accessToken,
		User:        users.FromModel(user),
	}, nil
}
