// Package accounts manages panel logins: registration, password login, API
// key authentication, status and credit assignment.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/repository"
	"github.com/jmehdipour/sms-panel/internal/util"
	"github.com/jmehdipour/sms-panel/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo     repository.AccountsRepository
	ledger   repository.LedgerRepository
	validate *validation.Validator
	cost     int
	log      *zap.Logger
}

func New(repo repository.AccountsRepository, ledger repository.LedgerRepository, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		validate: validation.New(),
		cost:     bcrypt.DefaultCost,
		log:      log,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterCmd struct {
	Name     string     `json:"name" validate:"required,min=3,max=64"`
	Email    string     `json:"email" validate:"required,email,max=255"`
	Password string     `json:"password" validate:"required,min=6,max=72"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=admin user"`
	Credits  int64      `json:"credits" validate:"gte=0"`
}

func (s *Service) Register(ctx context.Context, cmd RegisterCmd) (*model.Account, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := s.validate.Struct(cmd); err != nil {
		return nil, err
	}
	if cmd.Role == "" {
		cmd.Role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &model.Account{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(hash),
		APIKey:       util.NewAPIKey(),
		Role:         cmd.Role,
		Status:       model.AccountActive,
		Credits:      cmd.Credits,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.Int64("account_id", a.ID), zap.String("role", a.Role.String()))
	return a, nil
}

// Login checks a name-or-email and password pair and returns the account,
// whose API key is the caller's bearer token.
func (s *Service) Login(ctx context.Context, login, password string) (*model.Account, error) {
	a, err := s.repo.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errs.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	if a.Status != model.AccountActive {
		return nil, errs.ErrAccountInactive
	}
	return a, nil
}

// Authenticate resolves an API key to the request identity.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (model.Identity, error) {
	if apiKey == "" {
		return model.Identity{}, errs.ErrInvalidCredentials
	}
	a, err := s.repo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return model.Identity{}, err
	}
	if a == nil {
		return model.Identity{}, errs.ErrInvalidCredentials
	}
	if a.Status != model.AccountActive {
		return model.Identity{}, errs.ErrAccountInactive
	}
	return model.Identity{AccountID: a.ID, Role: a.Role}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	return s.repo.List(ctx)
}

type UpdateProfileCmd struct {
	Name  string `json:"name" validate:"required,min=3,max=64"`
	Email string `json:"email" validate:"required,email,max=255"`
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, cmd UpdateProfileCmd) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if err := s.validate.Struct(cmd); err != nil {
		return err
	}
	return s.repo.UpdateProfile(ctx, id, cmd.Name, cmd.Email)
}

func (s *Service) SetStatus(ctx context.Context, id int64, status model.AccountStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", errs.ErrInvalidInput, status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info("account status changed", zap.Int64("account_id", id), zap.String("status", status.String()))
	return nil
}

// AddCredits grants credits through the ledger and returns the new balance.
func (s *Service) AddCredits(ctx context.Context, id, amount int64) (int64, error) {
	bal, err := s.ledger.Credit(ctx, id, amount)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidAmount) {
			return 0, fmt.Errorf("%w: amount must be positive", errs.ErrInvalidAmount)
		}
		return 0, err
	}
	s.log.Info("credits assigned", zap.Int64("account_id", id), zap.Int64("amount", amount), zap.Int64("balance", bal))
	return bal, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
