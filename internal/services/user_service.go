package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
)

type UserService struct{ core }

func NewUserService(d Deps) *UserService { return &UserService{newCore(d)} }

// ConnectWallet returns the user holding wallet, creating it on first
// connect. created reports whether a new user was made.
func (s *UserService) ConnectWallet(ctx context.Context, wallet, username string) (u models.User, created bool, err error) {
	wallet = models.NormalizeWallet(wallet)
	if wallet == "" {
		return models.User{}, false, s.finish("connect_wallet", fmt.Errorf("%w: wallet_address", ErrInvalidInput))
	}

	err = s.store.WithTx(ctx, func(tx repo.Tx) error {
		existing, err := tx.Users().GetByWallet(ctx, wallet)
		if err == nil {
			u = existing
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		u = models.User{
			Username:      strings.TrimSpace(username),
			WalletAddress: wallet,
			IsVerified:    true,
		}
		if err := u.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := tx.Users().Create(ctx, &u); err != nil {
			return err
		}
		created = true
		return notify(ctx, tx, u.ID, models.NotifySystem, "Welcome", "Your wallet is connected to the hydrogen credit marketplace")
	})
	if errors.Is(err, repo.ErrConflict) {
		// a concurrent connect created the same wallet first
		u, err = s.GetByWallet(ctx, wallet)
		return u, false, err
	}
	if err != nil {
		return models.User{}, false, s.finish("connect_wallet", err)
	}
	if created {
		s.log.Info("user registered", "user_id", u.ID)
	}
	return u, created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (models.User, error) {
	var out models.User
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Users().GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *UserService) GetByWallet(ctx context.Context, wallet string) (models.User, error) {
	var out models.User
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Users().GetByWallet(ctx, models.NormalizeWallet(wallet))
		return err
	})
	return out, err
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var out []models.User
	err := s.read(ctx, func(ctx context.Context, tx repo.Tx) error {
		var err error
		out, err = tx.Users().List(ctx, limit, offset)
		return err
	})
	return out, err
}

// SetVerification changes a user's verification flag and level.
func (s *UserService) SetVerification(ctx context.Context, id int64, verified bool, level models.VerificationLevel) (models.User, error) {
	if !level.Valid() {
		return models.User{}, s.finish("set_verification", fmt.Errorf("%w: verification_level", ErrInvalidInput))
	}
	var out models.User
	err := s.write(ctx, "set_verification", func(ctx context.Context, tx repo.Tx) error {
		if err := tx.Users().SetVerification(ctx, id, verified, level); err != nil {
			return err
		}
		var err error
		if out, err = tx.Users().GetByID(ctx, id); err != nil {
			return err
		}
		return notify(ctx, tx, id, models.NotifySystem, "Verification Updated",
			fmt.Sprintf("Your verification level is now %s", level))
	})
	return out, err
}
