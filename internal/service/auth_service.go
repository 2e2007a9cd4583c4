package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
)

const minPasswordLen = 6

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (int64, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userID int64) error
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
	DeleteUser(ctx context.Context, userID int64) error
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
}

type authService struct {
	repo  repository.UserRepository
	logs  repository.ActionLogRepository
	audit AuditService
	pw    passwords
}

func NewAuthService(
	repo repository.UserRepository,
	logs repository.ActionLogRepository,
	audit AuditService,
	bcryptCost int,
) AuthService {
	return &authService{repo: repo, logs: logs, audit: audit, pw: newPasswords(bcryptCost)}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (int64, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if len(req.Password) < minPasswordLen {
		return 0, apierror.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}
	if len(req.Password) > maxPasswordLen {
		return 0, apierror.Validation(fmt.Sprintf("Password must be at most %d bytes", maxPasswordLen))
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return 0, apierror.Conflict("Username already exists")
	} else if !isNotFound(err) {
		return 0, err
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return 0, apierror.Conflict("Email already exists")
	} else if !isNotFound(err) {
		return 0, err
	}

	hash, err := s.pw.hash(req.Password)
	if err != nil {
		return 0, err
	}
	u := &model.User{
		Username:    username,
		Email:       email,
		Password:    hash,
		Contact:     req.Contact,
		Subdivision: req.Subdivision,
		Role:        model.RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if isDuplicate(err) {
			return 0, apierror.Conflict("Username or email already exists")
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(ctx, &u.ID, model.ActionRegister, fmt.Sprintf("User %s registered", u.Username))
	return u.ID, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Unauthorized("User not found")
		}
		return nil, err
	}

	ok, rehash, err := s.pw.verifyAndMaybeRehash(user.Password, req.Password)
	if !ok {
		return nil, apierror.Unauthorized("Invalid password")
	}
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("auth: legacy password could not be rehashed")
	} else if rehash != "" {
		if err := s.repo.UpdatePassword(ctx, user.ID, rehash); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("auth: legacy password rehash failed")
		} else {
			log.Info().Int64("user_id", user.ID).Msg("auth: legacy password migrated to bcrypt")
		}
	}

	s.audit.Record(ctx, &user.ID, model.ActionLogin, fmt.Sprintf("User %s logged in", user.Username))
	return &dto.LoginResponse{Success: true, Role: user.Role, ID: user.ID}, nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, &user.ID, model.ActionLogout, fmt.Sprintf("User %s logged out", user.Username))
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLen {
		return apierror.Validation(fmt.Sprintf("New password must be at least %d characters", minPasswordLen))
	}
	if len(req.NewPassword) > maxPasswordLen {
		return apierror.Validation(fmt.Sprintf("New password must be at most %d bytes", maxPasswordLen))
	}
	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	// The legacy rehash is discarded; the new password replaces it below.
	if ok, _, _ := s.pw.verifyAndMaybeRehash(user.Password, req.CurrentPassword); !ok {
		return apierror.Unauthorized("Current password is incorrect")
	}

	hash, err := s.pw.hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.audit.Record(ctx, &user.ID, model.ActionChangePassword, fmt.Sprintf("User %s changed their password", user.Username))
	return nil
}

// DeleteUser removes a non-supervisor account together with its log entries.
func (s *authService) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleSupervisor {
		return apierror.Forbidden("Supervisor accounts cannot be deleted")
	}

	var purged int64
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.logs.DeleteByUserTx(tx, user.ID)
		if err != nil {
			return fmt.Errorf("delete user logs: %w", err)
		}
		purged = n
		if _, err := s.repo.DeleteTx(tx, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, nil, model.ActionDeleteUser,
		fmt.Sprintf("Deleted user %s (#%d) and %d log entries", user.Username, user.ID, purged))
	return nil
}

func (s *authService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i, u := range users {
		resp[i] = dto.UserResponse{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			Contact:     u.Contact,
			Subdivision: u.Subdivision,
			Role:        u.Role,
		}
	}
	return resp, nil
}

func (s *authService) findUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}
