package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vgl-spec/soil-sub000/internal/apierror"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/model"
	"github.com/vgl-spec/soil-sub000/internal/repository"
)

// AuditService owns the append-only action log.
type AuditService interface {
	// Record appends an entry. Failures are logged and swallowed so an audit
	// hiccup never undoes a committed change.
	Record(ctx context.Context, userID *int64, actionType, description string)
	List(ctx context.Context, userID *int64) ([]dto.ActionLogResponse, error)
	// ClearLogs wipes the log and leaves a single entry describing the wipe.
	ClearLogs(ctx context.Context, req dto.ClearLogsRequest) (int64, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type auditService struct {
	repo  repository.ActionLogRepository
	users repository.UserRepository
}

func NewAuditService(repo repository.ActionLogRepository, users repository.UserRepository) AuditService {
	return &auditService{repo: repo, users: users}
}

func (s *auditService) Record(ctx context.Context, userID *int64, actionType, description string) {
	entry := &model.ActionLog{
		UserID:      userID,
		ActionType:  actionType,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		ev := log.Warn().Err(err).Str("action_type", actionType)
		if userID != nil {
			ev = ev.Int64("user_id", *userID)
		}
		ev.Msg("audit: failed to record action")
	}
}

func (s *auditService) List(ctx context.Context, userID *int64) ([]dto.ActionLogResponse, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ActionLogResponse, len(rows))
	for i, r := range rows {
		resp[i] = dto.ActionLogResponse{
			ID:          r.ID,
			UserID:      r.UserID,
			Username:    r.Username,
			ActionType:  r.ActionType,
			Description: r.Description,
			Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *auditService) ClearLogs(ctx context.Context, req dto.ClearLogsRequest) (int64, error) {
	if !req.Confirm {
		return 0, apierror.Validation("Clearing logs requires confirm=true")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if isNotFound(err) {
			return 0, apierror.NotFound("User not found")
		}
		return 0, err
	}
	if user.Role != model.RoleSupervisor {
		return 0, apierror.Forbidden("Only supervisors can clear logs")
	}

	var deleted int64
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		n, err := s.repo.DeleteAllTx(tx)
		if err != nil {
			return fmt.Errorf("delete action logs: %w", err)
		}
		deleted = n
		now := time.Now().UTC()
		return s.repo.CreateTx(tx, &model.ActionLog{
			UserID:     &user.ID,
			ActionType: model.ActionClearLogs,
			Description: fmt.Sprintf("Cleared %d log entries (by %s at %s)",
				n, user.Username, now.Format(time.RFC3339)),
			Timestamp: now,
		})
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int64("user_id", user.ID).Int64("deleted", deleted).Msg("audit: logs cleared")
	return deleted, nil
}

var csvHeader = []string{"id", "username", "action_type", "description", "timestamp"}

func (s *auditService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.repo.List(ctx, nil)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Username,
			r.ActionType,
			r.Description,
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
