package service

import (
	"context"
	"time"

	"backend/internal/apperr"
	"backend/internal/model"
	"backend/internal/repository"
)

type AuditEntryResponse struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	UserName  string  `json:"user_name,omitempty"`
	Action    string  `json:"action"`
	Entity    string  `json:"entity"`
	RecordID  string  `json:"record_id"`
	Details   string  `json:"details"`
	CreatedAt string  `json:"created_at"`
}

// AuditService exposes the audit trail to administrators.
type AuditService interface {
	ListEntries(ctx context.Context, page, limit int) ([]AuditEntryResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) ListEntries(ctx context.Context, page, limit int) ([]AuditEntryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	entries, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal("failed to list audit entries", err)
	}

	res := make([]AuditEntryResponse, 0, len(entries))
	for i := range entries {
		res = append(res, toAuditResponse(&entries[i]))
	}
	return res, total, nil
}

func toAuditResponse(entry *model.AuditLog) AuditEntryResponse {
	res := AuditEntryResponse{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		Entity:    entry.Entity,
		RecordID:  entry.RecordID,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.UserID != nil {
		id := entry.UserID.String()
		res.UserID = &id
	}
	if entry.User != nil {
		res.UserName = entry.User.Name
	}
	return res
}
