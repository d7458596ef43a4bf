package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type AuditService struct {
	store  *store.AuditStore
	logger *slog.Logger
}

func NewAuditService(store *store.AuditStore, logger *slog.Logger) *AuditService {
	return &AuditService{store: store, logger: logger}
}

// AuditEntry describes one admin mutation. Details is encoded as JSON.
type AuditEntry struct {
	Identity   *users.Identity
	Action     string
	TargetType string
	TargetID   string
	Details    any
	IP         string
}

// Record appends an audit entry. Failures are logged and never returned so an
// audit problem cannot undo a mutation that already happened.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log := &store.AuditLog{
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
	}
	if entry.Identity != nil && entry.Identity.UserID != uuid.Nil {
		id := entry.Identity.UserID
		log.UserID = &id
	}
	if entry.IP != "" {
		ip := entry.IP
		log.IPAddress = &ip
	}
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			s.logger.Warn("failed to encode audit details", "action", entry.Action, "error", err)
		} else {
			details := string(b)
			log.Details = &details
		}
	}

	if err := s.store.InsertAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to write audit log",
			"action", entry.Action,
			"target_type", entry.TargetType,
			"target_id", entry.TargetID,
			"error", err,
		)
	}
}

// Recent lists the newest audit entries. Out-of-range limits fall back to the default.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]store.AuditLog, error) {
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	return s.store.ListAuditLogs(ctx, limit)
}
