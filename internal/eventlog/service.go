package eventlog

import (
	"context"
	"encoding/json"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/pagination"
)

// Service records every inbound payment event and serves the audit
// listing. A failed append must never block acknowledgement of a webhook,
// so Append logs and swallows persistence errors.
type Service interface {
	Append(ctx context.Context, entry Entry)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// Entry is one event to record.
type Entry struct {
	EventType string
	Reference string
	Payload   json.RawMessage
	Verified  bool
	Notes     string
}

// ListParams configures pagination for the audit listing.
type ListParams struct {
	Reference string
	Limit     int
	Cursor    string
}

// ListResult wraps returned events and the cursor for the next page.
type ListResult struct {
	Items  []models.InboundEvent `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires event log dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event log repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Append(ctx context.Context, entry Entry) {
	row := &models.InboundEvent{
		EventType: entry.EventType,
		Reference: entry.Reference,
		Payload:   entry.Payload,
		Verified:  entry.Verified,
	}
	if entry.Notes != "" {
		notes := entry.Notes
		row.Notes = &notes
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if s.logg != nil {
			ctx = s.logg.WithFields(ctx, map[string]any{
				"event_type": entry.EventType,
				"reference":  entry.Reference,
			})
			s.logg.Error(ctx, "eventlog.append_failed", err)
		}
	}
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}

	query := listEventsParams{
		Reference: params.Reference,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByReference(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inbound events")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: rows, Cursor: cursor}, nil
}
