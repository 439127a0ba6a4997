package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	listParams listNotificationsParams
	listRows   []models.Notification
	markResult notificationMarkResult
	markErr    error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, notification *models.Notification) error {
	return nil
}

func (s *stubRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	s.listParams = params
	return s.listRows, nil, nil
}

func (s *stubRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	return s.markResult, s.markErr
}

func (s *stubRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	return 3, nil
}

func TestListRequiresUserID(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	if _, err := svc.List(context.Background(), ListParams{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestListAdminUsesAdminScope(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)

	if _, err := svc.ListAdmin(context.Background(), ListParams{Limit: 10}); err != nil {
		t.Fatalf("list admin: %v", err)
	}
	if repo.listParams.Scope != enums.NotificationScopeAdmin {
		t.Fatalf("expected admin scope, got %q", repo.listParams.Scope)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &stubRepo{markResult: notificationMarkResult{Found: false}}
	svc, _ := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkReadFound(t *testing.T) {
	repo := &stubRepo{markResult: notificationMarkResult{Found: true, Updated: true}}
	svc, _ := NewService(repo)

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("mark read: %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := NewService(&stubRepo{})
	count, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}
