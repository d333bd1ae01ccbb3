package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/db/models"
	"github.com/harnoorlabs/aromas-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type listNotificationsParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      *pagination.Cursor
	UnreadOnly  bool
}

// notificationMarkResult distinguishes "already read" from "does not exist"
// so the service can map the latter to a 404.
type notificationMarkResult struct {
	Updated bool
	Found   bool
}

type gormNotificationRepo struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &gormNotificationRepo{db: db}
}

func (r *gormNotificationRepo) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormNotificationRepo{db: tx}
}

func (r *gormNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormNotificationRepo) recipientScope(ctx context.Context, recipientID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID)
}

// List pages newest-first on (created_at, id). One extra row is fetched past
// the page size to decide whether a next-page cursor exists.
func (r *gormNotificationRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)

	query := r.recipientScope(ctx, params.RecipientID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	if len(rows) <= pageSize {
		return rows, nil, nil
	}
	overflow := rows[pageSize]
	return rows[:pageSize], &pagination.Cursor{CreatedAt: overflow.CreatedAt, ID: overflow.ID}, nil
}

func (r *gormNotificationRepo) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	update := r.recipientScope(ctx, recipientID).
		Where("id = ? AND read_at IS NULL", notificationID).
		UpdateColumn("read_at", now)
	if update.Error != nil {
		return notificationMarkResult{}, update.Error
	}
	if update.RowsAffected > 0 {
		return notificationMarkResult{Updated: true, Found: true}, nil
	}

	// Nothing changed. Check whether the row exists at all, it may simply
	// have been read already.
	var existing int64
	err := r.recipientScope(ctx, recipientID).
		Where("id = ?", notificationID).
		Count(&existing).Error
	if err != nil {
		return notificationMarkResult{}, err
	}
	return notificationMarkResult{Found: existing > 0}, nil
}

func (r *gormNotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID, now time.Time) (int64, error) {
	update := r.recipientScope(ctx, recipientID).
		Where("read_at IS NULL").
		UpdateColumn("read_at", now)
	return update.RowsAffected, update.Error
}

// DeleteOlderThan removes notifications created before the cutoff. The cron
// cleanup job calls it inside its own transaction.
func (r *gormNotificationRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	del := conn.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return del.RowsAffected, del.Error
}
