package notify

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Well-known notification types emitted by the ASAP lifecycle.
const (
	TypeAsapSelected  = "asap_selected"
	TypeAsapConverted = "asap_converted_to_public"
)

type Notification struct {
	ID       uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   uint64  `gorm:"index;not null" json:"user_id"`
	SenderID *uint64 `gorm:"index" json:"sender_id"`

	Type    string `gorm:"type:varchar(48);index;not null" json:"type"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`

	// AssociatedID is whichever record the type implies: an application
	// for asap_selected, the new public listing for conversions.
	AssociatedID   *uint64 `json:"associated_id"`
	ConversationID *uint64 `gorm:"column:conversation_id_for_chat_nav" json:"conversation_id_for_chat_nav"`

	RelatedListingTitle string `gorm:"type:varchar(255)" json:"related_listing_title"`

	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notificationsv2" }

// Notifier is what the lifecycle components call. Implementations must
// never be load-bearing: callers log and swallow every error.
type Notifier interface {
	Emit(ctx context.Context, n *Notification) error
}

// EventPublisher pushes a persisted notification to the delivery relay.
// Matches the rabbitmq publisher; delivery itself happens elsewhere.
type EventPublisher interface {
	PublishNotification(ctx context.Context, notificationID, userID uint64, typ string) error
}

// Repo persists notifications and, when wired with a publisher, fans
// them out to the push relay queue.
type Repo struct {
	db  *gorm.DB
	pub EventPublisher // optional
}

func NewRepo(db *gorm.DB, pub EventPublisher) *Repo {
	return &Repo{db: db, pub: pub}
}

func (r *Repo) Emit(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}
	if r.pub != nil {
		// losing the push event is fine, the row is the source of truth
		_ = r.pub.PublishNotification(ctx, n.ID, n.UserID, n.Type)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, userID uint64, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *Repo) MarkRead(ctx context.Context, userID, notificationID uint64) error {
	return r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}
