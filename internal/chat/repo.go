package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx returns a repo bound to the given transaction handle, so the
// match coordinator can create a conversation inside its own unit of work.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

// GetOrCreateConversation tries to create the conversation; if the
// tuple already exists it returns the existing row instead. The bool
// reports whether a new row was created.
func (r *Repo) GetOrCreateConversation(ctx context.Context, conv *Conversation) (*Conversation, bool, error) {
	err := r.db.WithContext(ctx).Create(conv).Error
	if err == nil {
		return conv, true, nil
	}

	existing, getErr := r.getConversationByTuple(ctx, conv.ListingID, conv.ListingType, conv.ListerID, conv.DoerID)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}

func (r *Repo) getConversationByTuple(ctx context.Context, listingID uint64, listingType string, listerID, doerID uint64) (*Conversation, error) {
	var conv Conversation
	if err := r.db.WithContext(ctx).
		Where("listing_id = ? AND listing_type = ? AND lister_id = ? AND doer_id = ?",
			listingID, listingType, listerID, doerID).
		First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *Repo) GetConversationByID(ctx context.Context, id uint64) (*Conversation, error) {
	var conv Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns a user's threads, most recently active first.
func (r *Repo) ListConversations(ctx context.Context, userID uint64, limit int) ([]Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("lister_id = ? OR doer_id = ?", userID, userID).
		Order("last_message_at DESC").
		Limit(limit).
		Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

// RepointListing moves every conversation from one listing identity to
// another. Used when an ASAP listing converts to a public one.
func (r *Repo) RepointListing(ctx context.Context, oldListingID uint64, oldType string, newListingID uint64, newType string) error {
	return r.db.WithContext(ctx).Model(&Conversation{}).
		Where("listing_id = ? AND listing_type = ?", oldListingID, oldType).
		Updates(map[string]any{
			"listing_id":   newListingID,
			"listing_type": newType,
		}).Error
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", m.ConversationID).
			Update("last_message_at", time.Now()).Error
	})
}

// ListMessages returns messages in DESC id order (newest -> oldest).
func (r *Repo) ListMessages(ctx context.Context, conversationID uint64, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit)

	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
