package chat

import "time"

// Conversation is the lister<->doer thread attached to a listing.
// The unique index makes creation idempotent per
// (listing, listing_type, lister, doer) tuple.
type Conversation struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID   uint64 `gorm:"not null;index:uniq_conv_tuple,unique,priority:1" json:"listing_id"`
	ListingType string `gorm:"type:varchar(8);not null;index:uniq_conv_tuple,priority:2" json:"listing_type"`
	ListerID    uint64 `gorm:"not null;index:uniq_conv_tuple,priority:3" json:"lister_id"`
	DoerID      uint64 `gorm:"not null;index:uniq_conv_tuple,priority:4" json:"doer_id"`

	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

func (Conversation) TableName() string { return "conversationsv2" }

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64    `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint64    `gorm:"index;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messagesv2" }
