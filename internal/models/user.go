package models

import "time"

const (
	RoleLister = "lister"
	RoleDoer   = "doer"
)

// User mirrors the production users table. Doers carry the geo and
// availability fields the ASAP matcher reads.
type User struct {
	ID                uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName          string  `gorm:"type:varchar(255);not null" json:"full_name"`
	Email             string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role              string  `gorm:"type:varchar(16);index;not null" json:"role"`
	Gender            string  `gorm:"type:varchar(16)" json:"gender"`
	ProfilePictureURL string  `gorm:"type:varchar(512)" json:"profile_picture_url"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	AddressDetails    string  `gorm:"type:varchar(512)" json:"address_details"`

	IsAvailable   bool `gorm:"index;not null;default:false" json:"is_available"`
	IsDeleted     bool `gorm:"not null;default:false" json:"-"`
	IsVerified    bool `gorm:"not null;default:false" json:"is_verified"`
	IDVerified    bool `gorm:"column:id_verified;not null;default:false" json:"id_verified"`
	BadgeAcquired bool `gorm:"not null;default:false" json:"badge_acquired"`

	AverageRating float64 `gorm:"not null;default:0" json:"average_rating"`
	ReviewCount   int     `gorm:"not null;default:0" json:"review_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
