package asap

import "time"

type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusMatched   ListingStatus = "matched"
	StatusConverted ListingStatus = "converted"
	StatusCancelled ListingStatus = "cancelled"
)

const (
	ListingTypeASAP   = "ASAP"
	ListingTypePublic = "PUBLIC"
)

// Category stamped on every listing produced by conversion. ASAP jobs
// are by nature at-the-lister's-location work.
const ConvertedCategory = "Onsite"

// AsapListing is a "do this now" job. Once status leaves pending the
// row is frozen apart from timestamps; is_active=false additionally
// takes it out of matching and conversion.
type AsapListing struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ListerID    uint64  `gorm:"index;not null" json:"lister_id"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`

	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	LocationAddress string  `gorm:"type:varchar(512)" json:"location_address"`

	PreferredDoerGender string `gorm:"type:varchar(16)" json:"preferred_doer_gender"`

	Status   ListingStatus `gorm:"type:varchar(16);index;not null;default:pending" json:"status"`
	IsActive bool          `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AsapListing) TableName() string { return "asap_listings" }

// PublicListing is a row in the standing listings table. Conversion
// creates exactly one per expired ASAP listing.
type PublicListing struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ListerID    uint64  `gorm:"index;not null" json:"lister_id"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`

	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	LocationAddress string  `gorm:"type:varchar(512)" json:"location_address"`

	Category            string `gorm:"type:varchar(32);not null" json:"category"`
	PreferredDoerGender string `gorm:"type:varchar(16)" json:"preferred_doer_gender"`

	Status   string `gorm:"type:varchar(16);index;not null;default:open" json:"status"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PublicListing) TableName() string { return "listingsv2" }

type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationAccepted   ApplicationStatus = "accepted"
	ApplicationRejected   ApplicationStatus = "rejected"
	ApplicationInProgress ApplicationStatus = "in_progress"
	ApplicationCompleted  ApplicationStatus = "completed"
	ApplicationCancelled  ApplicationStatus = "cancelled"
)

// Application links a doer to a listing. The unique index enforces the
// one-application-per-doer-per-listing rule at the store level, so a
// replayed SelectDoer fails deterministically instead of double-applying.
type Application struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID   uint64 `gorm:"not null;index:uniq_app_listing_doer,unique,priority:1" json:"listing_id"`
	ListingType string `gorm:"type:varchar(8);not null;index:uniq_app_listing_doer,priority:2" json:"listing_type"`
	ListerID    uint64 `gorm:"index;not null" json:"lister_id"`
	DoerID      uint64 `gorm:"not null;index:uniq_app_listing_doer,priority:3" json:"doer_id"`

	Message string            `gorm:"type:text" json:"message"`
	Status  ApplicationStatus `gorm:"type:varchar(16);index;not null;default:pending" json:"status"`

	ConversationID *uint64 `gorm:"index" json:"conversation_id"`

	AppliedAt time.Time `json:"applied_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Application) TableName() string { return "applicationsv2" }
