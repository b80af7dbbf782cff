package asap

import (
	"context"
	"errors"
	"time"

	"github.com/jakejheack/hanapp/internal/models"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx binds the repo to a transaction handle.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

// DB exposes the underlying handle for starting transactions.
func (r *Repo) DB() *gorm.DB {
	return r.db
}

func (r *Repo) CreateListing(ctx context.Context, l *AsapListing) error {
	if l.Status == "" {
		l.Status = StatusPending
	}
	l.IsActive = true
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Repo) GetListing(ctx context.Context, id uint64) (*AsapListing, error) {
	var l AsapListing
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetPending returns the listing only if it is still pending and active.
func (r *Repo) GetPending(ctx context.Context, id uint64) (*AsapListing, error) {
	var l AsapListing
	err := r.db.WithContext(ctx).
		Where("id = ? AND status = ? AND is_active = ?", id, StatusPending, true).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetPendingOwned additionally checks ownership, for lister-driven actions.
func (r *Repo) GetPendingOwned(ctx context.Context, id, listerID uint64) (*AsapListing, error) {
	var l AsapListing
	err := r.db.WithContext(ctx).
		Where("id = ? AND lister_id = ? AND status = ? AND is_active = ?", id, listerID, StatusPending, true).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CASStatus flips the listing status only if it still has the expected
// one. This is the sole status mutation primitive: the affected-row
// count is what serializes racing matchers and sweepers.
func (r *Repo) CASStatus(ctx context.Context, id uint64, expected, next ListingStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&AsapListing{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]any{
			"status":     next,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repo) Deactivate(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&AsapListing{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// InsertPublicFromAsap copies the descriptive fields into the standing
// listings table. Conversion always lands in the Onsite category.
func (r *Repo) InsertPublicFromAsap(ctx context.Context, src *AsapListing) (uint64, error) {
	pub := &PublicListing{
		ListerID:            src.ListerID,
		Title:               src.Title,
		Description:         src.Description,
		Price:               src.Price,
		Latitude:            src.Latitude,
		Longitude:           src.Longitude,
		LocationAddress:     src.LocationAddress,
		Category:            ConvertedCategory,
		PreferredDoerGender: src.PreferredDoerGender,
		Status:              "open",
		IsActive:            true,
	}
	if err := r.db.WithContext(ctx).Create(pub).Error; err != nil {
		return 0, err
	}
	return pub.ID, nil
}

func (r *Repo) GetPublicListing(ctx context.Context, id uint64) (*PublicListing, error) {
	var l PublicListing
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListExpired returns pending, active listings past the window with no
// accepted application, oldest first.
func (r *Repo) ListExpired(ctx context.Context, now time.Time, window time.Duration) ([]AsapListing, error) {
	cutoff := now.Add(-window)
	var out []AsapListing
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND status = ? AND created_at < ?", true, StatusPending, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM applicationsv2 a WHERE a.listing_id = asap_listings.id AND a.listing_type = ? AND a.status = ?)",
			ListingTypeASAP, ApplicationAccepted).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) InsertApplication(ctx context.Context, app *Application) error {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *Repo) GetApplication(ctx context.Context, id uint64) (*Application, error) {
	var app Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repo) HasApplication(ctx context.Context, listingID uint64, listingType string, doerID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Application{}).
		Where("listing_id = ? AND listing_type = ? AND doer_id = ?", listingID, listingType, doerID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repo) CountApplications(ctx context.Context, listingID uint64, listingType string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Application{}).
		Where("listing_id = ? AND listing_type = ?", listingID, listingType).
		Count(&n).Error
	return n, err
}

func (r *Repo) LinkConversation(ctx context.Context, applicationID, conversationID uint64) error {
	return r.db.WithContext(ctx).Model(&Application{}).
		Where("id = ?", applicationID).
		Update("conversation_id", conversationID).Error
}

// RepointApplications moves applications from the converted ASAP
// listing to its public successor. The rows survive the conversion
// boundary and keep their ids.
func (r *Repo) RepointApplications(ctx context.Context, oldListingID, newListingID uint64) error {
	return r.db.WithContext(ctx).Model(&Application{}).
		Where("listing_id = ? AND listing_type = ?", oldListingID, ListingTypeASAP).
		Updates(map[string]any{
			"listing_id":   newListingID,
			"listing_type": ListingTypePublic,
		}).Error
}

// GetAvailableDoer returns the doer only if they can be matched right now.
func (r *Repo) GetAvailableDoer(ctx context.Context, doerID uint64) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ? AND is_available = ? AND is_deleted = ?",
			doerID, models.RoleDoer, true, false).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListAvailableDoers prefilters candidates on role, availability and the
// optional gender preference. Distance filtering happens in the locator.
func (r *Repo) ListAvailableDoers(ctx context.Context, gender string) ([]models.User, error) {
	q := r.db.WithContext(ctx).
		Where("role = ? AND is_available = ? AND is_deleted = ?", models.RoleDoer, true, false)
	if gender != "" && gender != "Any" {
		q = q.Where("gender = ?", gender)
	}
	var out []models.User
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// IsNotFound reports a gorm missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
