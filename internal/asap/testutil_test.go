package asap

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/models"
	"github.com/jakejheack/hanapp/internal/notify"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// named per-test DB so every pooled connection sees the same schema
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&AsapListing{},
		&PublicListing{},
		&Application{},
		&chat.Conversation{},
		&chat.Message{},
		&notify.Notification{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// recordingNotifier captures emissions; when failWith is set every Emit
// errors, which callers must swallow.
type recordingNotifier struct {
	emitted  []*notify.Notification
	failWith error
}

func (n *recordingNotifier) Emit(ctx context.Context, notif *notify.Notification) error {
	_ = ctx
	if n.failWith != nil {
		return n.failWith
	}
	n.emitted = append(n.emitted, notif)
	return nil
}

func seedDoer(t *testing.T, db *gorm.DB, id uint64, lat, lon, rating float64) *models.User {
	t.Helper()
	u := &models.User{
		ID:            id,
		FullName:      "Doer",
		Email:         fmt.Sprintf("doer%d@test.local", id),
		Role:          models.RoleDoer,
		Latitude:      lat,
		Longitude:     lon,
		IsAvailable:   true,
		AverageRating: rating,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed doer %d: %v", id, err)
	}
	return u
}

func seedPendingListing(t *testing.T, db *gorm.DB, listerID uint64, lat, lon float64) *AsapListing {
	t.Helper()
	l := &AsapListing{
		ListerID:        listerID,
		Title:           "Fix the sink",
		Description:     "leaking trap",
		Price:           500,
		Latitude:        lat,
		Longitude:       lon,
		LocationAddress: "somewhere",
		Status:          StatusPending,
		IsActive:        true,
	}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return l
}

func backdateListing(t *testing.T, db *gorm.DB, id uint64, age time.Duration) {
	t.Helper()
	if err := db.Model(&AsapListing{}).
		Where("id = ?", id).
		Update("created_at", time.Now().Add(-age)).Error; err != nil {
		t.Fatalf("backdate listing %d: %v", id, err)
	}
}
