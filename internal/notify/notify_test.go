package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type recordingPublisher struct {
	events   int
	failWith error
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, notificationID, userID uint64, typ string) error {
	_ = ctx
	if p.failWith != nil {
		return p.failWith
	}
	p.events++
	return nil
}

func TestEmit_PersistsAndPublishes(t *testing.T) {
	db := openTestDB(t)
	pub := &recordingPublisher{}
	repo := NewRepo(db, pub)

	if err := repo.Emit(context.Background(), &Notification{
		UserID: 7,
		Type:   TypeAsapSelected,
		Title:  "ASAP Task Selected",
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if pub.events != 1 {
		t.Fatalf("expected 1 published event, got %d", pub.events)
	}

	n, err := repo.UnreadCount(context.Background(), 7)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
}

func TestEmit_PublisherFailureIsSwallowed(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db, &recordingPublisher{failWith: errors.New("queue down")})

	if err := repo.Emit(context.Background(), &Notification{
		UserID: 7,
		Type:   TypeAsapConverted,
		Title:  "ASAP Job Converted to Public",
	}); err != nil {
		t.Fatalf("emit must survive publisher failure: %v", err)
	}

	items, err := repo.List(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected persisted notification, got %d", len(items))
	}
}

func TestMarkRead_ScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db, nil)

	n := &Notification{UserID: 7, Type: TypeAsapSelected, Title: "t"}
	if err := repo.Emit(context.Background(), n); err != nil {
		t.Fatalf("emit: %v", err)
	}

	// someone else's mark-read is a no-op
	if err := repo.MarkRead(context.Background(), 8, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err := repo.UnreadCount(context.Background(), 7)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 1 {
		t.Fatalf("foreign mark-read flipped the flag")
	}

	if err := repo.MarkRead(context.Background(), 7, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = repo.UnreadCount(context.Background(), 7)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread after mark-read, got %d", unread)
	}
}
