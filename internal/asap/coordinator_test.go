package asap

import (
	"context"
	"errors"
	"testing"

	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/notify"
)

func TestSelectDoer_HappyPath(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	chats := chat.NewRepo(db)
	notifier := &recordingNotifier{}

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	co := NewCoordinator(repo, chats, notifier)
	res, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
	if err != nil {
		t.Fatalf("select doer: %v", err)
	}
	if res.ApplicationID == 0 || res.ConversationID == 0 {
		t.Fatalf("expected application and conversation ids, got %+v", res)
	}
	if res.Doer.ID != doer.ID || res.Listing.ID != listing.ID {
		t.Fatalf("unexpected summaries: %+v", res)
	}

	app, err := repo.GetApplication(context.Background(), res.ApplicationID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if app.Status != ApplicationAccepted {
		t.Fatalf("expected accepted application, got %q", app.Status)
	}
	if app.ListingType != ListingTypeASAP || app.ListingID != listing.ID || app.DoerID != doer.ID {
		t.Fatalf("unexpected application: %+v", app)
	}
	if app.ConversationID == nil || *app.ConversationID != res.ConversationID {
		t.Fatalf("application not linked to conversation: %+v", app.ConversationID)
	}

	got, err := repo.GetListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Status != StatusMatched {
		t.Fatalf("expected matched listing, got %q", got.Status)
	}

	if len(notifier.emitted) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.emitted))
	}
	n := notifier.emitted[0]
	if n.UserID != doer.ID || n.Type != notify.TypeAsapSelected {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestSelectDoer_NotPendingFailsWithoutWrites(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)

	for _, status := range []ListingStatus{StatusMatched, StatusConverted, StatusCancelled} {
		listing := seedPendingListing(t, db, 42, baseLat, baseLon)
		if err := db.Model(&AsapListing{}).Where("id = ?", listing.ID).
			Update("status", status).Error; err != nil {
			t.Fatalf("set status %q: %v", status, err)
		}

		_, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
		if !errors.Is(err, ErrListingNotPending) {
			t.Fatalf("status %q: expected ErrListingNotPending, got %v", status, err)
		}

		var apps int64
		if err := db.Model(&Application{}).Where("listing_id = ?", listing.ID).Count(&apps).Error; err != nil {
			t.Fatalf("count applications: %v", err)
		}
		if apps != 0 {
			t.Fatalf("status %q: selection wrote %d applications", status, apps)
		}
	}
}

func TestSelectDoer_WrongLister(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	_, err := co.SelectDoer(context.Background(), listing.ID, 43, doer.ID)
	if !errors.Is(err, ErrListingNotPending) {
		t.Fatalf("expected ErrListingNotPending for foreign listing, got %v", err)
	}
}

func TestSelectDoer_DoerUnavailable(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	_, err := co.SelectDoer(context.Background(), listing.ID, 42, 999)
	if !errors.Is(err, ErrDoerUnavailable) {
		t.Fatalf("expected ErrDoerUnavailable for missing doer, got %v", err)
	}

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	if err := db.Model(doer).Update("is_available", false).Error; err != nil {
		t.Fatalf("update doer: %v", err)
	}
	_, err = co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
	if !errors.Is(err, ErrDoerUnavailable) {
		t.Fatalf("expected ErrDoerUnavailable for offline doer, got %v", err)
	}

	got, err := repo.GetListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("failed selection mutated listing: %q", got.Status)
	}
}

func TestSelectDoer_SecondSelectionLoses(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	doerA := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	doerB := seedDoer(t, db, 8, baseLat, baseLon, 4.0)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	if _, err := co.SelectDoer(context.Background(), listing.ID, 42, doerA.ID); err != nil {
		t.Fatalf("first selection: %v", err)
	}

	_, err := co.SelectDoer(context.Background(), listing.ID, 42, doerB.ID)
	if !errors.Is(err, ErrListingNotPending) {
		t.Fatalf("expected second selection to lose with ErrListingNotPending, got %v", err)
	}

	var apps int64
	if err := db.Model(&Application{}).Where("listing_id = ?", listing.ID).Count(&apps).Error; err != nil {
		t.Fatalf("count applications: %v", err)
	}
	if apps != 1 {
		t.Fatalf("expected exactly one application, got %d", apps)
	}
}

func TestSelectDoer_ReplayIsRejected(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	if _, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID); err != nil {
		t.Fatalf("first selection: %v", err)
	}

	// identical retry: listing already matched, so the precondition
	// rejects it deterministically without touching the store
	_, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
	if !errors.Is(err, ErrListingNotPending) {
		t.Fatalf("expected replay to fail with ErrListingNotPending, got %v", err)
	}

	var apps int64
	if err := db.Model(&Application{}).
		Where("listing_id = ? AND listing_type = ? AND doer_id = ?", listing.ID, ListingTypeASAP, doer.ID).
		Count(&apps).Error; err != nil {
		t.Fatalf("count applications: %v", err)
	}
	if apps != 1 {
		t.Fatalf("replay duplicated the application: %d rows", apps)
	}
}

func TestSelectDoer_DuplicateApplication(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{})

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	// the doer already applied on their own while the listing was pending
	if err := repo.InsertApplication(context.Background(), &Application{
		ListingID:   listing.ID,
		ListingType: ListingTypeASAP,
		ListerID:    42,
		DoerID:      doer.ID,
		Message:     "I can be there in 10",
		Status:      ApplicationPending,
	}); err != nil {
		t.Fatalf("seed application: %v", err)
	}

	_, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}

	got, err := repo.GetListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("failed selection mutated listing: %q", got.Status)
	}
}

func TestSelectDoer_NotifierFailureDoesNotFailSelection(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	co := NewCoordinator(repo, chat.NewRepo(db), &recordingNotifier{failWith: errors.New("push relay down")})

	doer := seedDoer(t, db, 7, baseLat, baseLon, 4.5)
	listing := seedPendingListing(t, db, 42, baseLat, baseLon)

	res, err := co.SelectDoer(context.Background(), listing.ID, 42, doer.ID)
	if err != nil {
		t.Fatalf("selection must survive notifier failure, got %v", err)
	}
	if res.ApplicationID == 0 {
		t.Fatalf("expected a committed application")
	}
}
