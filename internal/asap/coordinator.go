package asap

import (
	"context"
	"log"

	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/models"
	"github.com/jakejheack/hanapp/internal/notify"
	"gorm.io/gorm"
)

// Message stamped on the application when a lister picks a doer:
// the selection is an implicit acceptance.
const selectionMessage = "ASAP listing selected by lister"

// SelectionResult is what the client needs to jump straight into the
// conversation with the selected doer.
type SelectionResult struct {
	ApplicationID  uint64 `json:"application_id"`
	ConversationID uint64 `json:"conversation_id"`

	Doer struct {
		ID                uint64  `json:"id"`
		FullName          string  `json:"full_name"`
		ProfilePictureURL string  `json:"profile_picture_url"`
		AverageRating     float64 `json:"average_rating"`
		ReviewCount       int     `json:"review_count"`
	} `json:"doer"`

	Listing struct {
		ID              uint64  `json:"id"`
		Title           string  `json:"title"`
		Price           float64 `json:"price"`
		LocationAddress string  `json:"location_address"`
	} `json:"listing"`
}

// Coordinator performs the lister's doer selection for a pending ASAP
// listing. All writes for one selection share a single transaction; the
// pending->matched flip is a conditional update whose affected-row count
// decides who wins a race.
type Coordinator struct {
	repo     *Repo
	chats    *chat.Repo
	notifier notify.Notifier
}

func NewCoordinator(repo *Repo, chats *chat.Repo, notifier notify.Notifier) *Coordinator {
	return &Coordinator{repo: repo, chats: chats, notifier: notifier}
}

func (co *Coordinator) SelectDoer(ctx context.Context, listingID, listerID, doerID uint64) (*SelectionResult, error) {
	var (
		res     SelectionResult
		listing *AsapListing
		doer    *models.User
	)

	err := co.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := co.repo.WithTx(tx)
		chats := co.chats.WithTx(tx)

		l, err := repo.GetPendingOwned(ctx, listingID, listerID)
		if err != nil {
			if IsNotFound(err) {
				return ErrListingNotPending
			}
			return err
		}
		listing = l

		d, err := repo.GetAvailableDoer(ctx, doerID)
		if err != nil {
			if IsNotFound(err) {
				return ErrDoerUnavailable
			}
			return err
		}
		doer = d

		exists, err := repo.HasApplication(ctx, listingID, ListingTypeASAP, doerID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateApplication
		}

		app := &Application{
			ListingID:   listingID,
			ListingType: ListingTypeASAP,
			ListerID:    listerID,
			DoerID:      doerID,
			Message:     selectionMessage,
			Status:      ApplicationAccepted,
		}
		if err := repo.InsertApplication(ctx, app); err != nil {
			return err
		}

		swapped, err := repo.CASStatus(ctx, listingID, StatusPending, StatusMatched)
		if err != nil {
			return err
		}
		if !swapped {
			// someone else matched or converted the listing first
			return ErrListingNotPending
		}

		conv, _, err := chats.GetOrCreateConversation(ctx, &chat.Conversation{
			ListingID:   listingID,
			ListingType: ListingTypeASAP,
			ListerID:    listerID,
			DoerID:      doerID,
		})
		if err != nil {
			return err
		}

		if err := repo.LinkConversation(ctx, app.ID, conv.ID); err != nil {
			return err
		}

		res.ApplicationID = app.ID
		res.ConversationID = conv.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Doer.ID = doer.ID
	res.Doer.FullName = doer.FullName
	res.Doer.ProfilePictureURL = doer.ProfilePictureURL
	res.Doer.AverageRating = doer.AverageRating
	res.Doer.ReviewCount = doer.ReviewCount
	res.Listing.ID = listing.ID
	res.Listing.Title = listing.Title
	res.Listing.Price = listing.Price
	res.Listing.LocationAddress = listing.LocationAddress

	// best effort only: a lost notification never unwinds a match
	if co.notifier != nil {
		appID := res.ApplicationID
		convID := res.ConversationID
		n := &notify.Notification{
			UserID:              doerID,
			SenderID:            &listerID,
			Type:                notify.TypeAsapSelected,
			Title:               "ASAP Task Selected",
			Content:             "You have been selected for the ASAP task: " + listing.Title,
			AssociatedID:        &appID,
			ConversationID:      &convID,
			RelatedListingTitle: listing.Title,
		}
		if err := co.notifier.Emit(ctx, n); err != nil {
			log.Printf("asap select: notify doer=%d listing=%d failed: %v", doerID, listingID, err)
		}
	}

	return &res, nil
}
