package asap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/notify"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// SweepResult summarizes one sweep run.
type SweepResult struct {
	ConvertedCount int      `json:"converted_count"`
	Errors         []string `json:"errors"`
}

// Locker serializes sweeper replicas. The sweep is idempotent without
// it; it only keeps replicas from racing over the same rows.
type Locker interface {
	AcquireSweepLock(ctx context.Context, holder string, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context, holder string) error
}

// Sweeper converts pending ASAP listings that outlived the acceptance
// window into standing public listings.
type Sweeper struct {
	repo     *Repo
	chats    *chat.Repo
	notifier notify.Notifier

	window   time.Duration
	interval time.Duration
	locker   Locker // optional
}

func NewSweeper(repo *Repo, chats *chat.Repo, notifier notify.Notifier, window, interval time.Duration, locker Locker) *Sweeper {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		repo:     repo,
		chats:    chats,
		notifier: notifier,
		window:   window,
		interval: interval,
		locker:   locker,
	}
}

// Sweep converts every eligible listing, oldest first, each in its own
// transaction so one failure cannot block the rest. Safe to call
// repeatedly and concurrently: converted listings no longer match the
// selection predicate, and the status flip is CAS-gated.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) SweepResult {
	runID := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	res := SweepResult{Errors: []string{}}

	expired, err := s.repo.ListExpired(ctx, now, s.window)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("list expired listings: %v", err))
		log.Printf("sweep=%s list failed: %v", runID, err)
		return res
	}

	for i := range expired {
		l := expired[i]
		newID, err := s.convertOne(ctx, &l)
		if err != nil {
			if errors.Is(err, ErrListingNotPending) {
				// lost the race to a concurrent selection, nothing to do
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("convert listing %d: %v", l.ID, err))
			log.Printf("sweep=%s listing=%d convert failed: %v", runID, l.ID, err)
			continue
		}
		res.ConvertedCount++
		log.Printf("sweep=%s listing=%d converted to public=%d age=%s",
			runID, l.ID, newID, now.Sub(l.CreatedAt).Truncate(time.Second))

		s.notifyConverted(ctx, &l, newID)
	}

	if res.ConvertedCount > 0 || len(res.Errors) > 0 {
		log.Printf("sweep=%s done converted=%d errors=%d", runID, res.ConvertedCount, len(res.Errors))
	}
	return res
}

// convertOne runs the conversion for a single listing. The CAS on
// pending->converted gates the commit: if another writer flipped the
// status first the whole transaction unwinds.
func (s *Sweeper) convertOne(ctx context.Context, l *AsapListing) (uint64, error) {
	var newID uint64
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		chats := s.chats.WithTx(tx)

		id, err := repo.InsertPublicFromAsap(ctx, l)
		if err != nil {
			return err
		}
		newID = id

		if err := repo.RepointApplications(ctx, l.ID, newID); err != nil {
			return err
		}
		if err := chats.RepointListing(ctx, l.ID, ListingTypeASAP, newID, ListingTypePublic); err != nil {
			return err
		}

		swapped, err := repo.CASStatus(ctx, l.ID, StatusPending, StatusConverted)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrListingNotPending
		}
		return repo.Deactivate(ctx, l.ID)
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// ConvertNow is the lister-initiated conversion. Unlike the sweep it
// refuses listings that already have applications.
func (s *Sweeper) ConvertNow(ctx context.Context, listingID, listerID uint64) (uint64, error) {
	l, err := s.repo.GetPendingOwned(ctx, listingID, listerID)
	if err != nil {
		if IsNotFound(err) {
			return 0, ErrListingNotEligible
		}
		return 0, err
	}

	n, err := s.repo.CountApplications(ctx, listingID, ListingTypeASAP)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrHasApplications
	}

	newID, err := s.convertOne(ctx, l)
	if err != nil {
		return 0, err
	}
	s.notifyConverted(ctx, l, newID)
	return newID, nil
}

func (s *Sweeper) notifyConverted(ctx context.Context, l *AsapListing, newID uint64) {
	if s.notifier == nil {
		return
	}
	id := newID
	n := &notify.Notification{
		UserID: l.ListerID,
		Type:   notify.TypeAsapConverted,
		Title:  "ASAP Job Converted to Public",
		Content: fmt.Sprintf(
			"Your ASAP job %q has been automatically converted to a public listing after %d minutes without acceptance.",
			l.Title, int(s.window.Minutes())),
		AssociatedID:        &id,
		RelatedListingTitle: l.Title,
	}
	if err := s.notifier.Emit(ctx, n); err != nil {
		log.Printf("sweep: notify lister=%d listing=%d failed: %v", l.ListerID, l.ID, err)
	}
}

// Run ticks the sweep until the context ends, taking the leader lock
// per tick when one is configured.
func (s *Sweeper) Run(ctx context.Context) {
	holder := fmt.Sprintf("sweeper-%d", rand.Int63())
	t := time.NewTicker(s.interval)
	defer t.Stop()

	log.Printf("sweeper started interval=%s window=%s", s.interval, s.window)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper shutting down")
			return
		case now := <-t.C:
			if s.locker != nil {
				gotIt, err := s.locker.AcquireSweepLock(ctx, holder, s.interval)
				if err != nil {
					log.Printf("sweeper lock: %v", err)
					continue
				}
				if !gotIt {
					continue
				}
			}
			s.Sweep(ctx, now)
			if s.locker != nil {
				if err := s.locker.ReleaseSweepLock(ctx, holder); err != nil {
					log.Printf("sweeper unlock: %v", err)
				}
			}
		}
	}
}
