package asap

import (
	"context"
	"sort"
	"time"

	"github.com/jakejheack/hanapp/internal/models"
)

// Candidate is the ranked doer entry returned to the lister's client.
type Candidate struct {
	ID                uint64  `json:"id"`
	FullName          string  `json:"full_name"`
	ProfilePictureURL string  `json:"profile_picture_url"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	AddressDetails    string  `json:"address_details"`
	AverageRating     float64 `json:"average_rating"`
	TotalReviews      int     `json:"total_reviews"`
	IsVerified        bool    `json:"is_verified"`
	IsIDVerified      bool    `json:"is_id_verified"`
	IsBadgeAcquired   bool    `json:"is_badge_acquired"`
	DistanceKm        float64 `json:"distance_km"`
	IsAvailable       bool    `json:"is_available"`
	LastActive        string  `json:"last_active"`
}

// Locator finds available doers around a pending ASAP listing.
type Locator struct {
	repo *Repo

	defaultMaxKm float64
	limit        int
}

func NewLocator(repo *Repo, defaultMaxKm float64, limit int) *Locator {
	if defaultMaxKm <= 0 {
		defaultMaxKm = 10
	}
	if limit <= 0 {
		limit = 10
	}
	return &Locator{repo: repo, defaultMaxKm: defaultMaxKm, limit: limit}
}

// FindCandidates is read-only. The listing must still be pending, else
// ErrListingNotEligible. Results come back closest first, ties broken
// by rating then by most recent activity, capped at the configured limit.
func (l *Locator) FindCandidates(ctx context.Context, listingID uint64, listerLat, listerLon float64, gender string, maxDistanceKm float64) ([]Candidate, *AsapListing, error) {
	listing, err := l.repo.GetPending(ctx, listingID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, ErrListingNotEligible
		}
		return nil, nil, err
	}

	if maxDistanceKm <= 0 {
		maxDistanceKm = l.defaultMaxKm
	}

	doers, err := l.repo.ListAvailableDoers(ctx, gender)
	if err != nil {
		return nil, nil, err
	}

	type ranked struct {
		doer models.User
		km   float64
	}
	within := make([]ranked, 0, len(doers))
	for _, d := range doers {
		km := HaversineKm(listerLat, listerLon, d.Latitude, d.Longitude)
		if km <= maxDistanceKm {
			within = append(within, ranked{doer: d, km: km})
		}
	}

	sort.Slice(within, func(i, j int) bool {
		if within[i].km != within[j].km {
			return within[i].km < within[j].km
		}
		if within[i].doer.AverageRating != within[j].doer.AverageRating {
			return within[i].doer.AverageRating > within[j].doer.AverageRating
		}
		return within[i].doer.UpdatedAt.After(within[j].doer.UpdatedAt)
	})

	if len(within) > l.limit {
		within = within[:l.limit]
	}

	out := make([]Candidate, 0, len(within))
	for _, w := range within {
		out = append(out, Candidate{
			ID:                w.doer.ID,
			FullName:          w.doer.FullName,
			ProfilePictureURL: w.doer.ProfilePictureURL,
			Latitude:          w.doer.Latitude,
			Longitude:         w.doer.Longitude,
			AddressDetails:    w.doer.AddressDetails,
			AverageRating:     w.doer.AverageRating,
			TotalReviews:      w.doer.ReviewCount,
			IsVerified:        w.doer.IsVerified,
			IsIDVerified:      w.doer.IDVerified,
			IsBadgeAcquired:   w.doer.BadgeAcquired,
			DistanceKm:        roundKm(w.km),
			IsAvailable:       true,
			LastActive:        w.doer.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out, listing, nil
}
