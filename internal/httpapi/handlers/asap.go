package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jakejheack/hanapp/internal/asap"
	"github.com/jakejheack/hanapp/internal/common"
	"github.com/jakejheack/hanapp/internal/httpapi/middleware"
)

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

type createListingReq struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	Price               float64  `json:"price" binding:"required"`
	Latitude            *float64 `json:"latitude" binding:"required"`
	Longitude           *float64 `json:"longitude" binding:"required"`
	LocationAddress     string   `json:"location_address"`
	PreferredDoerGender string   `json:"preferred_doer_gender"`
}

func (h *Handler) CreateAsapListing(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	l := &asap.AsapListing{
		ListerID:            uid,
		Title:               req.Title,
		Description:         req.Description,
		Price:               req.Price,
		Latitude:            *req.Latitude,
		Longitude:           *req.Longitude,
		LocationAddress:     req.LocationAddress,
		PreferredDoerGender: req.PreferredDoerGender,
	}
	if err := h.Repo.CreateListing(c.Request.Context(), l); err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create listing")
		return
	}

	common.OK(c, l)
}

type searchDoersReq struct {
	ListingID           uint64   `json:"listing_id" binding:"required"`
	ListerLatitude      *float64 `json:"lister_latitude" binding:"required"`
	ListerLongitude     *float64 `json:"lister_longitude" binding:"required"`
	PreferredDoerGender string   `json:"preferred_doer_gender"`
	MaxDistance         float64  `json:"max_distance"`
}

func (h *Handler) SearchDoers(c *gin.Context) {
	if _, okk := userIDFromContext(c); !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req searchDoersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "listing_id, lister_latitude and lister_longitude required")
		return
	}

	doers, listing, err := h.Locator.FindCandidates(c.Request.Context(),
		req.ListingID, *req.ListerLatitude, *req.ListerLongitude,
		req.PreferredDoerGender, req.MaxDistance)
	if err != nil {
		if errors.Is(err, asap.ErrListingNotEligible) {
			common.Fail(c, http.StatusNotFound, 40410, "asap listing not found or not in pending status")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50010, "doer search failed")
		return
	}

	common.OK(c, gin.H{
		"doers":       doers,
		"total_count": len(doers),
		"listing": gin.H{
			"id":               listing.ID,
			"title":            listing.Title,
			"price":            listing.Price,
			"location_address": listing.LocationAddress,
		},
	})
}

type selectDoerReq struct {
	ListingID uint64 `json:"listing_id" binding:"required"`
	DoerID    uint64 `json:"doer_id" binding:"required"`
}

func (h *Handler) SelectDoer(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req selectDoerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "listing_id and doer_id required")
		return
	}

	res, err := h.Coordinator.SelectDoer(c.Request.Context(), req.ListingID, uid, req.DoerID)
	if err != nil {
		switch {
		case errors.Is(err, asap.ErrListingNotPending):
			common.Fail(c, http.StatusConflict, 40910, "asap listing is not pending")
		case errors.Is(err, asap.ErrDoerUnavailable):
			common.Fail(c, http.StatusNotFound, 40411, "doer not found or not available")
		case errors.Is(err, asap.ErrDuplicateApplication):
			common.Fail(c, http.StatusConflict, 40911, "doer has already applied to this listing")
		default:
			common.Fail(c, http.StatusInternalServerError, 50011, "doer selection failed")
		}
		return
	}

	common.OK(c, res)
}

type convertReq struct {
	ListingID uint64 `json:"listing_id" binding:"required"`
}

// ConvertToPublic is the lister-initiated conversion; it refuses
// listings that already attracted applications.
func (h *Handler) ConvertToPublic(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req convertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "listing_id required")
		return
	}

	newID, err := h.Sweeper.ConvertNow(c.Request.Context(), req.ListingID, uid)
	if err != nil {
		switch {
		case errors.Is(err, asap.ErrListingNotEligible), errors.Is(err, asap.ErrListingNotPending):
			common.Fail(c, http.StatusNotFound, 40410, "asap listing not found or not in pending status")
		case errors.Is(err, asap.ErrHasApplications):
			common.Fail(c, http.StatusConflict, 40912, "cannot convert to public: doers have already applied")
		default:
			common.Fail(c, http.StatusInternalServerError, 50012, "conversion failed")
		}
		return
	}

	common.OK(c, gin.H{
		"new_public_listing_id":    newID,
		"original_asap_listing_id": req.ListingID,
	})
}

// ListingStatus reports where a listing sits in its lifecycle, with the
// display-only "eligible soon" hint the app shows before the real window.
func (h *Handler) ListingStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid listing id")
		return
	}

	l, err := h.Repo.GetListing(c.Request.Context(), id)
	if err != nil {
		if asap.IsNotFound(err) {
			common.Fail(c, http.StatusNotFound, 40412, "listing not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50013, "db error")
		return
	}

	age := time.Since(l.CreatedAt)
	hint := "NOT_ELIGIBLE_YET"
	if l.Status == asap.StatusPending && age >= h.Cfg.EligibleHint {
		hint = "ELIGIBLE_FOR_CONVERSION"
	}

	common.OK(c, gin.H{
		"id":                l.ID,
		"status":            l.Status,
		"is_active":         l.IsActive,
		"created_at":        l.CreatedAt,
		"minutes_old":       int(age.Minutes()),
		"conversion_status": hint,
	})
}

// TriggerSweep runs one sweep on demand, same code path as the
// background sweeper.
func (h *Handler) TriggerSweep(c *gin.Context) {
	res := h.Sweeper.Sweep(c.Request.Context(), time.Now())
	common.OK(c, res)
}
