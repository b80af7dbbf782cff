package asap

import "errors"

// Domain failures callers are expected to branch on. Everything else
// that bubbles out of the store is a transient error and safe to retry:
// the preconditions reject replays deterministically.
var (
	ErrListingNotEligible   = errors.New("asap listing not found or not in pending status")
	ErrListingNotPending    = errors.New("asap listing is not pending")
	ErrDoerUnavailable      = errors.New("doer not found or not available")
	ErrDuplicateApplication = errors.New("doer has already applied to this listing")
	ErrHasApplications      = errors.New("listing already has applications")
)
