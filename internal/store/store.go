package store

import (
	"context"
	"errors"
	"time"

	"github.com/nightdesk/backend/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("call state version conflict")
)

// StateStore persists one conversation state per call.
//
// SaveState is an optimistic read-modify-write: state.Version must equal the
// stored version (0 for a call never saved). On success the stored version is
// incremented and written back into state.
type StateStore interface {
	LoadState(ctx context.Context, callID string) (*models.CallConversationState, error)
	SaveState(ctx context.Context, state *models.CallConversationState) error
}

// CaseLog records finalized cases, one per call. RecordCase reports false
// when the call already has a case, unless the new case supersedes it.
type CaseLog interface {
	RecordCase(ctx context.Context, c models.CaseSummary) (bool, error)
	GetCase(ctx context.Context, callID string) (*models.CaseSummary, error)
	ListCases(ctx context.Context, limit int) ([]models.CaseSummary, error)
}

// Ledger remembers which notifications were already sent. MarkDispatched
// reports true only for the first caller with a given key.
type Ledger interface {
	MarkDispatched(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Supersedes reports whether next may replace the case already recorded for
// the same call. A call that escalates to an emergency after a routine or
// uncertain case was written gets its emergency case; nothing replaces an
// emergency.
func Supersedes(existing, next models.CaseSummary) bool {
	return next.Classification == models.TierEmergency && existing.Classification != models.TierEmergency
}

type Backend interface {
	StateStore
	CaseLog
	Ledger
	Ping(ctx context.Context) error
	Close()
}
