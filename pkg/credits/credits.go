// Package credits meters enhancement usage against a rolling monthly quota.
//
// A user's balance resets lazily: nothing runs at the period boundary, the
// first read after PeriodEnd has passed rewrites the balance to the monthly
// allocation. Deductions are keyed by job id and idempotent, so a completed
// job that gets polled more than once is charged exactly once.
//
// Store implementations must serialize updates per user; two concurrent job
// completions for the same user must not double-count a period reset or a
// deduction. The memory backend does this with a per-user mutex, the redis
// backend with an optimistic WATCH transaction.
package credits

import (
	"context"
	"time"

	"github.com/jackhunterking/beautycanvas/pkg/errors"
)

// Balance is a user's credit quota standing.
type Balance struct {
	CreditsRemaining      int       `json:"creditsRemaining"`
	CreditsUsedThisPeriod int       `json:"creditsUsedThisPeriod"`
	MonthlyAllocation     int       `json:"monthlyAllocation"`
	PeriodEnd             time.Time `json:"periodEnd"`
}

// Account is the stored per-user credit state: the balance plus the set of
// job ids already charged, which makes deduction idempotent.
type Account struct {
	Balance     Balance         `json:"balance"`
	ChargedJobs map[string]bool `json:"chargedJobs,omitempty"`
}

// Store persists credit accounts. Update must apply fn atomically with
// respect to other updates for the same user.
type Store interface {
	// Update atomically reads the user's account, applies fn, and persists
	// the result. A missing account is presented to fn as a zero Account.
	Update(ctx context.Context, userID string, fn func(*Account) error) (*Account, error)

	// Get reads the user's account without modifying it.
	// Returns a zero Account when the user has none yet.
	Get(ctx context.Context, userID string) (*Account, error)
}

// Ledger exposes the credit operations the enhancement service uses. The
// clock is injectable for tests.
type Ledger struct {
	store      Store
	allocation int
	now        func() time.Time
}

// NewLedger creates a ledger over a store. allocation is the monthly credit
// grant applied on every period reset and to first-seen users.
func NewLedger(store Store, allocation int) *Ledger {
	return &Ledger{store: store, allocation: allocation, now: time.Now}
}

// SetClock overrides the ledger's time source. Intended for tests.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// reset applies the lazy period reset when due. It returns true if the
// balance was rewritten.
func (l *Ledger) reset(acct *Account) bool {
	now := l.now()
	b := &acct.Balance

	if b.MonthlyAllocation == 0 {
		// First sight of this user: grant a full period.
		b.MonthlyAllocation = l.allocation
		b.CreditsRemaining = l.allocation
		b.CreditsUsedThisPeriod = 0
		b.PeriodEnd = now.AddDate(0, 1, 0)
		return true
	}

	if now.Before(b.PeriodEnd) {
		return false
	}

	b.CreditsRemaining = b.MonthlyAllocation
	b.CreditsUsedThisPeriod = 0
	for !b.PeriodEnd.After(now) {
		b.PeriodEnd = b.PeriodEnd.AddDate(0, 1, 0)
	}
	return true
}

// Balance returns the user's current balance, applying the lazy period reset
// first when due. The reset is persisted.
func (l *Ledger) Balance(ctx context.Context, userID string) (Balance, error) {
	acct, err := l.store.Update(ctx, userID, func(a *Account) error {
		l.reset(a)
		return nil
	})
	if err != nil {
		return Balance{}, err
	}
	return acct.Balance, nil
}

// Check verifies the user can afford cost credits. It applies the lazy reset
// and returns an INSUFFICIENT_CREDITS error when the balance falls short.
func (l *Ledger) Check(ctx context.Context, userID string, cost int) error {
	b, err := l.Balance(ctx, userID)
	if err != nil {
		return err
	}
	if b.CreditsRemaining < cost {
		return errors.New(errors.ErrCodeInsufficientCredits,
			"%d credits required, %d remaining", cost, b.CreditsRemaining)
	}
	return nil
}

// Deduct charges cost credits for a completed job. The charge is idempotent
// per job id: a second call for the same job returns the current balance
// without charging again. The balance may go negative when a job completes
// after the quota was exhausted by concurrent jobs; the remote work already
// happened and is always recorded.
func (l *Ledger) Deduct(ctx context.Context, userID, jobID string, cost int) (Balance, error) {
	acct, err := l.store.Update(ctx, userID, func(a *Account) error {
		l.reset(a)
		if a.ChargedJobs[jobID] {
			return nil
		}
		if a.ChargedJobs == nil {
			a.ChargedJobs = make(map[string]bool)
		}
		a.ChargedJobs[jobID] = true
		a.Balance.CreditsRemaining -= cost
		a.Balance.CreditsUsedThisPeriod += cost
		return nil
	})
	if err != nil {
		return Balance{}, err
	}
	return acct.Balance, nil
}
