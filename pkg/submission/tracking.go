package submission

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	jalaali "github.com/jalaali/go-jalaali"

	"github.com/mechanicalh600-lang/CheckList/models"
)

var (
	// ErrDuplicateTrackingCode is returned by header stores when the insert
	// hits the tracking_code uniqueness constraint.
	ErrDuplicateTrackingCode = errors.New("duplicate tracking code")
	// ErrAllocationExhausted means five allocation attempts all collided.
	ErrAllocationExhausted = errors.New("tracking code allocation exhausted after retries")
)

const (
	allocationAttempts = 5
	maxCollisionWait   = 500 * time.Millisecond
)

// HeaderStore persists inspection headers and answers the max-code query the
// allocator needs.
type HeaderStore interface {
	// MaxTrackingCode returns the lexicographically greatest tracking code
	// with the given prefix, or "" when none exists.
	MaxTrackingCode(ctx context.Context, prefix string) (string, error)
	// InsertHeader inserts the header row; a tracking-code collision is
	// reported as ErrDuplicateTrackingCode.
	InsertHeader(ctx context.Context, header *models.Inspection) error
}

// MonthPrefix builds the tracking-code prefix for t: the Jalali year without
// its millennium digit followed by the two-digit Jalali month (1404/11 →
// "40411").
func MonthPrefix(t time.Time) string {
	jy, jm, _, err := jalaali.ToJalaali(t.Year(), t.Month(), t.Day())
	if err != nil {
		// Should not happen for any reachable wall-clock date.
		jy, jm = 1400, 1
	}
	return fmt.Sprintf("%d%02d", jy%1000, int(jm))
}

// Allocator hands out globally unique, human-readable tracking codes. There
// is no central sequence: the allocator proposes max+1 for the current month
// prefix and relies on the store's uniqueness constraint to detect races,
// retrying with a short randomized backoff.
type Allocator struct {
	headers HeaderStore
	now     func() time.Time
	sleep   func(time.Duration)
}

func NewAllocator(headers HeaderStore) *Allocator {
	return &Allocator{headers: headers, now: time.Now, sleep: time.Sleep}
}

// Allocate proposes a code, stamps it on the header and inserts it. On a
// uniqueness conflict the whole allocation restarts from the max-code query,
// up to five attempts. Any other insert error is fatal.
func (a *Allocator) Allocate(ctx context.Context, header *models.Inspection) (string, error) {
	for attempt := 0; attempt < allocationAttempts; attempt++ {
		code, err := a.propose(ctx)
		if err != nil {
			return "", err
		}

		header.TrackingCode = code
		err = a.headers.InsertHeader(ctx, header)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrDuplicateTrackingCode) {
			return "", err
		}

		a.sleep(time.Duration(rand.Int63n(int64(maxCollisionWait))))
	}
	return "", ErrAllocationExhausted
}

func (a *Allocator) propose(ctx context.Context) (string, error) {
	prefix := MonthPrefix(a.now())
	max, err := a.headers.MaxTrackingCode(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("max tracking code query: %w", err)
	}

	next := 1
	if max != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(max, prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}
