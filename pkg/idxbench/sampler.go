package idxbench

import (
	"math/rand"
	"time"
)

// Distribution parameters for the synthetic session workload. Owners are
// bimodal: a small hot range receives a disproportionate share of the
// probability mass, matching the skew of production session volume.
const (
	hotOwnerMin = 1
	hotOwnerMax = 100

	coldOwnerMin = 101
	coldOwnerMax = 1000

	// Probability that an owner is drawn from the hot range.
	hotOwnerProbability = 0.10

	// Probability that a session is active.
	activeProbability = 0.80

	// Probability that the primary expiry lands in the short window
	// (already expired or about to expire).
	shortExpiryProbability = 0.30
)

// Offset windows for the derived timestamps. Every timestamp is
// created_at plus a sampled offset; no record depends on another.
const (
	shortExpiryMin = -time.Hour
	shortExpiryMax = time.Hour

	longExpiryMin = time.Hour
	longExpiryMax = 30 * 24 * time.Hour

	secondaryExpiryMax = 60 * 24 * time.Hour

	createdLookback = 30 * 24 * time.Hour
)

// Sampler draws the per-field distributions for synthetic records. Each
// field uses an independent draw; the only intended correlations are the
// documented bimodal/mixture shapes.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a Sampler over the given source. A nil source gets a
// time-seeded one.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{rng: rng}
}

// OwnerID draws from the bimodal owner distribution: hotOwnerProbability
// mass uniform over [hotOwnerMin, hotOwnerMax], the rest uniform over
// [coldOwnerMin, coldOwnerMax].
func (s *Sampler) OwnerID() int {
	if s.rng.Float64() < hotOwnerProbability {
		return hotOwnerMin + s.rng.Intn(hotOwnerMax-hotOwnerMin+1)
	}
	return coldOwnerMin + s.rng.Intn(coldOwnerMax-coldOwnerMin+1)
}

// PrimaryExpiryOffset draws from the expiry mixture:
// shortExpiryProbability mass uniform over [shortExpiryMin,
// shortExpiryMax], the rest uniform over [longExpiryMin, longExpiryMax].
func (s *Sampler) PrimaryExpiryOffset() time.Duration {
	if s.rng.Float64() < shortExpiryProbability {
		return uniformDuration(s.rng, shortExpiryMin, shortExpiryMax)
	}
	return uniformDuration(s.rng, longExpiryMin, longExpiryMax)
}

// SecondaryExpiryOffset draws uniformly over [0, secondaryExpiryMax].
func (s *Sampler) SecondaryExpiryOffset() time.Duration {
	return uniformDuration(s.rng, 0, secondaryExpiryMax)
}

// Active draws the session flag, true with activeProbability.
func (s *Sampler) Active() bool {
	return s.rng.Float64() < activeProbability
}

// CreatedAt draws a creation timestamp uniformly within the lookback
// window ending at now.
func (s *Sampler) CreatedAt(now time.Time) time.Time {
	return now.Add(-uniformDuration(s.rng, 0, createdLookback))
}

// Record assembles one synthetic record at the given sequence position.
// Derived timestamps are created_at plus a sampled offset.
func (s *Sampler) Record(seq int, now time.Time) SessionRecord {
	createdAt := s.CreatedAt(now)
	salt := newTokenSalt()

	return SessionRecord{
		ID:              newRecordID(),
		OwnerID:         s.OwnerID(),
		PrimaryToken:    primaryToken(seq, salt),
		SecondaryToken:  secondaryToken(seq, salt),
		PrimaryExpiry:   createdAt.Add(s.PrimaryExpiryOffset()),
		SecondaryExpiry: createdAt.Add(s.SecondaryExpiryOffset()),
		IsActive:        s.Active(),
		CreatedAt:       createdAt,
	}
}

// uniformDuration draws uniformly over [min, max].
func uniformDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)+1))
}
