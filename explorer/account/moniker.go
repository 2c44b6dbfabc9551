package account

import (
	"context"
	"fmt"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/patrickmn/go-cache"
)

// UnknownMoniker is shown for operator addresses missing from the snapshot.
const UnknownMoniker = "Unknown"

const snapshotKey = "validators"

// MonikerMap maps operator address to moniker.
type MonikerMap map[string]string

// Name returns the moniker of operator, or UnknownMoniker.
func (m MonikerMap) Name(operator string) string {
	if name, ok := m[operator]; ok && name != "" {
		return name
	}
	return UnknownMoniker
}

// snapshot is what the cache holds: the raw set and its moniker index.
type snapshot struct {
	validators []lcd.Validator
	monikers   MonikerMap
}

// MonikerLookup fetches the validator set and keeps it for ttl. A zero ttl
// disables caching.
type MonikerLookup struct {
	lcd   LCD
	ttl   time.Duration
	cache *cache.Cache
}

func NewMonikerLookup(client LCD, ttl time.Duration) *MonikerLookup {
	m := &MonikerLookup{lcd: client, ttl: ttl}
	if ttl > 0 {
		m.cache = cache.New(ttl, 2*ttl)
	}
	return m
}

// Snapshot returns the moniker map of every validator regardless of status.
func (m *MonikerLookup) Snapshot(ctx context.Context) (MonikerMap, error) {
	s, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.monikers, nil
}

// Validators returns the full validator set from the same snapshot.
func (m *MonikerLookup) Validators(ctx context.Context) ([]lcd.Validator, error) {
	s, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.validators, nil
}

func (m *MonikerLookup) load(ctx context.Context) (*snapshot, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(snapshotKey); ok {
			return v.(*snapshot), nil
		}
	}

	vals, err := m.lcd.Validators(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch validator set: %w", err)
	}
	s := &snapshot{validators: vals, monikers: make(MonikerMap, len(vals))}
	for _, v := range vals {
		s.monikers[v.OperatorAddress] = v.Description.Moniker
	}

	if m.cache != nil {
		m.cache.Set(snapshotKey, s, cache.DefaultExpiration)
	}
	log.Debug().Int("validators", len(vals)).Msg("Validator snapshot refreshed")
	return s, nil
}
