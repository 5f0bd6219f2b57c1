package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Keys used by LedgerStore.
var (
	stateKey = []byte("ledger/state")
	metaKey  = []byte("ledger/meta")
)

// SaveInfo describes a persisted state document.
type SaveInfo struct {
	Fingerprint string    `json:"fingerprint"`
	Size        int       `json:"size"`
	SavedAt     time.Time `json:"saved_at"`
}

// LedgerStore persists the whole ledger as one document in a KVEngine.
type LedgerStore struct {
	kv KVEngine
}

// NewLedgerStore creates a store on top of kv.
func NewLedgerStore(kv KVEngine) *LedgerStore {
	return &LedgerStore{kv: kv}
}

// Save writes s and its metadata in one transaction.
func (s *LedgerStore) Save(ctx context.Context, state LedgerState) (SaveInfo, error) {
	data, err := EncodeState(state)
	if err != nil {
		return SaveInfo{}, err
	}
	info := SaveInfo{
		Fingerprint: Fingerprint(data),
		Size:        len(data),
		SavedAt:     time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("storage: encode meta: %w", err)
	}

	if err := s.kv.SetMany(ctx, map[string][]byte{
		string(stateKey): data,
		string(metaKey):  meta,
	}); err != nil {
		return SaveInfo{}, fmt.Errorf("storage: save state: %w", err)
	}
	return info, nil
}

// Load reads the saved state. It returns ErrNoState if nothing was saved.
func (s *LedgerStore) Load(ctx context.Context) (LedgerState, SaveInfo, error) {
	data, err := s.kv.Get(ctx, stateKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return LedgerState{}, SaveInfo{}, ErrNoState
		}
		return LedgerState{}, SaveInfo{}, fmt.Errorf("storage: load state: %w", err)
	}
	state, err := DecodeState(data)
	if err != nil {
		return LedgerState{}, SaveInfo{}, err
	}

	info, err := s.Info(ctx)
	if err != nil && !errors.Is(err, ErrNoState) {
		return LedgerState{}, SaveInfo{}, err
	}
	fp := Fingerprint(data)
	if info.Fingerprint != "" && info.Fingerprint != fp {
		return LedgerState{}, SaveInfo{}, fmt.Errorf("storage: state fingerprint %s does not match meta %s", fp, info.Fingerprint)
	}
	info.Fingerprint = fp
	info.Size = len(data)
	return state, info, nil
}

// LoadRaw returns the encoded state document as stored.
func (s *LedgerStore) LoadRaw(ctx context.Context) ([]byte, error) {
	data, err := s.kv.Get(ctx, stateKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNoState
	}
	return data, err
}

// Info returns metadata of the last save.
func (s *LedgerStore) Info(ctx context.Context) (SaveInfo, error) {
	raw, err := s.kv.Get(ctx, metaKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return SaveInfo{}, ErrNoState
		}
		return SaveInfo{}, err
	}
	var info SaveInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return SaveInfo{}, fmt.Errorf("storage: decode meta: %w", err)
	}
	return info, nil
}
