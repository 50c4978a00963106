// Package localstore is the device-local persistence layer: named JSON slots
// on disk, one file per slot. Last write wins and there is no cross-process
// locking, so two gateway processes pointed at the same data directory can
// overwrite each other silently. That is an accepted gap, same as two browser
// tabs sharing a cart.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Slot names. Keep these stable: they are on-disk file names.
const (
	SlotCurrentUser   = "currentUser"
	SlotCart          = "cart"
	SlotAdminLoggedIn = "adminLoggedIn"
	SlotAdminUser     = "adminUser"
	SlotUsers         = "users"
	SlotOrders        = "orders"
	SlotBuyNow        = "buyNowItem"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("localstore: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: creating %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Get unmarshals the slot into v and reports whether a usable value was
// present. A missing file and malformed content both read as absent; the
// caller never sees a parse failure.
func (s *Store) Get(slot string, v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(slot))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	return true
}

// Put persists v into the slot, replacing whatever was there.
func (s *Store) Put(slot string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encoding slot %s: %w", slot, err)
	}
	// Write-then-rename so a crash mid-write leaves the old value readable.
	tmp := s.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("localstore: writing slot %s: %w", slot, err)
	}
	if err := os.Rename(tmp, s.path(slot)); err != nil {
		return fmt.Errorf("localstore: replacing slot %s: %w", slot, err)
	}
	return nil
}

// Delete removes the slot. Deleting an absent slot is not an error.
func (s *Store) Delete(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(slot))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("localstore: removing slot %s: %w", slot, err)
	}
	return nil
}

func (s *Store) path(slot string) string {
	return filepath.Join(s.dir, slot+".json")
}
