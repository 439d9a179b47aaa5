package devbackend

import "sync"

// MemUserStore keeps users in memory. It is safe for concurrent use.
type MemUserStore struct {
	lock    sync.RWMutex
	entries map[UserID]*UserEntry
}

func (mus *MemUserStore) Get(user UserID) (*UserEntry, error) {
	mus.lock.RLock()
	defer mus.lock.RUnlock()
	if e, found := mus.entries[user]; found {
		return e, nil
	}
	return nil, ErrUserNotFound
}

func (mus *MemUserStore) Insert(entry *UserEntry) error {
	mus.lock.Lock()
	defer mus.lock.Unlock()
	if _, found := mus.entries[entry.User]; found {
		return ErrUserExists
	}
	mus.put(entry)
	return nil
}

func (mus *MemUserStore) Upsert(entry *UserEntry) error {
	mus.lock.Lock()
	defer mus.lock.Unlock()
	mus.put(entry)
	return nil
}

func (mus *MemUserStore) List() []*UserEntry {
	mus.lock.RLock()
	defer mus.lock.RUnlock()
	entries := make([]*UserEntry, 0, len(mus.entries))
	for _, e := range mus.entries {
		entries = append(entries, e)
	}
	return entries
}

func (mus *MemUserStore) put(entry *UserEntry) {
	if mus.entries == nil {
		mus.entries = map[UserID]*UserEntry{}
	}
	mus.entries[entry.User] = entry
}
