package questclient

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ascend/internal/model"

	bolt "go.etcd.io/bbolt"
)

var completedBucket = []byte("completed_quests")

// Store is the client-side quest/badge state: the last reconciled quest
// list, the badge list, and the banked-quest registry. Only the registry
// survives restarts; everything else is recomputable from the next push.
type Store struct {
	db *bolt.DB

	mu        sync.Mutex
	completed map[string]struct{}
	order     []string
	quests    []model.Quest
	badges    []model.Badge
}

// ReconcileResult is one reconciliation's outcome. NewlyCompleted carries
// every quest banked by this call, exactly once — the hook for one-time
// reward settlement.
type ReconcileResult struct {
	ToDisplay      []model.Quest
	NewlyCompleted []model.Quest
}

// OpenStore opens (or creates) the registry file and loads the banked ids.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(completedBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:        db,
		completed: make(map[string]struct{}),
	}

	type banked struct {
		id string
		at string
	}
	var loaded []banked
	if err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(completedBucket).ForEach(func(k, v []byte) error {
			loaded = append(loaded, banked{id: string(k), at: string(v)})
			return nil
		})
	}); err != nil {
		db.Close()
		return nil, err
	}

	// Keys come back in lexical order; restore banking order from the
	// stored timestamps.
	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].at < loaded[j].at })
	for _, b := range loaded {
		s.completed[b.id] = struct{}{}
		s.order = append(s.order, b.id)
	}

	return s, nil
}

// Reconcile folds the latest quest list into the store. Any quest arriving
// completed whose id is not yet banked is banked (persisted) and reported
// as newly completed; quests banked on an earlier call are dropped from the
// display list. Reconciling the same list twice banks nothing the second
// time.
func (s *Store) Reconcile(latest []model.Quest) (*ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &ReconcileResult{}
	newlyBanked := make(map[string]struct{})

	for _, q := range latest {
		if q.Status != model.QuestStatusCompleted {
			continue
		}
		if _, banked := s.completed[q.ID]; banked {
			continue
		}

		if err := s.bank(q.ID); err != nil {
			return nil, err
		}
		s.completed[q.ID] = struct{}{}
		s.order = append(s.order, q.ID)
		newlyBanked[q.ID] = struct{}{}
		result.NewlyCompleted = append(result.NewlyCompleted, q)
	}

	for _, q := range latest {
		_, banked := s.completed[q.ID]
		_, fresh := newlyBanked[q.ID]
		if banked && !fresh {
			continue
		}
		result.ToDisplay = append(result.ToDisplay, q)
	}

	s.quests = result.ToDisplay
	return result, nil
}

func (s *Store) bank(id string) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(completedBucket).Put([]byte(id), []byte(stamp))
	})
}

// CompletedIDs returns the banked quest ids in banking order.
func (s *Store) CompletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsCompleted reports whether a quest id has been banked.
func (s *Store) IsCompleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[id]
	return ok
}

// Quests returns the last reconciled display list.
func (s *Store) Quests() []model.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Quest, len(s.quests))
	copy(out, s.quests)
	return out
}

// SetBadges replaces the displayed badge list.
func (s *Store) SetBadges(badges []model.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = make([]model.Badge, len(badges))
	copy(s.badges, badges)
}

// Badges returns the displayed badge list.
func (s *Store) Badges() []model.Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Badge, len(s.badges))
	copy(out, s.badges)
	return out
}

func (s *Store) Close() error {
	return s.db.Close()
}
