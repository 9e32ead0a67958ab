package track

import "sync"

// Store holds the current frame's tracked entities and the continuation
// requests seeded by the last detection pass. It is mutated only by the
// detection scheduler; observers read copies via Snapshot.
//
// Collections are replaced wholesale on each applied pass: an entity not
// re-observed within one pass is dropped. There is no debounced removal.
type Store struct {
	mu sync.RWMutex

	// epoch increments on every Forget. A pass records the epoch at its
	// start and its result is discarded if the epoch moved, so results
	// bound to a torn-down session never land.
	epoch uint64

	faces   []Face
	codes   []Code
	regions map[string]Region

	continuations []Continuation
}

// Snapshot is a copy of the store's current entities, safe to hand to
// observers.
type Snapshot struct {
	Faces   []Face
	Codes   []Code
	Regions []Region
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		regions: make(map[string]Region),
	}
}

// Epoch returns the current forget epoch. Passes record it before running
// and pass it back to Apply.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Forget clears all tracked entities and outstanding continuation
// requests, and invalidates any in-flight pass by bumping the epoch.
// Called on session deactivation and on camera mode changes.
func (s *Store) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.faces = nil
	s.codes = nil
	s.regions = make(map[string]Region)
	s.continuations = nil
}

// Apply replaces the store's entities with one pass's results, computing
// each entity's IsNew flag against the prior frame. Returns false and
// leaves the store untouched when the pass's epoch is stale.
func (s *Store) Apply(epoch uint64, faces []Face, codes []Code, regions []Region) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}

	for i := range faces {
		faces[i].IsNew = !s.hasFace(faces[i])
	}
	for i := range codes {
		codes[i].IsNew = !s.hasCode(codes[i])
	}

	next := make(map[string]Region, len(regions))
	for _, r := range regions {
		_, seen := s.regions[r.ID]
		r.IsNew = !seen
		next[r.ID] = r
	}

	s.faces = faces
	s.codes = codes
	s.regions = next
	return true
}

// SetContinuations replaces the continuation requests seeded for the next
// tracking pass. Returns false when the epoch is stale.
func (s *Store) SetContinuations(epoch uint64, reqs []Continuation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}
	s.continuations = reqs
	return true
}

// Continuations returns a copy of the outstanding continuation requests.
func (s *Store) Continuations() []Continuation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Continuation, len(s.continuations))
	copy(out, s.continuations)
	return out
}

// Snapshot returns a copy of the current entities for observers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Faces:   make([]Face, len(s.faces)),
		Codes:   make([]Code, len(s.codes)),
		Regions: make([]Region, 0, len(s.regions)),
	}
	copy(snap.Faces, s.faces)
	copy(snap.Codes, s.codes)
	for _, r := range s.regions {
		snap.Regions = append(snap.Regions, r)
	}
	return snap
}

// Empty reports whether the store holds no entities.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.faces) == 0 && len(s.codes) == 0 && len(s.regions) == 0
}

func (s *Store) hasFace(f Face) bool {
	for _, prev := range s.faces {
		if prev.Same(f) {
			return true
		}
	}
	return false
}

func (s *Store) hasCode(c Code) bool {
	for _, prev := range s.codes {
		if prev.Same(c) {
			return true
		}
	}
	return false
}
