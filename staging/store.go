package staging

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TTL is how long a staged record stays loadable. Anything older is treated
// as abandoned and deleted on the next load.
const TTL = 7 * 24 * time.Hour

// DebounceDelay coalesces rapid form edits into a single persisted write.
const DebounceDelay = 500 * time.Millisecond

const (
	infoFile      = "pending_info.json"
	photosFile    = "pending_photos.json"
	interviewFile = "pending_interview.json"
	pointerFile   = "current_submission.json"
)

// Store persists not-yet-synced step data on the device, one record per
// kind, last write wins. Only one submission flow is tracked at a time: a
// second concurrent draft on the same device overwrites the first's staged
// data. That is a known limitation, not an accident.
type Store struct {
	dir string

	mu      sync.Mutex
	pending map[string][]byte
	timers  map[string]*time.Timer

	// Now is swappable so tests can age records without sleeping.
	Now func() time.Time
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		dir:     dir,
		pending: make(map[string][]byte),
		timers:  make(map[string]*time.Timer),
		Now:     time.Now,
	}, nil
}

func (s *Store) StageInfo(form InfoForm) error {
	return s.stage(infoFile, StagedInfo{Form: form, Timestamp: s.Now()})
}

func (s *Store) StagePhotos(localPaths, alreadyUploadedKeys []string) error {
	return s.stage(photosFile, StagedPhotos{
		LocalPaths:          localPaths,
		AlreadyUploadedKeys: alreadyUploadedKeys,
		Timestamp:           s.Now(),
	})
}

func (s *Store) StageInterview(path string, parallelAudioPath *string, kind string) error {
	return s.stage(interviewFile, StagedInterview{
		Path:              path,
		ParallelAudioPath: parallelAudioPath,
		Kind:              kind,
		Timestamp:         s.Now(),
	})
}

// stage serializes the record immediately but delays the disk write so a
// burst of edits costs one write.
func (s *Store) stage(file string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[file] = raw
	if t, ok := s.timers[file]; ok {
		t.Stop()
	}
	s.timers[file] = time.AfterFunc(DebounceDelay, func() {
		if err := s.flushFile(file); err != nil {
			log.Printf("🔥 Failed to persist staged record %s: %v", file, err)
		}
	})
	return nil
}

func (s *Store) flushFile(file string) error {
	s.mu.Lock()
	raw, ok := s.pending[file]
	if ok {
		delete(s.pending, file)
	}
	if t, tok := s.timers[file]; tok {
		t.Stop()
		delete(s.timers, file)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return os.WriteFile(filepath.Join(s.dir, file), raw, 0o644)
}

// Flush forces all debounced writes to disk, for shutdown and for the sync
// reconciler before it reads.
func (s *Store) Flush() error {
	s.mu.Lock()
	files := make([]string, 0, len(s.pending))
	for f := range s.pending {
		files = append(files, f)
	}
	s.mu.Unlock()

	for _, f := range files {
		if err := s.flushFile(f); err != nil {
			return err
		}
	}
	return nil
}

// load reads a staged record, deleting and discarding it when expired.
// Returns false when there is nothing (valid) staged.
func (s *Store) load(file string, out interface{}, stagedAt func() time.Time) (bool, error) {
	// An unflushed in-memory write is the freshest version.
	s.mu.Lock()
	raw, pending := s.pending[file]
	s.mu.Unlock()

	if !pending {
		var err error
		raw, err = os.ReadFile(filepath.Join(s.dir, file))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt record is unrecoverable; drop it rather than wedge
		// every future sync pass on it.
		log.Printf("⚠️ Dropping corrupt staged record %s: %v", file, err)
		s.remove(file)
		return false, nil
	}

	if s.Now().Sub(stagedAt()) > TTL {
		s.remove(file)
		return false, nil
	}
	return true, nil
}

func (s *Store) LoadInfo() (*StagedInfo, error) {
	var rec StagedInfo
	ok, err := s.load(infoFile, &rec, func() time.Time { return rec.Timestamp })
	if !ok || err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) LoadPhotos() (*StagedPhotos, error) {
	var rec StagedPhotos
	ok, err := s.load(photosFile, &rec, func() time.Time { return rec.Timestamp })
	if !ok || err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) LoadInterview() (*StagedInterview, error) {
	var rec StagedInterview
	ok, err := s.load(interviewFile, &rec, func() time.Time { return rec.Timestamp })
	if !ok || err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ClearInfo() error      { return s.remove(infoFile) }
func (s *Store) ClearPhotos() error    { return s.remove(photosFile) }
func (s *Store) ClearInterview() error { return s.remove(interviewFile) }

func (s *Store) remove(file string) error {
	s.mu.Lock()
	delete(s.pending, file)
	if t, ok := s.timers[file]; ok {
		t.Stop()
		delete(s.timers, file)
	}
	s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, file))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Pointer returns the current-submission pointer. A missing or unreadable
// pointer file means no active draft.
func (s *Store) Pointer() DraftPointer {
	raw, err := os.ReadFile(filepath.Join(s.dir, pointerFile))
	if err != nil {
		return DraftPointer{State: NoActiveDraft}
	}
	var p DraftPointer
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Printf("⚠️ Dropping corrupt submission pointer: %v", err)
		os.Remove(filepath.Join(s.dir, pointerFile))
		return DraftPointer{State: NoActiveDraft}
	}
	return p
}

// SetPointer writes through immediately; the pointer is too important to
// lose to a debounce window.
func (s *Store) SetPointer(p DraftPointer) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, pointerFile), raw, 0o644)
}

func (s *Store) ClearPointer() error {
	err := os.Remove(filepath.Join(s.dir, pointerFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
