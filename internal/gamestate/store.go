package gamestate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"familyquestboard/internal/model"

	"github.com/goccy/go-json"
)

// StorageKey names the persisted blob. Bump the suffix on breaking layout
// changes.
const StorageKey = "familyquestboard.state.v1"

// Storage is the persistence port for the local topology. The whole entity
// graph is written back after every mutation.
type Storage interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

type FileStorage struct {
	path string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{
		path: filepath.Join(dir, StorageKey+".json"),
	}
}

func (f *FileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (f *FileStorage) Save(data []byte) error {
	return os.WriteFile(f.path, data, 0o644)
}

// Store is the single-writer state container. The UI dispatches actions one
// at a time; the mutex only guards against accidental concurrent use.
type Store struct {
	mu      sync.Mutex
	state   State
	storage Storage
}

// NewStore loads the persisted state (starting empty when there is none) and
// applies per-field defaults so blobs written by older versions keep
// working.
func NewStore(storage Storage) (*Store, error) {
	s := &Store{storage: storage}

	data, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.state); err != nil {
			return nil, fmt.Errorf("failed to decode state: %w", err)
		}
	}
	applyDefaults(&s.state)

	return s, nil
}

// State returns a defensive copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch reduces one action and persists the result. The state is only
// replaced after the write succeeds, so a failed save never leaves memory
// and disk disagreeing about a settled reward.
func (s *Store) Dispatch(action Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, action)
	if err != nil {
		return s.state.clone(), err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return s.state.clone(), fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.storage.Save(data); err != nil {
		return s.state.clone(), fmt.Errorf("failed to persist state: %w", err)
	}

	s.state = next
	return next.clone(), nil
}

func applyDefaults(s *State) {
	if s.Quests == nil {
		s.Quests = []model.QuestDefinition{}
	}
	if s.Occurrences == nil {
		s.Occurrences = []model.Occurrence{}
	}
	if s.Characters == nil {
		s.Characters = []model.Character{}
	}
	if s.Ledger == nil {
		s.Ledger = []model.LedgerEntry{}
	}
	if s.Campaigns == nil {
		s.Campaigns = []model.Campaign{}
	}
	if s.Steps == nil {
		s.Steps = []model.CampaignStep{}
	}

	for i := range s.Quests {
		if s.Quests[i].Recurrence.TimesPerDay < 1 {
			s.Quests[i].Recurrence.TimesPerDay = 1
		}
		if s.Quests[i].Recurrence.Kind == "" {
			s.Quests[i].Recurrence.Kind = model.RecurrenceNone
		}
	}
	for i := range s.Occurrences {
		if s.Occurrences[i].Status == "" {
			s.Occurrences[i].Status = model.OccurrenceAvailable
		}
		if s.Occurrences[i].Slot < 1 {
			s.Occurrences[i].Slot = 1
		}
	}
	for i := range s.Steps {
		if s.Steps[i].Status == "" {
			s.Steps[i].Status = model.StepLocked
		}
	}
	for i := range s.Campaigns {
		if s.Campaigns[i].Status == "" {
			s.Campaigns[i].Status = model.CampaignActive
		}
	}
}
