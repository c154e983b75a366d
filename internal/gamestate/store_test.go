package gamestate

import (
	"errors"
	"testing"
	"time"

	"familyquestboard/internal/model"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	data []byte
	fail bool
}

func (f *failingStorage) Load() ([]byte, error) { return f.data, nil }

func (f *failingStorage) Save(data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	f.data = data
	return nil
}

func TestStore_RoundTrip(t *testing.T) {
	storage := NewFileStorage(t.TempDir())

	store, err := NewStore(storage)
	require.NoError(t, err)

	kid := model.Character{ID: uuid.New(), Name: "Mira", IsKid: true}
	_, err = store.Dispatch(ActionAddCharacter{Character: kid})
	require.NoError(t, err)

	assigneeID := kid.ID
	today := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	state, err := store.Dispatch(ActionAddQuest{
		Quest: model.QuestDefinition{
			Title:               "water the plants",
			Kind:                model.QuestKindTraining,
			AssignedCharacterID: &assigneeID,
			GoldReward:          2,
			Active:              true,
			Recurrence:          model.Recurrence{Kind: model.RecurrenceDaily, TimesPerDay: 1},
		},
		Today: today,
	})
	require.NoError(t, err)
	require.Len(t, state.Occurrences, 8)

	_, err = store.Dispatch(ActionCompleteOccurrence{
		OccurrenceID: state.Occurrences[0].ID,
		CharacterID:  kid.ID,
		Now:          today.Add(9 * time.Hour),
	})
	require.NoError(t, err)

	// a second store over the same file sees the settled state
	reopened, err := NewStore(storage)
	require.NoError(t, err)

	loaded := reopened.State()
	assert.Len(t, loaded.Characters, 1)
	assert.Equal(t, 2, loaded.Characters[0].Gold)
	require.Len(t, loaded.Ledger, 1)
	assert.Equal(t, model.OccurrenceDone, loaded.Occurrences[0].Status)
	assert.Equal(t, 1, loaded.Quests[0].StreakCount)
}

func TestStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewStore(NewFileStorage(t.TempDir()))
	require.NoError(t, err)

	state := store.State()
	assert.Empty(t, state.Quests)
	assert.NotNil(t, state.Quests)
	assert.Empty(t, state.Characters)
}

func TestStore_DefaultsOlderBlobs(t *testing.T) {
	// a blob written before slots and statuses existed
	old := State{
		Quests: []model.QuestDefinition{
			{ID: uuid.New(), Title: "brush teeth", Recurrence: model.Recurrence{Kind: model.RecurrenceDaily}},
		},
		Occurrences: []model.Occurrence{
			{ID: uuid.New(), DueDate: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)},
		},
		Campaigns: []model.Campaign{{ID: uuid.New(), Title: "trek"}},
		Steps:     []model.CampaignStep{{ID: uuid.New(), Title: "step one"}},
	}
	data, err := json.Marshal(old)
	require.NoError(t, err)

	store, err := NewStore(&failingStorage{data: data})
	require.NoError(t, err)

	state := store.State()
	assert.Equal(t, 1, state.Quests[0].Recurrence.TimesPerDay)
	assert.Equal(t, model.OccurrenceAvailable, state.Occurrences[0].Status)
	assert.Equal(t, 1, state.Occurrences[0].Slot)
	assert.Equal(t, model.StepLocked, state.Steps[0].Status)
	assert.Equal(t, model.CampaignActive, state.Campaigns[0].Status)
	assert.NotNil(t, state.Ledger)
}

func TestStore_FailedSaveKeepsState(t *testing.T) {
	storage := &failingStorage{}
	store, err := NewStore(storage)
	require.NoError(t, err)

	kid := model.Character{ID: uuid.New(), Name: "Theo"}
	_, err = store.Dispatch(ActionAddCharacter{Character: kid})
	require.NoError(t, err)

	storage.fail = true
	_, err = store.Dispatch(ActionAddCharacter{Character: model.Character{ID: uuid.New(), Name: "Mira"}})
	require.Error(t, err)

	// the in-memory state did not advance past what is on disk
	assert.Len(t, store.State().Characters, 1)
}

func TestStore_RejectedActionDoesNotPersist(t *testing.T) {
	storage := &failingStorage{}
	store, err := NewStore(storage)
	require.NoError(t, err)

	kid := model.Character{ID: uuid.New(), Name: "Theo"}
	_, err = store.Dispatch(ActionAddCharacter{Character: kid})
	require.NoError(t, err)
	saved := string(storage.data)

	_, err = store.Dispatch(ActionPurchase{CharacterID: kid.ID, Cost: 100, Note: "pony", Now: time.Now()})
	assert.ErrorIs(t, err, ErrInsufficientGold)
	assert.Equal(t, saved, string(storage.data))
}
