package gamestate

import (
	"testing"
	"time"

	"familyquestboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseState() (State, model.Character, model.QuestDefinition) {
	kid := model.Character{
		ID:    uuid.New(),
		Name:  "Mira",
		Role:  "ranger",
		IsKid: true,
	}
	kidID := kid.ID

	quest := model.QuestDefinition{
		ID:                  uuid.New(),
		Title:               "feed the cat",
		Kind:                model.QuestKindTraining,
		AssignedCharacterID: &kidID,
		XPReward:            10,
		GoldReward:          2,
		Active:              true,
		Recurrence:          model.Recurrence{Kind: model.RecurrenceDaily, TimesPerDay: 1},
	}

	state := State{
		Quests:     []model.QuestDefinition{quest},
		Characters: []model.Character{kid},
	}
	return state, kid, quest
}

func TestReduce_CompleteOccurrence(t *testing.T) {
	state, kid, quest := baseState()
	today := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	state, err := Reduce(state, ActionRefresh{Today: today})
	require.NoError(t, err)
	require.Len(t, state.Occurrences, 8)

	now := today.Add(8 * time.Hour)
	state, err = Reduce(state, ActionCompleteOccurrence{
		OccurrenceID: state.Occurrences[0].ID,
		CharacterID:  kid.ID,
		Now:          now,
	})
	require.NoError(t, err)

	assert.Equal(t, model.OccurrenceDone, state.Occurrences[0].Status)
	require.Len(t, state.Ledger, 1)
	assert.Equal(t, 10, state.Ledger[0].XP)
	assert.Equal(t, 2, state.Ledger[0].Gold)
	assert.Equal(t, model.LedgerSourceQuest, state.Ledger[0].Source)
	assert.Equal(t, 2, state.Characters[0].Gold)
	assert.Equal(t, 1, state.Quests[0].StreakCount)
	assert.Equal(t, kid.ID, state.Ledger[0].CharacterID)
	assert.Equal(t, quest.ID, state.Occurrences[0].QuestID)
}

func TestReduce_CompleteOccurrence_AtMostOnce(t *testing.T) {
	state, kid, _ := baseState()
	today := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	state, err := Reduce(state, ActionRefresh{Today: today})
	require.NoError(t, err)

	action := ActionCompleteOccurrence{
		OccurrenceID: state.Occurrences[0].ID,
		CharacterID:  kid.ID,
		Now:          today.Add(8 * time.Hour),
	}

	state, err = Reduce(state, action)
	require.NoError(t, err)

	// second completion is a no-op, not an error
	again, err := Reduce(state, action)
	require.NoError(t, err)

	assert.Len(t, again.Ledger, 1)
	assert.Equal(t, 2, again.Characters[0].Gold)
	assert.Equal(t, 1, again.Quests[0].StreakCount)
}

func TestReduce_UnknownOccurrenceIsNoOp(t *testing.T) {
	state, kid, _ := baseState()

	next, err := Reduce(state, ActionCompleteOccurrence{
		OccurrenceID: uuid.New(),
		CharacterID:  kid.ID,
		Now:          time.Now(),
	})

	require.NoError(t, err)
	assert.Empty(t, next.Ledger)
}

func TestReduce_GoldConservation(t *testing.T) {
	state, kid, _ := baseState()
	today := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	state, err := Reduce(state, ActionRefresh{Today: today})
	require.NoError(t, err)

	// complete three days, grant a bonus, then buy something
	for i := 0; i < 3; i++ {
		state, err = Reduce(state, ActionCompleteOccurrence{
			OccurrenceID: state.Occurrences[i].ID,
			CharacterID:  kid.ID,
			Now:          today.AddDate(0, 0, i).Add(8 * time.Hour),
		})
		require.NoError(t, err)
	}

	state, err = Reduce(state, ActionGrant{CharacterID: kid.ID, XP: 5, Gold: 10, Note: "bonus", Now: today})
	require.NoError(t, err)

	state, err = Reduce(state, ActionPurchase{CharacterID: kid.ID, Cost: 7, Note: "sticker pack", Now: today})
	require.NoError(t, err)

	sum := 0
	for _, entry := range state.Ledger {
		if entry.CharacterID == kid.ID {
			sum += entry.Gold
		}
	}
	assert.Equal(t, sum, state.Characters[0].Gold)
	assert.Equal(t, 9, state.Characters[0].Gold) // 3*2 + 10 - 7
}

func TestReduce_PurchaseInsufficientGold(t *testing.T) {
	state, kid, _ := baseState()
	state.Characters[0].Gold = 15

	next, err := Reduce(state, ActionPurchase{
		CharacterID: kid.ID,
		Cost:        20,
		Note:        "model castle",
		Now:         time.Now(),
	})

	assert.ErrorIs(t, err, ErrInsufficientGold)
	assert.Equal(t, 15, next.Characters[0].Gold)
	assert.Empty(t, next.Ledger)
}

func campaignState() (State, model.Character) {
	kid := model.Character{ID: uuid.New(), Name: "Theo", IsKid: true}
	campaign := model.Campaign{ID: uuid.New(), Title: "the long trek", Status: model.CampaignActive}

	steps := []model.CampaignStep{
		{ID: uuid.New(), CampaignID: campaign.ID, Title: "find the map", StepOrder: 1, AssigneeID: kid.ID, XPReward: 10, GoldReward: 3, Status: model.StepAvailable},
		{ID: uuid.New(), CampaignID: campaign.ID, Title: "cross the river", StepOrder: 2, AssigneeID: kid.ID, XPReward: 10, GoldReward: 3, Status: model.StepLocked},
		{ID: uuid.New(), CampaignID: campaign.ID, Title: "slay the dragon", StepOrder: 3, AssigneeID: kid.ID, XPReward: 20, GoldReward: 10, Status: model.StepLocked},
	}

	return State{
		Characters: []model.Character{kid},
		Campaigns:  []model.Campaign{campaign},
		Steps:      steps,
	}, kid
}

func TestReduce_AddCampaign(t *testing.T) {
	kid := model.Character{ID: uuid.New(), Name: "Theo", IsKid: true}
	state := State{Characters: []model.Character{kid}}

	next, err := Reduce(state, ActionAddCampaign{
		Campaign: model.Campaign{Title: "the long trek"},
		Steps: []model.CampaignStep{
			{Title: "find the map", AssigneeID: kid.ID, GoldReward: 3},
			{Title: "cross the river", AssigneeID: kid.ID, GoldReward: 3},
		},
	})
	require.NoError(t, err)

	require.Len(t, next.Campaigns, 1)
	assert.Equal(t, model.CampaignActive, next.Campaigns[0].Status)
	require.Len(t, next.Steps, 2)
	assert.Equal(t, 1, next.Steps[0].StepOrder)
	assert.Equal(t, model.StepAvailable, next.Steps[0].Status)
	assert.Equal(t, 2, next.Steps[1].StepOrder)
	assert.Equal(t, model.StepLocked, next.Steps[1].Status)
	assert.Equal(t, next.Campaigns[0].ID, next.Steps[0].CampaignID)

	_, err = Reduce(state, ActionAddCampaign{Campaign: model.Campaign{Title: "empty"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Reduce(state, ActionAddCampaign{
		Campaign: model.Campaign{Title: "no assignee"},
		Steps:    []model.CampaignStep{{Title: "orphan step"}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReduce_CampaignChain(t *testing.T) {
	state, _ := campaignState()
	now := time.Now().UTC()

	// step 1: step 2 unlocks, step 3 stays locked, campaign stays active
	state, err := Reduce(state, ActionCompleteStep{StepID: state.Steps[0].ID, Now: now})
	require.NoError(t, err)
	assert.Equal(t, model.StepDone, state.Steps[0].Status)
	assert.Equal(t, model.StepAvailable, state.Steps[1].Status)
	assert.Equal(t, model.StepLocked, state.Steps[2].Status)
	assert.Equal(t, model.CampaignActive, state.Campaigns[0].Status)

	// completing a locked step fails without state change
	_, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[2].ID, Now: now})
	assert.ErrorIs(t, err, ErrStepLocked)

	// finish the chain: campaign completes
	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[1].ID, Now: now})
	require.NoError(t, err)
	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[2].ID, Now: now})
	require.NoError(t, err)

	assert.Equal(t, model.CampaignComplete, state.Campaigns[0].Status)
	assert.Len(t, state.Ledger, 3)
	assert.Equal(t, 16, state.Characters[0].Gold)
}

func TestReduce_CampaignInvariant_AtMostOneAvailable(t *testing.T) {
	state, _ := campaignState()
	now := time.Now().UTC()

	checkInvariant := func(s State) {
		available := 0
		for _, step := range s.Steps {
			if step.Status == model.StepAvailable {
				available++
			}
		}
		assert.LessOrEqual(t, available, 1)
	}

	checkInvariant(state)

	var err error
	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[0].ID, Now: now})
	require.NoError(t, err)
	checkInvariant(state)

	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[1].ID, Now: now})
	require.NoError(t, err)
	checkInvariant(state)

	state, err = Reduce(state, ActionUndoStep{StepID: state.Steps[0].ID})
	require.NoError(t, err)
	checkInvariant(state)
}

func TestReduce_UndoStep(t *testing.T) {
	state, kid := campaignState()
	now := time.Now().UTC()

	var err error
	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[0].ID, Now: now})
	require.NoError(t, err)
	require.Equal(t, 3, state.Characters[0].Gold)

	state, err = Reduce(state, ActionUndoStep{StepID: state.Steps[0].ID})
	require.NoError(t, err)

	assert.Equal(t, model.StepAvailable, state.Steps[0].Status)
	assert.Equal(t, model.StepLocked, state.Steps[1].Status, "unlocked successor relocks")
	assert.Equal(t, model.StepLocked, state.Steps[2].Status)
	assert.Empty(t, state.Ledger, "the step's ledger entry is removed")
	assert.Equal(t, 0, state.Characters[0].Gold)
	assert.Equal(t, model.CampaignActive, state.Campaigns[0].Status)

	// gold reverts are clamped at zero even after the kid spent the reward
	state, err = Reduce(state, ActionCompleteStep{StepID: state.Steps[0].ID, Now: now})
	require.NoError(t, err)
	state, err = Reduce(state, ActionPurchase{CharacterID: kid.ID, Cost: 2, Note: "sweets", Now: now})
	require.NoError(t, err)
	state, err = Reduce(state, ActionUndoStep{StepID: state.Steps[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 0, state.Characters[0].Gold)
}

func TestReduce_UndoStepNotDone(t *testing.T) {
	state, _ := campaignState()

	_, err := Reduce(state, ActionUndoStep{StepID: state.Steps[1].ID})
	assert.ErrorIs(t, err, ErrStepNotDone)
}
