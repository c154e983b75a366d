package model

import (
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignComplete CampaignStatus = "complete"
)

type Campaign struct {
	ID        uuid.UUID
	FamilyID  uuid.UUID
	Title     string
	Status    CampaignStatus
	CreatedAt time.Time
}

type StepStatus string

const (
	StepLocked    StepStatus = "locked"
	StepAvailable StepStatus = "available"
	StepDone      StepStatus = "done"
)

// CampaignStep is one link of an ordered quest chain. StepOrder is 1-based and
// dense within a campaign. At most one step per campaign is available at a
// time; done steps form a prefix of the order unless an undo intervened.
type CampaignStep struct {
	ID          uuid.UUID
	CampaignID  uuid.UUID
	Title       string
	StepOrder   int
	AssigneeID  uuid.UUID
	SkillID     *uuid.UUID
	XPReward    int
	GoldReward  int
	Status      StepStatus
	CompletedAt *time.Time
}
