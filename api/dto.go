/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"time"

	"github.com/starboard/chore-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// KidDTO represents a kid in API responses.
type KidDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
}

// KidRequest is the request to create or update a kid.
type KidRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ScheduleDTO represents a repeated chore's cadence.
type ScheduleDTO struct {
	Cadence    string `json:"cadence"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"` // 0=Sunday..6=Saturday
}

// ChoreDTO represents a chore definition.
type ChoreDTO struct {
	ID               string       `json:"id"`
	KidIDs           []string     `json:"kid_ids"`
	Title            string       `json:"title"`
	Emoji            string       `json:"emoji,omitempty"`
	Stars            string       `json:"stars"`
	Type             string       `json:"type"`
	Schedule         *ScheduleDTO `json:"schedule,omitempty"`
	ScheduleLabel    string       `json:"schedule_label"`
	PausedUntil      string       `json:"paused_until,omitempty"`
	ScheduledFor     string       `json:"scheduled_for,omitempty"`
	TimeOfDay        string       `json:"time_of_day,omitempty"`
	RequiresApproval bool         `json:"requires_approval"`
	CreatedAt        string       `json:"created_at,omitempty"`
	CompletedAt      string       `json:"completed_at,omitempty"`
}

// ChoreRequest is the request to create or update a chore.
type ChoreRequest struct {
	KidIDs           []string     `json:"kid_ids"`
	Title            string       `json:"title"`
	Emoji            string       `json:"emoji"`
	Stars            int          `json:"stars"`
	Type             string       `json:"type"`
	Schedule         *ScheduleDTO `json:"schedule,omitempty"`
	ScheduledFor     string       `json:"scheduled_for,omitempty"`
	TimeOfDay        string       `json:"time_of_day,omitempty"`
	RequiresApproval bool         `json:"requires_approval"`
}

// CompleteChoreRequest records a completion.
type CompleteChoreRequest struct {
	KidID string `json:"kid_id"`
	Day   string `json:"day,omitempty"` // optional civil-day override
}

// PauseChoreRequest suppresses a chore through a day, inclusive.
type PauseChoreRequest struct {
	Until string `json:"until"`
}

// CompletionDTO represents a recorded completion.
type CompletionDTO struct {
	ID              string `json:"id"`
	ChoreID         string `json:"chore_id"`
	KidID           string `json:"kid_id"`
	Timestamp       string `json:"timestamp"`
	StarsAwarded    string `json:"stars_awarded"`
	PendingApproval bool   `json:"pending_approval"`
}

// RewardDTO represents a reward definition.
type RewardDTO struct {
	ID        string   `json:"id"`
	KidIDs    []string `json:"kid_ids"`
	Title     string   `json:"title"`
	Emoji     string   `json:"emoji,omitempty"`
	Cost      string   `json:"cost"`
	Type      string   `json:"type"`
	Archived  bool     `json:"archived"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// RewardRequest is the request to create or update a reward.
type RewardRequest struct {
	KidIDs []string `json:"kid_ids"`
	Title  string   `json:"title"`
	Emoji  string   `json:"emoji"`
	Cost   int      `json:"cost"`
	Type   string   `json:"type"`
}

// RedeemRewardRequest spends a kid's stars on a reward.
type RedeemRewardRequest struct {
	KidID string `json:"kid_id"`
}

// RedemptionDTO represents a recorded redemption.
type RedemptionDTO struct {
	ID        string `json:"id"`
	RewardID  string `json:"reward_id"`
	KidID     string `json:"kid_id"`
	Timestamp string `json:"timestamp"`
	Cost      string `json:"cost"`
}

// =============================================================================
// BOARD VIEW
// =============================================================================

// BoardDTO is the full per-day board state: per-kid chore states, star
// balances, and reward availability, all resolved against one TodayContext.
type BoardDTO struct {
	Day              string          `json:"day"`
	Weekday          int             `json:"weekday"` // 0=Sunday..6=Saturday
	Kids             []KidBoardDTO   `json:"kids"`
	PendingApprovals []CompletionDTO `json:"pending_approvals"`
}

// KidBoardDTO is one kid's slice of the board.
type KidBoardDTO struct {
	Kid         KidDTO              `json:"kid"`
	StarsEarned string              `json:"stars_earned"`
	StarsSpent  string              `json:"stars_spent"`
	StarBalance string              `json:"star_balance"`
	Chores      []KidChoreStateDTO  `json:"chores"`
	Rewards     []KidRewardStateDTO `json:"rewards"`
}

// KidChoreStateDTO is a chore as seen by one kid today.
type KidChoreStateDTO struct {
	Chore       ChoreDTO `json:"chore"`
	State       string   `json:"state"`
	Open        bool     `json:"open"`
	StatusLabel string   `json:"status_label,omitempty"`
	StatusTone  string   `json:"status_tone,omitempty"`
}

// KidRewardStateDTO is a reward as seen by one kid.
type KidRewardStateDTO struct {
	Reward     RewardDTO `json:"reward"`
	Available  bool      `json:"available"`
	Affordable bool      `json:"affordable"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toKidDTO(k engine.Kid) KidDTO {
	return KidDTO{
		ID:        string(k.ID),
		Name:      k.Name,
		Color:     k.Color,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
}

func toChoreDTO(c engine.Chore) ChoreDTO {
	dto := ChoreDTO{
		ID:               string(c.ID),
		KidIDs:           kidIDStrings(c.KidIDs),
		Title:            c.Title,
		Emoji:            c.Emoji,
		Stars:            c.Stars.String(),
		Type:             string(c.Type),
		ScheduleLabel:    engine.ScheduleLabel(c),
		TimeOfDay:        string(c.TimeOfDay),
		RequiresApproval: c.RequiresApproval,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
	}
	if c.Schedule != nil {
		sched := &ScheduleDTO{Cadence: string(c.Schedule.Cadence)}
		for _, d := range c.Schedule.DaysOfWeek {
			sched.DaysOfWeek = append(sched.DaysOfWeek, int(d))
		}
		dto.Schedule = sched
	}
	if c.PausedUntil != nil {
		dto.PausedUntil = c.PausedUntil.String()
	}
	if c.ScheduledFor != nil {
		dto.ScheduledFor = c.ScheduledFor.String()
	}
	if c.CompletedAt != nil {
		dto.CompletedAt = c.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func toCompletionDTO(c engine.Completion) CompletionDTO {
	return CompletionDTO{
		ID:              string(c.ID),
		ChoreID:         string(c.ChoreID),
		KidID:           string(c.KidID),
		Timestamp:       c.Timestamp.Format(time.RFC3339),
		StarsAwarded:    c.StarsAwarded.String(),
		PendingApproval: c.PendingApproval,
	}
}

func toRewardDTO(r engine.Reward) RewardDTO {
	return RewardDTO{
		ID:        string(r.ID),
		KidIDs:    kidIDStrings(r.KidIDs),
		Title:     r.Title,
		Emoji:     r.Emoji,
		Cost:      r.Cost.String(),
		Type:      string(r.Type),
		Archived:  r.Archived,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toRedemptionDTO(r engine.RewardRedemption) RedemptionDTO {
	return RedemptionDTO{
		ID:        string(r.ID),
		RewardID:  string(r.RewardID),
		KidID:     string(r.KidID),
		Timestamp: r.Timestamp.Format(time.RFC3339),
		Cost:      r.Cost.String(),
	}
}

func kidIDStrings(ids []engine.KidID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toKidIDs(ids []string) []engine.KidID {
	out := make([]engine.KidID, len(ids))
	for i, id := range ids {
		out[i] = engine.KidID(id)
	}
	return out
}
