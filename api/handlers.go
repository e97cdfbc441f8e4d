/*
handlers.go - HTTP API handlers for the chore board

PURPOSE:
  Exposes the chore engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the board service for mutations
  and the engine for derived state.

ENDPOINTS:
  Board:
    GET    /api/board                   Full board view (chore states, balances)
                                        Optional ?day=YYYY-MM-DD override

  Kids:
    GET    /api/kids                    List all kids
    POST   /api/kids                    Create kid
    PUT    /api/kids/{id}               Update kid

  Chores:
    GET    /api/chores                  List all chores
    POST   /api/chores                  Create chore
    PUT    /api/chores/{id}             Update chore
    DELETE /api/chores/{id}             Delete chore (history kept)
    POST   /api/chores/{id}/complete    Record a completion
    POST   /api/chores/{id}/pause       Pause through a day, inclusive
    POST   /api/chores/{id}/resume      Clear the pause window

  Completions:
    GET    /api/completions/pending     Completions awaiting approval
    POST   /api/completions/{id}/approve Confirm a pending completion
    DELETE /api/completions/{id}        Undo (remove the record)

  Rewards:
    GET    /api/rewards                 List all rewards
    POST   /api/rewards                 Create reward
    PUT    /api/rewards/{id}            Update reward
    POST   /api/rewards/{id}/archive    Hide from redemption
    POST   /api/rewards/{id}/redeem     Spend a kid's stars

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call board service / engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Kid/chore/reward/completion not found
  - 409: Precondition failures (chore not open, insufficient stars,
         concurrent modification)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The API is meant to run
  on a trusted home network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starboard/chore-engine/board"
	"github.com/starboard/chore-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Board *board.Service
}

// NewHandler creates a new handler over the given board service.
func NewHandler(svc *board.Service) *Handler {
	return &Handler{Board: svc}
}

// =============================================================================
// BOARD VIEW
// =============================================================================

// GetBoard returns the full board resolved for today (or for ?day=).
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	override := r.URL.Query().Get("day")
	if override != "" {
		if _, err := engine.ParseCivilDay(override); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid day, expected YYYY-MM-DD", err)
			return
		}
	}

	doc, err := h.Board.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load board", err)
		return
	}

	today := h.Board.Today(override)
	resp := BoardDTO{
		Day:              today.Day.String(),
		Weekday:          int(today.Weekday),
		Kids:             []KidBoardDTO{},
		PendingApprovals: []CompletionDTO{},
	}

	for _, kid := range doc.Kids {
		entry := KidBoardDTO{
			Kid:         toKidDTO(kid),
			StarsEarned: engine.StarsForKid(doc.Completions, kid.ID).String(),
			StarsSpent:  engine.StarsSpentForKid(doc.Redemptions, kid.ID).String(),
			StarBalance: engine.StarBalanceForKid(doc.Completions, doc.Redemptions, kid.ID).String(),
			Chores:      []KidChoreStateDTO{},
			Rewards:     []KidRewardStateDTO{},
		}

		balance := engine.StarBalanceForKid(doc.Completions, doc.Redemptions, kid.ID)

		for _, chore := range doc.Chores {
			if !chore.AppliesTo(kid.ID) {
				continue
			}
			state := engine.EvaluateChore(chore, kid.ID, doc.Completions, today)
			cs := KidChoreStateDTO{
				Chore: toChoreDTO(chore),
				State: string(state),
				Open:  state == engine.StateOpen,
			}
			if chore.Type == engine.ChoreRepeated {
				status := engine.RecurringStatus(chore, kid.ID, doc.Completions, today)
				cs.StatusLabel = status.Label
				cs.StatusTone = string(status.Tone)
			}
			entry.Chores = append(entry.Chores, cs)
		}

		for _, reward := range doc.Rewards {
			if reward.Archived || !reward.AppliesTo(kid.ID) {
				continue
			}
			entry.Rewards = append(entry.Rewards, KidRewardStateDTO{
				Reward:     toRewardDTO(reward),
				Available:  engine.RewardAvailableForKid(reward, kid.ID, doc.Redemptions),
				Affordable: engine.CanAfford(reward, balance),
			})
		}

		resp.Kids = append(resp.Kids, entry)
	}

	pending, err := h.Board.PendingApprovals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load pending approvals", err)
		return
	}
	for _, c := range pending {
		resp.PendingApprovals = append(resp.PendingApprovals, toCompletionDTO(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// KID HANDLERS
// =============================================================================

// ListKids returns all kids.
func (h *Handler) ListKids(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Board.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list kids", err)
		return
	}
	dtos := make([]KidDTO, len(doc.Kids))
	for i, k := range doc.Kids {
		dtos[i] = toKidDTO(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{"kids": dtos})
}

// CreateKid adds a kid to the board.
func (h *Handler) CreateKid(w http.ResponseWriter, r *http.Request) {
	var req KidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	kid, err := h.Board.AddKid(r.Context(), req.Name, req.Color)
	if err != nil {
		writeBoardError(w, "Failed to create kid", err)
		return
	}
	writeJSON(w, http.StatusCreated, toKidDTO(*kid))
}

// UpdateKid renames and/or recolors a kid.
func (h *Handler) UpdateKid(w http.ResponseWriter, r *http.Request) {
	kidID := engine.KidID(chi.URLParam(r, "id"))

	var req KidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kid, err := h.Board.UpdateKid(r.Context(), kidID, req.Name, req.Color)
	if err != nil {
		writeBoardError(w, "Failed to update kid", err)
		return
	}
	writeJSON(w, http.StatusOK, toKidDTO(*kid))
}

// =============================================================================
// CHORE HANDLERS
// =============================================================================

// ListChores returns all chore definitions.
func (h *Handler) ListChores(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Board.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list chores", err)
		return
	}
	dtos := make([]ChoreDTO, len(doc.Chores))
	for i, c := range doc.Chores {
		dtos[i] = toChoreDTO(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"chores": dtos})
}

// CreateChore adds a chore definition.
func (h *Handler) CreateChore(w http.ResponseWriter, r *http.Request) {
	var req ChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := choreInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid chore", err)
		return
	}

	chore, err := h.Board.AddChore(r.Context(), in)
	if err != nil {
		writeBoardError(w, "Failed to create chore", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChoreDTO(*chore))
}

// UpdateChore replaces a chore's mutable fields.
func (h *Handler) UpdateChore(w http.ResponseWriter, r *http.Request) {
	choreID := engine.ChoreID(chi.URLParam(r, "id"))

	var req ChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := choreInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid chore", err)
		return
	}

	chore, err := h.Board.UpdateChore(r.Context(), choreID, in)
	if err != nil {
		writeBoardError(w, "Failed to update chore", err)
		return
	}
	writeJSON(w, http.StatusOK, toChoreDTO(*chore))
}

// DeleteChore removes a chore definition. Stars already earned stay earned.
func (h *Handler) DeleteChore(w http.ResponseWriter, r *http.Request) {
	choreID := engine.ChoreID(chi.URLParam(r, "id"))

	if err := h.Board.DeleteChore(r.Context(), choreID); err != nil {
		writeBoardError(w, "Failed to delete chore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(choreID)})
}

// CompleteChore records a completion for a chore/kid pair.
func (h *Handler) CompleteChore(w http.ResponseWriter, r *http.Request) {
	choreID := engine.ChoreID(chi.URLParam(r, "id"))

	var req CompleteChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.KidID == "" {
		writeError(w, http.StatusBadRequest, "kid_id is required", nil)
		return
	}

	completion, err := h.Board.CompleteChore(r.Context(), choreID, engine.KidID(req.KidID), req.Day)
	if err != nil {
		writeBoardError(w, "Failed to record completion", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompletionDTO(*completion))
}

// PauseChore suppresses a chore through a day, inclusive.
func (h *Handler) PauseChore(w http.ResponseWriter, r *http.Request) {
	choreID := engine.ChoreID(chi.URLParam(r, "id"))

	var req PauseChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	until, err := engine.ParseCivilDay(req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid until, expected YYYY-MM-DD", err)
		return
	}

	if err := h.Board.PauseChore(r.Context(), choreID, until); err != nil {
		writeBoardError(w, "Failed to pause chore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paused_until": until.String()})
}

// ResumeChore clears a chore's pause window.
func (h *Handler) ResumeChore(w http.ResponseWriter, r *http.Request) {
	choreID := engine.ChoreID(chi.URLParam(r, "id"))

	if err := h.Board.ResumeChore(r.Context(), choreID); err != nil {
		writeBoardError(w, "Failed to resume chore", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumed": string(choreID)})
}

// =============================================================================
// COMPLETION HANDLERS
// =============================================================================

// ListPendingApprovals returns completions awaiting a parent, oldest first.
func (h *Handler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Board.PendingApprovals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending approvals", err)
		return
	}
	dtos := make([]CompletionDTO, len(pending))
	for i, c := range pending {
		dtos[i] = toCompletionDTO(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": dtos})
}

// ApproveCompletion confirms a pending completion.
func (h *Handler) ApproveCompletion(w http.ResponseWriter, r *http.Request) {
	completionID := engine.CompletionID(chi.URLParam(r, "id"))

	completion, err := h.Board.ApproveCompletion(r.Context(), completionID)
	if err != nil {
		writeBoardError(w, "Failed to approve completion", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompletionDTO(*completion))
}

// UndoCompletion removes a completion record.
func (h *Handler) UndoCompletion(w http.ResponseWriter, r *http.Request) {
	completionID := engine.CompletionID(chi.URLParam(r, "id"))

	if err := h.Board.UndoCompletion(r.Context(), completionID); err != nil {
		writeBoardError(w, "Failed to undo completion", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": string(completionID)})
}

// =============================================================================
// REWARD HANDLERS
// =============================================================================

// ListRewards returns all reward definitions, archived included.
func (h *Handler) ListRewards(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Board.Document(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rewards", err)
		return
	}
	dtos := make([]RewardDTO, len(doc.Rewards))
	for i, rw := range doc.Rewards {
		dtos[i] = toRewardDTO(rw)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": dtos})
}

// CreateReward adds a reward definition.
func (h *Handler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := rewardInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reward", err)
		return
	}

	reward, err := h.Board.AddReward(r.Context(), in)
	if err != nil {
		writeBoardError(w, "Failed to create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRewardDTO(*reward))
}

// UpdateReward replaces a reward's mutable fields.
func (h *Handler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	rewardID := engine.RewardID(chi.URLParam(r, "id"))

	var req RewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := rewardInputFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reward", err)
		return
	}

	reward, err := h.Board.UpdateReward(r.Context(), rewardID, in)
	if err != nil {
		writeBoardError(w, "Failed to update reward", err)
		return
	}
	writeJSON(w, http.StatusOK, toRewardDTO(*reward))
}

// ArchiveReward hides a reward from redemption without erasing its history.
func (h *Handler) ArchiveReward(w http.ResponseWriter, r *http.Request) {
	rewardID := engine.RewardID(chi.URLParam(r, "id"))

	if err := h.Board.ArchiveReward(r.Context(), rewardID); err != nil {
		writeBoardError(w, "Failed to archive reward", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archived": string(rewardID)})
}

// RedeemReward spends a kid's stars on a reward.
func (h *Handler) RedeemReward(w http.ResponseWriter, r *http.Request) {
	rewardID := engine.RewardID(chi.URLParam(r, "id"))

	var req RedeemRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.KidID == "" {
		writeError(w, http.StatusBadRequest, "kid_id is required", nil)
		return
	}

	redemption, err := h.Board.RedeemReward(r.Context(), rewardID, engine.KidID(req.KidID))
	if err != nil {
		writeBoardError(w, "Failed to redeem reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRedemptionDTO(*redemption))
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

func choreInputFromRequest(req ChoreRequest) (board.ChoreInput, error) {
	if strings.TrimSpace(req.Title) == "" {
		return board.ChoreInput{}, errors.New("title is required")
	}
	if req.Stars < 0 {
		return board.ChoreInput{}, errors.New("stars must not be negative")
	}

	choreType := engine.ChoreType(req.Type)
	switch choreType {
	case engine.ChoreOneOff, engine.ChoreRepeated, engine.ChorePerpetual:
	default:
		return board.ChoreInput{}, errors.New("type must be one-off, repeated, or perpetual")
	}

	in := board.ChoreInput{
		KidIDs:           toKidIDs(req.KidIDs),
		Title:            req.Title,
		Emoji:            req.Emoji,
		Stars:            engine.NewStars(req.Stars),
		Type:             choreType,
		TimeOfDay:        engine.TimeOfDay(req.TimeOfDay),
		RequiresApproval: req.RequiresApproval,
	}

	if req.Schedule != nil {
		if choreType != engine.ChoreRepeated {
			return board.ChoreInput{}, errors.New("only repeated chores carry a schedule")
		}
		cadence := engine.Cadence(req.Schedule.Cadence)
		switch cadence {
		case engine.CadenceDaily, engine.CadenceWeekly:
		default:
			return board.ChoreInput{}, errors.New("cadence must be daily or weekly")
		}
		sched := &engine.Schedule{Cadence: cadence}
		for _, d := range req.Schedule.DaysOfWeek {
			if d < 0 || d > 6 {
				return board.ChoreInput{}, errors.New("days_of_week entries must be 0-6")
			}
			sched.DaysOfWeek = append(sched.DaysOfWeek, time.Weekday(d))
		}
		in.Schedule = sched
	} else if choreType == engine.ChoreRepeated {
		return board.ChoreInput{}, errors.New("repeated chores require a schedule")
	}

	if req.ScheduledFor != "" {
		if choreType != engine.ChoreOneOff {
			return board.ChoreInput{}, errors.New("only one-off chores carry scheduled_for")
		}
		day, err := engine.ParseCivilDay(req.ScheduledFor)
		if err != nil {
			return board.ChoreInput{}, errors.New("scheduled_for must be YYYY-MM-DD")
		}
		in.ScheduledFor = &day
	}

	return in, nil
}

func rewardInputFromRequest(req RewardRequest) (board.RewardInput, error) {
	if strings.TrimSpace(req.Title) == "" {
		return board.RewardInput{}, errors.New("title is required")
	}
	if req.Cost < 0 {
		return board.RewardInput{}, errors.New("cost must not be negative")
	}

	rewardType := engine.RewardType(req.Type)
	switch rewardType {
	case engine.RewardOneOff, engine.RewardPerpetual:
	default:
		return board.RewardInput{}, errors.New("type must be one-off or perpetual")
	}

	return board.RewardInput{
		KidIDs: toKidIDs(req.KidIDs),
		Title:  req.Title,
		Emoji:  req.Emoji,
		Cost:   engine.NewStars(req.Cost),
		Type:   rewardType,
	}, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeBoardError maps board/engine errors onto HTTP status codes.
func writeBoardError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, engine.ErrConcurrentModification):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
