package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starboard/chore-engine/api"
	"github.com/starboard/chore-engine/board"
	"github.com/starboard/chore-engine/board/store"
	"github.com/starboard/chore-engine/engine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	kidA engine.KidID = "kid-a"
	kidB engine.KidID = "kid-b"
)

type testServer struct {
	router  http.Handler
	service *board.Service
	clock   *engine.FixedClock
}

// newTestServer fixes the clock at Monday 2026-03-09 10:00 board time and
// seeds the store with two kids.
func newTestServer(t *testing.T) *testServer {
	loc, err := time.LoadLocation(engine.DefaultTimezone)
	require.NoError(t, err)
	clock := engine.NewFixedClock(time.Date(2026, time.March, 9, 10, 0, 0, 0, loc), loc)

	mem := store.NewMemoryWith(&engine.Document{
		Kids: []engine.Kid{
			{ID: kidA, Name: "Ada", Color: "#e91e63", CreatedAt: clock.Instant},
			{ID: kidB, Name: "Ben", Color: "#2196f3", CreatedAt: clock.Instant},
		},
	})

	svc := board.NewService(mem, clock)
	return &testServer{
		router:  api.NewRouter(api.NewHandler(svc)),
		service: svc,
		clock:   clock,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func (ts *testServer) addDaily(t *testing.T, kids ...string) api.ChoreDTO {
	rec := ts.do(t, "POST", "/api/chores", api.ChoreRequest{
		KidIDs:   kids,
		Title:    "Make bed",
		Stars:    2,
		Type:     "repeated",
		Schedule: &api.ScheduleDTO{Cadence: "daily"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.ChoreDTO](t, rec)
}

// =============================================================================
// CHORE ENDPOINTS
// =============================================================================

func TestAPI_CreateAndCompleteChore(t *testing.T) {
	// GIVEN: A daily chore for kid A
	// WHEN: Completing it via the API
	// THEN: 201 with the completion; a second tap returns 409

	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA))
	assert.Equal(t, "Daily", chore.ScheduleLabel)

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	completion := decode[api.CompletionDTO](t, rec)
	assert.Equal(t, chore.ID, completion.ChoreID)
	assert.Equal(t, "2", completion.StarsAwarded)
	assert.False(t, completion.PendingApproval)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_CompleteChore_Validation(t *testing.T) {
	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA))

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing kid_id")

	rec = ts.do(t, "POST", "/api/chores/missing/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateChore_RejectsBadDefinitions(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		req  api.ChoreRequest
	}{
		{"missing title", api.ChoreRequest{KidIDs: []string{string(kidA)}, Type: "one-off"}},
		{"bad type", api.ChoreRequest{KidIDs: []string{string(kidA)}, Title: "x", Type: "sometimes"}},
		{"repeated without schedule", api.ChoreRequest{KidIDs: []string{string(kidA)}, Title: "x", Type: "repeated"}},
		{"bad cadence", api.ChoreRequest{
			KidIDs: []string{string(kidA)}, Title: "x", Type: "repeated",
			Schedule: &api.ScheduleDTO{Cadence: "fortnightly"},
		}},
		{"schedule on one-off", api.ChoreRequest{
			KidIDs: []string{string(kidA)}, Title: "x", Type: "one-off",
			Schedule: &api.ScheduleDTO{Cadence: "daily"},
		}},
		{"bad scheduled_for", api.ChoreRequest{
			KidIDs: []string{string(kidA)}, Title: "x", Type: "one-off",
			ScheduledFor: "someday",
		}},
		{"negative stars", api.ChoreRequest{KidIDs: []string{string(kidA)}, Title: "x", Type: "one-off", Stars: -1}},
	}
	for _, tc := range cases {
		rec := ts.do(t, "POST", "/api/chores", tc.req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}
}

func TestAPI_PauseAndResume(t *testing.T) {
	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA))

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/pause", api.PauseChoreRequest{Until: "2026-03-12"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/resume", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAPI_PauseChore_BadDay(t *testing.T) {
	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA))

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/pause", api.PauseChoreRequest{Until: "next week"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// APPROVAL AND UNDO ENDPOINTS
// =============================================================================

func TestAPI_ApprovalFlow(t *testing.T) {
	// GIVEN: A chore requiring approval, completed by kid A
	// WHEN: Listing pending and approving
	// THEN: Pending shows the completion; approval clears it

	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/chores", api.ChoreRequest{
		KidIDs:           []string{string(kidA)},
		Title:            "Homework",
		Stars:            3,
		Type:             "repeated",
		Schedule:         &api.ScheduleDTO{Cadence: "daily"},
		RequiresApproval: true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chore := decode[api.ChoreDTO](t, rec)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code)
	completion := decode[api.CompletionDTO](t, rec)
	assert.True(t, completion.PendingApproval)

	rec = ts.do(t, "GET", "/api/completions/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[map[string][]api.CompletionDTO](t, rec)
	require.Len(t, pending["pending"], 1)

	rec = ts.do(t, "POST", "/api/completions/"+completion.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[api.CompletionDTO](t, rec)
	assert.False(t, approved.PendingApproval)

	rec = ts.do(t, "POST", "/api/completions/"+completion.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "second approve is rejected")
}

func TestAPI_UndoCompletion(t *testing.T) {
	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA))

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code)
	completion := decode[api.CompletionDTO](t, rec)

	rec = ts.do(t, "DELETE", "/api/completions/"+completion.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "DELETE", "/api/completions/"+completion.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Chore is open again
	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// =============================================================================
// REWARD ENDPOINTS
// =============================================================================

func TestAPI_RedeemReward(t *testing.T) {
	// GIVEN: Kid A with 5 stars and a reward costing 3
	// WHEN: Redeeming twice
	// THEN: First 201, second 409 (insufficient stars)

	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/chores", api.ChoreRequest{
		KidIDs: []string{string(kidA)},
		Title:  "Big cleanup",
		Stars:  5,
		Type:   "one-off",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	chore := decode[api.ChoreDTO](t, rec)

	rec = ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "POST", "/api/rewards", api.RewardRequest{
		KidIDs: []string{string(kidA)},
		Title:  "Extra screen time",
		Cost:   3,
		Type:   "perpetual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reward := decode[api.RewardDTO](t, rec)

	rec = ts.do(t, "POST", "/api/rewards/"+reward.ID+"/redeem", api.RedeemRewardRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	redemption := decode[api.RedemptionDTO](t, rec)
	assert.Equal(t, "3", redemption.Cost)

	rec = ts.do(t, "POST", "/api/rewards/"+reward.ID+"/redeem", api.RedeemRewardRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_ArchiveReward(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/rewards", api.RewardRequest{
		KidIDs: []string{string(kidA)},
		Title:  "Ice cream",
		Cost:   0,
		Type:   "perpetual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reward := decode[api.RewardDTO](t, rec)

	rec = ts.do(t, "POST", "/api/rewards/"+reward.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "POST", "/api/rewards/"+reward.ID+"/redeem", api.RedeemRewardRequest{KidID: string(kidA)})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// BOARD VIEW
// =============================================================================

func TestAPI_GetBoard(t *testing.T) {
	// GIVEN: A daily chore for both kids, completed today by kid A, and a
	//        reward kid A can afford
	// WHEN: Fetching the board
	// THEN: States, balances, and affordability are resolved per kid

	ts := newTestServer(t)
	chore := ts.addDaily(t, string(kidA), string(kidB))

	rec := ts.do(t, "POST", "/api/chores/"+chore.ID+"/complete", api.CompleteChoreRequest{KidID: string(kidA)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "POST", "/api/rewards", api.RewardRequest{
		KidIDs: []string{string(kidA), string(kidB)},
		Title:  "Sticker",
		Cost:   1,
		Type:   "perpetual",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, "GET", "/api/board", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	boardView := decode[api.BoardDTO](t, rec)

	assert.Equal(t, "2026-03-09", boardView.Day)
	assert.Equal(t, int(time.Monday), boardView.Weekday)
	require.Len(t, boardView.Kids, 2)

	var ada, ben api.KidBoardDTO
	for _, entry := range boardView.Kids {
		switch engine.KidID(entry.Kid.ID) {
		case kidA:
			ada = entry
		case kidB:
			ben = entry
		}
	}

	assert.Equal(t, "2", ada.StarBalance)
	require.Len(t, ada.Chores, 1)
	assert.Equal(t, "done-today", ada.Chores[0].State)
	assert.False(t, ada.Chores[0].Open)
	assert.Equal(t, "Done today", ada.Chores[0].StatusLabel)

	assert.Equal(t, "0", ben.StarBalance)
	require.Len(t, ben.Chores, 1)
	assert.Equal(t, "open", ben.Chores[0].State)
	assert.True(t, ben.Chores[0].Open)

	require.Len(t, ada.Rewards, 1)
	assert.True(t, ada.Rewards[0].Available)
	assert.True(t, ada.Rewards[0].Affordable)
	require.Len(t, ben.Rewards, 1)
	assert.False(t, ben.Rewards[0].Affordable)
}

func TestAPI_GetBoard_DayOverride(t *testing.T) {
	// GIVEN: Today is Monday
	// WHEN: Fetching the board for last Saturday
	// THEN: The view resolves against the override day

	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/board?day=2026-03-07", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	boardView := decode[api.BoardDTO](t, rec)

	assert.Equal(t, "2026-03-07", boardView.Day)
	assert.Equal(t, int(time.Saturday), boardView.Weekday)

	rec = ts.do(t, "GET", "/api/board?day=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// KID ENDPOINTS
// =============================================================================

func TestAPI_KidCRUD(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/kids", api.KidRequest{Name: "Cleo", Color: "#4caf50"})
	require.Equal(t, http.StatusCreated, rec.Code)
	kid := decode[api.KidDTO](t, rec)
	assert.NotEmpty(t, kid.ID)

	rec = ts.do(t, "POST", "/api/kids", api.KidRequest{Name: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, "PUT", "/api/kids/"+kid.ID, api.KidRequest{Name: "Cleopatra"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[api.KidDTO](t, rec)
	assert.Equal(t, "Cleopatra", updated.Name)
	assert.Equal(t, "#4caf50", updated.Color)

	rec = ts.do(t, "GET", "/api/kids", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	kids := decode[map[string][]api.KidDTO](t, rec)
	assert.Len(t, kids["kids"], 3)
}
