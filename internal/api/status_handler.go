package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/graphfeed/internal/api/shared"
	"github.com/phrazzld/graphfeed/internal/events"
	"github.com/phrazzld/graphfeed/internal/task"
)

// defaultEventLimit is used by GET /events when no limit is given.
const defaultEventLimit = 50

// StatsSource exposes controller state. *task.Controller satisfies it.
type StatsSource interface {
	Stats() task.Stats
}

// PendingCounter reports work waiting on the interactive context.
// *looper.Looper satisfies it.
type PendingCounter interface {
	Pending() int
}

// TaskResponse describes one task.
type TaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	Owner     string    `json:"owner"`
	State     string    `json:"state"`
	Cancelled bool      `json:"cancelled"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Pending       int           `json:"pending"`
	Current       *TaskResponse `json:"current,omitempty"`
	PausePolicy   string        `json:"pause_policy"`
	PausedOwners  []string      `json:"paused_owners"`
	PausedAll     bool          `json:"paused_all"`
	Started       bool          `json:"started"`
	Shutdown      bool          `json:"shutdown"`
	LooperPending int           `json:"looper_pending"`
}

// StatusHandler serves the controller and event endpoints.
type StatusHandler struct {
	stats    StatsSource
	loop     PendingCounter
	recorder *events.Recorder
}

// NewStatusHandler creates a handler. loop and recorder may be nil.
func NewStatusHandler(stats StatsSource, loop PendingCounter, recorder *events.Recorder) *StatusHandler {
	return &StatusHandler{
		stats:    stats,
		loop:     loop,
		recorder: recorder,
	}
}

// GetStatus handles GET /status.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	s := h.stats.Stats()

	resp := StatusResponse{
		Pending:      s.Pending,
		PausePolicy:  string(s.PausePolicy),
		PausedOwners: make([]string, 0, len(s.PausedOwners)),
		PausedAll:    s.PausedAll,
		Started:      s.Started,
		Shutdown:     s.Shutdown,
	}
	if s.Current != nil {
		resp.Current = taskToResponse(s.Current)
	}
	for _, owner := range s.PausedOwners {
		resp.PausedOwners = append(resp.PausedOwners, owner.String())
	}
	if h.loop != nil {
		resp.LooperPending = h.loop.Pending()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListEvents handles GET /events?limit=N, returning the latest events oldest first.
func (h *StatusHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list := []events.TaskEvent{}
	if h.recorder != nil {
		list = append(list, h.recorder.Recent(limit)...)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// GetTaskEvents handles GET /events/{taskID}.
func (h *StatusHandler) GetTaskEvents(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	var list []events.TaskEvent
	if h.recorder != nil {
		list = h.recorder.ForTask(taskID)
	}
	if len(list) == 0 {
		shared.RespondWithError(w, r, http.StatusNotFound, "no events recorded for task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

func taskToResponse(t *task.Task) *TaskResponse {
	return &TaskResponse{
		ID:        t.ID(),
		Name:      t.Name(),
		Owner:     t.Owner().String(),
		State:     t.State().String(),
		Cancelled: t.IsCancelled(),
		CreatedAt: t.CreatedAt(),
	}
}
