package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/talent-pool/internal/events"
	"github.com/jonathan/talent-pool/internal/types"
)

// streamKeepAlive is how often an idle batch stream is pinged.
var streamKeepAlive = 15 * time.Second

// maxEventWait bounds the long-poll on GET /events.
const maxEventWait = 60 * time.Second

// handleStartBatch screens the given ids, or every eligible candidate when
// called with ?scope=pending.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("scope") == "pending" {
		b, err := s.engine.ScreenPending(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.jsonResponse(w, http.StatusAccepted, b)
		return
	}

	var req types.StartBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	b, err := s.engine.Screening.StartBatch(r.Context(), req.CandidateIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, b)
}

func (s *Server) handleListBatches(w http.ResponseWriter, _ *http.Request) {
	batches := s.engine.Screening.ListBatches()
	s.jsonResponse(w, http.StatusOK, map[string]any{"batches": batches, "count": len(batches)})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.Screening.GetBatchStatus(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"batch": b, "summary": b.Summary()})
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.Screening.CancelBatch(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, b)
}

// handleStreamBatch sends the batch's events as SSE until it reaches a
// terminal state, then a final "complete" event with the batch.
func (s *Server) handleStreamBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	seq := s.engine.Events.LastSeq()
	b, err := s.engine.Screening.GetBatchStatus(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(0, "batch", b); err != nil {
		return
	}
	if b.State.Terminal() {
		sse.WriteComplete(b)
		return
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		changed := s.engine.Events.Changed()
		for _, e := range s.engine.Events.Since(seq) {
			seq = e.Seq
			if e.BatchID != id {
				continue
			}
			if err := sse.WriteEvent(e.Seq, string(e.Type), e); err != nil {
				return
			}
		}

		// Checked on every wake so a trimmed event buffer cannot stall the stream
		current, err := s.engine.Screening.GetBatchStatus(id)
		if err != nil {
			sse.WriteError(err.Error())
			return
		}
		if current.State.Terminal() {
			sse.WriteComplete(current)
			return
		}

		select {
		case <-changed:
		case <-ticker.C:
			if err := sse.Ping(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleEvents returns events after ?since=N. With ?wait=10s it blocks until
// at least one new event arrives or the wait elapses.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var since int64
	if raw := q.Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid since")
			return
		}
		since = v
	}

	var wait time.Duration
	if raw := q.Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid wait")
			return
		}
		wait = min(d, maxEventWait)
	}

	bus := s.engine.Events
	changed := bus.Changed()
	evs := bus.Since(since)
	if len(evs) == 0 && wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-changed:
			evs = bus.Since(since)
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}
	if evs == nil {
		evs = []events.Event{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"events":   evs,
		"last_seq": bus.LastSeq(),
	})
}
