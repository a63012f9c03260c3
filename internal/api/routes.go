package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cutroom/cutroom-agent/internal/edit"
	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Get("/timeline", timelineHandler(cfg))
	r.Get("/timeline/snap", snapEdgesHandler(cfg))

	r.Get("/tracks/{id}/items", trackItemsHandler(cfg))
	r.Patch("/tracks/{id}", trackFlagsHandler(cfg))
	r.Post("/tracks/{id}/close-gap", closeGapHandler(cfg))

	r.Post("/segments", placeSegmentHandler(cfg))
	r.Get("/segments/{id}", getSegmentHandler(cfg))
	r.Delete("/segments/{id}", deleteSegmentHandler(cfg))
	r.Post("/segments/{id}/move", moveSegmentHandler(cfg))
	r.Post("/segments/{id}/trim", trimSegmentHandler(cfg))
	r.Post("/segments/{id}/ripple-delete", rippleDeleteHandler(cfg))
	r.Post("/segments/{id}/revisions/{revisionID}/activate", activateRevisionHandler(cfg))

	r.Post("/drag/move", dragMoveHandler(cfg))
	r.Post("/drag/trim", dragTrimHandler(cfg))
	r.Post("/drag/update", dragUpdateHandler(cfg))
	r.Post("/drag/end", dragEndHandler(cfg))
	r.Post("/drag/cancel", dragCancelHandler(cfg))
	r.Get("/drag", dragStateHandler(cfg))

	r.Post("/playback/play", playHandler(cfg))
	r.Post("/playback/pause", pauseHandler(cfg))
	r.Post("/playback/playhead", playheadHandler(cfg))
	r.Get("/playback/state", playbackStateHandler(cfg))
	r.Get("/monitor/ws", monitorHandler(cfg))

	r.Get("/media/{id}", mediaHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		project := cfg.Sequence.Project()

		segments := 0
		tracks := cfg.Sequence.Tracks()
		for _, t := range tracks {
			segments += len(cfg.Sequence.SegmentsOnTrack(t.ID))
		}

		state := "idle"
		playing := false
		if cfg.Synchronizer != nil && cfg.Synchronizer.IsPlaying() {
			state = "playing"
			playing = true
		}

		resp := StatusResponse{
			State:       state,
			ProjectID:   project.ID,
			ProjectName: project.Name,
			FPS:         project.FPS,
			Tracks:      len(tracks),
			Segments:    segments,
			DurationSec: cfg.Sequence.TotalDuration(),
			Playing:     playing,
		}
		if cfg.Runner != nil {
			resp.RevisionsQueued = cfg.Runner.CountByStatus(ctx, timeline.RevisionStatusQueued)
			resp.RevisionsRunning = cfg.Runner.CountByStatus(ctx, timeline.RevisionStatusRunning)
			resp.ResolutionsPaused = cfg.Runner.IsPaused()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks := cfg.Sequence.Tracks()
		resp := TimelineResponse{
			Project:     ProjectToResponse(cfg.Sequence.Project()),
			DurationSec: cfg.Sequence.TotalDuration(),
			Tracks:      make([]TrackResponse, len(tracks)),
		}
		for i, t := range tracks {
			resp.Tracks[i] = TrackToResponse(t)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func snapEdgesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playhead, err := strconv.ParseFloat(r.URL.Query().Get("playhead"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "playhead is required", "BAD_REQUEST")
			return
		}
		exclude := map[string]bool{}
		if id := r.URL.Query().Get("exclude"); id != "" {
			exclude[id] = true
		}
		WriteJSON(w, http.StatusOK, SnapEdgesResponse{Edges: cfg.Sequence.SnapEdges(playhead, exclude)})
	}
}

func trackItemsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := cfg.Sequence.Track(id); err != nil {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		items := cfg.Sequence.ItemsForTrack(id)
		resp := ItemsResponse{Items: make([]ItemResponse, len(items))}
		for i, item := range items {
			resp.Items[i] = ItemToResponse(item)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func trackFlagsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req TrackFlagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Sequence.SetTrackFlags(id, req.Locked, req.Visible, req.Muted); err != nil {
			WriteError(w, http.StatusNotFound, "track not found", "NOT_FOUND")
			return
		}
		if err := cfg.Repository.UpdateTrackFlags(r.Context(), id, req.Locked, req.Visible, req.Muted); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		track, _ := cfg.Sequence.Track(id)
		WriteJSON(w, http.StatusOK, TrackToResponse(track))
	}
}

func closeGapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req CloseGapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		affected := cfg.Engine.DeleteGap(id, req.AtSec)
		persistSegments(r.Context(), cfg, affected)
		WriteJSON(w, http.StatusOK, SegmentsToResponse(affected))
	}
}

func placeSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaceSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TrackID == "" || req.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "track_id and media_id are required", "BAD_REQUEST")
			return
		}
		seg, err := cfg.Service.PlaceMedia(r.Context(), cfg.Sequence,
			req.TrackID, req.Label, req.MediaID, req.AtSec, req.DurationSec, req.LinkGroupID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, SegmentToResponse(seg))
	}
}

func getSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seg, err := cfg.Sequence.Segment(chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, SegmentToResponse(seg))
	}
}

func deleteSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Service.DeleteSegment(r.Context(), cfg.Sequence, id); err != nil {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func moveSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		seg, err := cfg.Sequence.Segment(id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		moved := cfg.Engine.MoveSegment(id, req.InSec)
		if moved == nil {
			// Locked segment or track: the edit is silently refused.
			WriteJSON(w, http.StatusOK, SegmentsToResponse([]*timeline.Segment{seg}))
			return
		}
		persistSegments(r.Context(), cfg, moved)
		WriteJSON(w, http.StatusOK, SegmentsToResponse(moved))
	}
}

func trimSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		edge := edit.TrimEdge(req.Edge)
		if edge != edit.EdgeStart && edge != edit.EdgeEnd {
			WriteError(w, http.StatusBadRequest, "edge must be start or end", "BAD_REQUEST")
			return
		}
		seg, err := cfg.Sequence.Segment(id)
		if err != nil {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		trimmed := cfg.Engine.TrimSegment(id, edge, req.TimeSec, edit.TrimMode(req.Mode))
		if trimmed == nil {
			WriteJSON(w, http.StatusOK, SegmentsToResponse([]*timeline.Segment{seg}))
			return
		}
		persistSegments(r.Context(), cfg, trimmed)
		WriteJSON(w, http.StatusOK, SegmentsToResponse(trimmed))
	}
}

func rippleDeleteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := cfg.Sequence.Segment(id); err != nil {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		shifted := cfg.Engine.RippleDelete(id)
		if _, err := cfg.Sequence.Segment(id); err == nil {
			// Still present: locked, the delete was refused.
			WriteJSON(w, http.StatusOK, SegmentsToResponse(nil))
			return
		}
		if err := cfg.Repository.DeleteSegment(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		persistSegments(r.Context(), cfg, shifted)
		WriteJSON(w, http.StatusOK, SegmentsToResponse(shifted))
	}
}

func activateRevisionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segID := chi.URLParam(r, "id")
		revID := chi.URLParam(r, "revisionID")
		if err := cfg.Service.SwitchRevision(r.Context(), cfg.Sequence, segID, revID); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		seg, _ := cfg.Sequence.Segment(segID)
		WriteJSON(w, http.StatusOK, SegmentToResponse(seg))
	}
}

func dragMoveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Session.BeginMove(req.SegmentID); err != nil {
			status := http.StatusNotFound
			if err == edit.ErrDragActive {
				status = http.StatusConflict
			}
			WriteError(w, status, err.Error(), "DRAG_REJECTED")
			return
		}
		WriteJSON(w, http.StatusOK, DragStateResponse{State: cfg.Session.State()})
	}
}

func dragTrimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragTrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Session.BeginTrim(req.SegmentID, edit.TrimEdge(req.Edge), edit.TrimMode(req.Mode)); err != nil {
			status := http.StatusNotFound
			if err == edit.ErrDragActive {
				status = http.StatusConflict
			}
			WriteError(w, status, err.Error(), "DRAG_REJECTED")
			return
		}
		WriteJSON(w, http.StatusOK, DragStateResponse{State: cfg.Session.State()})
	}
}

func dragUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		changed := cfg.Session.Update(req.DeltaPx, req.PlayheadSec)
		WriteJSON(w, http.StatusOK, SegmentsToResponse(changed))
	}
}

func dragEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := cfg.Session.End()
		for _, id := range ids {
			if err := cfg.Service.SaveSegment(r.Context(), cfg.Sequence, id); err != nil {
				cfg.Logger.Error("persist after drag failed", "segment_id", id, "error", err)
			}
		}
		WriteJSON(w, http.StatusOK, DragStateResponse{State: cfg.Session.State()})
	}
}

func dragCancelHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Cancel()
		WriteJSON(w, http.StatusOK, DragStateResponse{State: cfg.Session.State()})
	}
}

func dragStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, DragStateResponse{State: cfg.Session.State()})
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Synchronizer.Play()
		WriteJSON(w, http.StatusOK, cfg.Synchronizer.DebugState())
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Synchronizer.Pause()
		WriteJSON(w, http.StatusOK, cfg.Synchronizer.DebugState())
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayheadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.PlayheadSec < 0 {
			WriteError(w, http.StatusBadRequest, "playhead_sec must be non-negative", "BAD_REQUEST")
			return
		}
		cfg.Synchronizer.Tick(req.PlayheadSec)
		WriteJSON(w, http.StatusOK, cfg.Synchronizer.DebugState())
	}
}

func playbackStateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Synchronizer.DebugState())
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.MediaServer.ServeMedia(w, r, id); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "media_id", id)
		}
	}
}

// persistSegments writes edited placements through to the store. A failed
// write is logged, not surfaced: the in-memory timeline is authoritative
// during an editing session.
func persistSegments(ctx context.Context, cfg ServerConfig, segments []*timeline.Segment) {
	for _, s := range segments {
		if err := cfg.Service.SaveSegment(ctx, cfg.Sequence, s.ID); err != nil {
			cfg.Logger.Error("persist segment failed", "segment_id", s.ID, "error", err)
		}
	}
}
