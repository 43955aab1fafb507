package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/tilegrid/pkg/buildinfo"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

// contentTypes maps artifact formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatYAML: "application/yaml",
	pipeline.FormatText: "text/plain; charset=utf-8",
	pipeline.FormatDOT:  "text/vnd.graphviz",
}

// =============================================================================
// Health
// =============================================================================

type healthResponse struct {
	Status  string         `json:"status"`
	Build   buildinfo.Info `json:"build"`
	Streams int64          `json:"streams"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Build:   buildinfo.Current(),
		Streams: s.streams.Load(),
	})
}

// =============================================================================
// Layout and Render
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	width, err := queryFloat(r, "width", s.grid.Width)
	if err != nil {
		writeError(w, r, err)
		return
	}
	height, err := queryFloat(r, "height", s.grid.Height)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gap, err := queryFloat(r, "gap", s.grid.Gap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for _, err := range []error{
		errors.ValidateCount(count),
		errors.ValidateDimensions(width, height),
		errors.ValidateGap(gap),
	} {
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, grid.Compute(count, width, height, grid.WithGap(gap)))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, r, err)
		return
	}
	s.applyGridDefaults(&opts)
	if len(opts.Formats) > 1 {
		opts.Formats = opts.Formats[:1]
	}
	opts.Logger = s.logger.With("request_id", RequestID(r.Context()))

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeArtifact(w, result.Artifacts, opts.Formats, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
}

// applyGridDefaults fills layout fields the request left unset from the
// server's [grid] configuration.
func (s *Server) applyGridDefaults(opts *pipeline.Options) {
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width, opts.Height = s.grid.Width, s.grid.Height
	}
	if opts.Gap == nil {
		opts.Gap = tiles.Gap(s.grid.Gap)
	}
	if opts.MaxVisible == 0 {
		opts.MaxVisible = s.grid.MaxVisible
	}
	if opts.Style == "" {
		opts.Style = s.grid.Style
	}
}

func (s *Server) writeArtifact(w http.ResponseWriter, artifacts map[string][]byte, formats []string, cached bool) {
	format := pipeline.FormatSVG
	if len(formats) > 0 {
		format = formats[0]
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// =============================================================================
// Rooms
// =============================================================================

type rosterResponse struct {
	Room         string              `json:"room"`
	Participants []tiles.Participant `json:"participants"`
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	if err := errors.ValidateRoomID(roomID); err != nil {
		writeError(w, r, err)
		return
	}
	roster, err := s.rooms.List(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if roster == nil {
		roster = []tiles.Participant{}
	}
	writeJSON(w, http.StatusOK, rosterResponse{Room: roomID, Participants: roster})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	var p tiles.Participant
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	// Join time is server-assigned.
	p.JoinedAt = time.Time{}
	if err := s.rooms.Join(r.Context(), roomID, p); err != nil {
		writeError(w, r, err)
		return
	}

	joined, err := s.findParticipant(r, roomID, p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, joined)
}

// participantPatch holds the fields a PATCH may change. Nil fields are left
// alone.
type participantPatch struct {
	Name        *string `json:"name"`
	Speaking    *bool   `json:"speaking"`
	CameraOn    *bool   `json:"camera_on"`
	ScreenShare *bool   `json:"screen_share"`
	Muted       *bool   `json:"muted"`
}

func (p participantPatch) apply(to *tiles.Participant) {
	if p.Name != nil {
		to.Name = *p.Name
	}
	if p.Speaking != nil {
		to.Speaking = *p.Speaking
	}
	if p.CameraOn != nil {
		to.CameraOn = *p.CameraOn
	}
	if p.ScreenShare != nil {
		to.ScreenShare = *p.ScreenShare
	}
	if p.Muted != nil {
		to.Muted = *p.Muted
	}
}

func (s *Server) handleUpdateParticipant(w http.ResponseWriter, r *http.Request) {
	roomID, id := chi.URLParam(r, "room"), chi.URLParam(r, "id")
	var patch participantPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.findParticipant(r, roomID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch.apply(&p)
	if err := s.rooms.Update(r.Context(), roomID, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	roomID, id := chi.URLParam(r, "room"), chi.URLParam(r, "id")
	if err := s.rooms.Leave(r.Context(), roomID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findParticipant(r *http.Request, roomID, id string) (tiles.Participant, error) {
	if err := errors.ValidateRoomID(roomID); err != nil {
		return tiles.Participant{}, err
	}
	roster, err := s.rooms.List(r.Context(), roomID)
	if err != nil {
		return tiles.Participant{}, err
	}
	for _, p := range roster {
		if p.ID == id {
			return p, nil
		}
	}
	return tiles.Participant{}, errors.New(errors.ErrCodeParticipantNotFound, "participant %q is not in room %q", id, roomID)
}

// =============================================================================
// Arrangement
// =============================================================================

func (s *Server) handleArrangement(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	if err := errors.ValidateRoomID(roomID); err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.arrangementOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	roster, err := s.rooms.List(r.Context(), roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.Participants = roster
	opts.Logger = s.logger.With("room", roomID, "request_id", RequestID(r.Context()))

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeArtifact(w, result.Artifacts, opts.Formats, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
}

// arrangementOptions reads the arrangement query parameters.
func (s *Server) arrangementOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Mode:  q.Get("mode"),
		Style: q.Get("style"),
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{strings.ToLower(f)}
	} else {
		opts.Formats = []string{pipeline.FormatJSON}
	}

	var err error
	if opts.Width, err = queryFloat(r, "width", s.grid.Width); err != nil {
		return opts, err
	}
	if opts.Height, err = queryFloat(r, "height", s.grid.Height); err != nil {
		return opts, err
	}
	if opts.MaxVisible, err = queryInt(r, "max_visible", s.grid.MaxVisible); err != nil {
		return opts, err
	}
	if opts.SpeakerIndex, err = queryInt(r, "speaker", 0); err != nil {
		return opts, err
	}
	if q.Has("gap") {
		gap, err := queryFloat(r, "gap", s.grid.Gap)
		if err != nil {
			return opts, err
		}
		opts.Gap = tiles.Gap(gap)
	}
	s.applyGridDefaults(&opts)
	return opts, nil
}
