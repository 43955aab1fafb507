package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/observe"
	"github.com/matzehuels/tilegrid/pkg/room"
	"github.com/matzehuels/tilegrid/pkg/tiles"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
)

// resizeMessage is sent by clients whenever their container changes size.
type resizeMessage struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame is pushed to clients after every layout change. Count is the whole
// roster; Layout covers only the visible participants, as in the
// arrangement endpoint.
type Frame struct {
	observe.Snapshot

	// Overflow counts participants beyond the visible cap.
	Overflow int `json:"overflow,omitempty"`
}

// newFrame caps snap at maxVisible participants, which must already be
// clamped with tiles.ClampMaxVisible.
func newFrame(snap observe.Snapshot, maxVisible int) Frame {
	visible := min(snap.Count, maxVisible)
	if visible != snap.Count {
		snap.Layout = grid.ComputeSize(visible, snap.Size, grid.WithGap(snap.Layout.Gap))
	}
	return Frame{Snapshot: snap, Overflow: snap.Count - visible}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	if err := errors.ValidateRoomID(roomID); err != nil {
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
	if err := errors.ValidateDimensions(width, height); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Warn("websocket upgrade failed", "room", roomID, "error", err)
		return
	}

	s.streams.Add(1)
	defer s.streams.Add(-1)

	logger := s.logger.With("room", roomID, "request_id", RequestID(r.Context()))
	st := newStream(conn, logger, tiles.ClampMaxVisible(s.grid.MaxVisible))

	obs := observe.New(
		observe.WithInitialSize(grid.Size{Width: width, Height: height}),
		observe.WithGap(s.grid.Gap),
		observe.WithLogger(logger),
	)
	feed := observe.NewFeed()
	obs.Attach(feed)

	sub := obs.Subscribe(st.push)
	defer func() {
		sub.Unsubscribe()
		obs.Close()
		st.close(websocket.CloseNormalClosure)
		logger.Debug("stream closed")
	}()

	// The first event is the current roster; later ones follow in write order.
	cancelRoster, err := s.rooms.Subscribe(r.Context(), roomID, func(e room.Event) {
		obs.SetParticipants(len(e.Roster))
	})
	if err != nil {
		logger.Error("load roster", "error", err)
		st.close(websocket.CloseInternalServerErr)
		return
	}
	defer cancelRoster()
	logger.Debug("stream opened", "participants", obs.Current().Count, "subscription", sub.ID())

	go st.writeLoop()
	go st.closeOnDone(r.Context())
	st.readLoop(feed.Notify)
}

// stream is one WebSocket connection. Only the newest unsent frame is kept:
// a slow client skips intermediate layouts instead of queueing them.
type stream struct {
	conn       *websocket.Conn
	logger     *log.Logger
	maxVisible int
	latest     chan []byte
	done       chan struct{}
	once       sync.Once
}

func newStream(conn *websocket.Conn, logger *log.Logger, maxVisible int) *stream {
	return &stream{
		conn:       conn,
		logger:     logger,
		maxVisible: maxVisible,
		latest:     make(chan []byte, 1),
		done:       make(chan struct{}),
	}
}

// push queues snap for writing, replacing any frame not yet written.
// Observer deliveries are serialized, so push never races itself.
func (st *stream) push(snap observe.Snapshot) {
	data, err := json.Marshal(newFrame(snap, st.maxVisible))
	if err != nil {
		st.logger.Error("encode frame", "error", err)
		return
	}
	for {
		select {
		case <-st.done:
			return
		case st.latest <- data:
			return
		default:
		}
		select {
		case <-st.latest:
		default:
		}
	}
}

func (st *stream) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-st.done:
			return
		case data := <-st.latest:
			_ = st.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := st.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				st.logger.Debug("write frame", "error", err)
				st.close(websocket.CloseGoingAway)
				return
			}
		case <-ticker.C:
			_ = st.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := st.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				st.close(websocket.CloseGoingAway)
				return
			}
		}
	}
}

// readLoop applies resize messages until the connection fails or closes.
// Malformed or out-of-range sizes are ignored.
func (st *stream) readLoop(resize func(grid.Size)) {
	st.conn.SetReadLimit(maxMessageSize)
	_ = st.conn.SetReadDeadline(time.Now().Add(pongWait))
	st.conn.SetPongHandler(func(string) error {
		_ = st.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				st.logger.Debug("read frame", "error", err)
			}
			return
		}
		var msg resizeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			st.logger.Debug("ignoring malformed message", "error", err)
			continue
		}
		if err := errors.ValidateDimensions(msg.Width, msg.Height); err != nil {
			st.logger.Debug("ignoring resize", "error", err)
			continue
		}
		resize(grid.Size{Width: msg.Width, Height: msg.Height})
	}
}

func (st *stream) closeOnDone(ctx context.Context) {
	select {
	case <-ctx.Done():
		st.close(websocket.CloseGoingAway)
	case <-st.done:
	}
}

// close sends a close frame with code and tears the connection down.
func (st *stream) close(code int) {
	st.once.Do(func() {
		close(st.done)
		msg := websocket.FormatCloseMessage(code, "")
		_ = st.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = st.conn.Close()
	})
}
