// Package sshview serves a live text preview of the grid over SSH.
//
// Connect with a PTY. The SSH user names the room to watch; a numeric
// command shows that many placeholder participants instead:
//
//	ssh -t -p 2222 standup@localhost    # watch room "standup"
//	ssh -t -p 2222 localhost 7          # preview 7 participants
//
// Resizing the terminal re-lays the grid. Keys: + and - change the
// placeholder count, m toggles speaker mode, q quits.
package sshview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gliderlabs/ssh"

	"github.com/matzehuels/tilegrid/pkg/config"
	tgerrors "github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
	"github.com/matzehuels/tilegrid/pkg/observe"
	"github.com/matzehuels/tilegrid/pkg/room"
)

// Terminal escape sequences.
const (
	altScreenOn  = "\x1b[?1049h"
	altScreenOff = "\x1b[?1049l"
	cursorHide   = "\x1b[?25l"
	cursorShow   = "\x1b[?25h"
	clearHome    = "\x1b[H\x1b[2J"
)

// Server is the SSH preview server.
type Server struct {
	cfg    config.SSHConfig
	grid   config.GridConfig
	rooms  *room.Hub
	logger *log.Logger
}

// New creates an SSH preview server. A nil hub limits sessions to
// placeholder previews.
func New(cfg config.Config, rooms *room.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{cfg: cfg.SSH, grid: cfg.Grid, rooms: rooms, logger: logger}
}

// Run listens until ctx is cancelled. Without a configured host key a new
// key is generated for each run.
func (s *Server) Run(ctx context.Context) error {
	srv := &ssh.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.handleSession,
		IdleTimeout: s.cfg.IdleTimeout.Duration,
	}
	if s.cfg.HostKey != "" {
		if err := srv.SetOption(ssh.HostKeyFile(s.cfg.HostKey)); err != nil {
			return fmt.Errorf("set host key: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("ssh server listening", "addr", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSession(sess ssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		_ = sess.Exit(1)
		return
	}

	v, roomID, err := s.newView(sess)
	if err != nil {
		fmt.Fprintf(sess, "Error: %s\n", tgerrors.UserMessage(err))
		_ = sess.Exit(1)
		return
	}
	logger := s.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
	logger.Info("ssh session opened", "room", roomID, "term", ptyReq.Term)
	defer logger.Info("ssh session closed")

	obs := observe.New(
		observe.WithInitialSize(TermSize(ptyReq.Window)),
		observe.WithGap(v.gap),
		observe.WithParticipants(v.count()),
		observe.WithLogger(logger),
	)
	defer obs.Close()

	sizes := make(chan grid.Size)
	done := make(chan struct{})
	defer close(done)
	go forwardWindows(winCh, sizes, done)
	obs.Attach(observe.ChanRegion(sizes))

	redraw := make(chan observe.Snapshot, 1)
	sub := obs.Subscribe(func(snap observe.Snapshot) { offer(redraw, snap) })
	defer sub.Unsubscribe()

	if roomID != "" && s.rooms != nil {
		cancel, err := s.rooms.Subscribe(sess.Context(), roomID, func(e room.Event) {
			v.setRoster(e.Roster)
			obs.SetParticipants(len(e.Roster))
		})
		if err != nil {
			fmt.Fprintf(sess, "Error: %s\n", tgerrors.UserMessage(err))
			return
		}
		defer cancel()
	}

	io.WriteString(sess, altScreenOn+cursorHide)
	defer io.WriteString(sess, cursorShow+altScreenOff)

	keys := make(chan byte, 16)
	go readKeys(sess, keys, done)

	for {
		select {
		case <-sess.Context().Done():
			return
		case snap := <-redraw:
			io.WriteString(sess, clearHome+toCRLF(v.frame(snap.Size)))
		case k, ok := <-keys:
			if !ok {
				return
			}
			switch v.handleKey(k) {
			case actionQuit:
				return
			case actionCount:
				obs.SetParticipants(v.count())
			case actionRedraw:
				offer(redraw, obs.Current())
			}
		}
	}
}

// newView builds the session's view from its command and user. A numeric
// command previews placeholders; otherwise the user names a room.
func (s *Server) newView(sess ssh.Session) (*view, string, error) {
	v := newView(s.grid)
	if args := sess.Command(); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, "", tgerrors.New(tgerrors.ErrCodeInvalidCount, "expected a participant count, got %q", args[0])
		}
		if err := tgerrors.ValidateCount(n); err != nil {
			return nil, "", err
		}
		v.setPlaceholders(n)
		return v, "", nil
	}
	if s.rooms == nil {
		v.setPlaceholders(4)
		return v, "", nil
	}
	roomID := sess.User()
	if err := tgerrors.ValidateRoomID(roomID); err != nil {
		return nil, "", err
	}
	return v, roomID, nil
}

// forwardWindows converts PTY window changes to container sizes until
// winCh closes or done is closed.
func forwardWindows(winCh <-chan ssh.Window, sizes chan<- grid.Size, done <-chan struct{}) {
	for win := range winCh {
		select {
		case sizes <- TermSize(win):
		case <-done:
			return
		}
	}
}

// readKeys forwards input bytes until the session's input ends or done is
// closed.
func readKeys(r io.Reader, keys chan<- byte, done <-chan struct{}) {
	defer close(keys)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			select {
			case keys <- b:
			case <-done:
				return
			}
		}
	}
}

// offer replaces any pending snapshot in ch with snap.
func offer(ch chan observe.Snapshot, snap observe.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func toCRLF(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}
