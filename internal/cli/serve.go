package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilegrid/internal/server"
	"github.com/matzehuels/tilegrid/internal/sshview"
	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/room"
)

// serveCommand creates the serve command that runs the API server and the
// optional SSH viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		sshAddr string
		noSSH   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket, and SSH servers",
		Long: `Run the tilegrid servers.

The HTTP server answers layout and render requests, keeps room rosters, and
streams live layouts over WebSocket. When [ssh] is enabled in the config (or
--ssh is given) an SSH server draws each room as text in the terminal:

  ssh -p 2222 myroom@localhost

Rosters live in memory, Redis, or MongoDB depending on [rooms].backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if sshAddr != "" {
				cfg.SSH.Enabled = true
				cfg.SSH.Addr = sshAddr
			}
			if noSSH {
				cfg.SSH.Enabled = false
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&sshAddr, "ssh", "", "enable the SSH viewer on this address")
	cmd.Flags().BoolVar(&noSSH, "no-ssh", false, "disable the SSH viewer")

	return cmd
}

// runServe starts every enabled server and waits until ctx is cancelled or
// one of them fails.
func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, err := c.newRoomStore(ctx, cfg.Rooms)
	if err != nil {
		return fmt.Errorf("open room store: %w", err)
	}
	hub := room.NewHub(store, componentLogger(c.Logger, "rooms"))
	defer hub.Close()

	c.Logger.Info("starting", "rooms", cfg.Rooms.Backend, "cache", cfg.Cache.Backend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(cfg, runner, hub, componentLogger(c.Logger, "http")).Run(ctx)
	})
	if cfg.SSH.Enabled {
		g.Go(func() error {
			return sshview.New(cfg, hub, componentLogger(c.Logger, "ssh")).Run(ctx)
		})
	} else {
		c.Logger.Debug("ssh viewer disabled")
	}

	return g.Wait()
}
