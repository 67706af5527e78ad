package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/charliek/logview/internal/api"
	"github.com/charliek/logview/internal/config"
	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/ingest"
	"github.com/charliek/logview/internal/logs"
	"github.com/charliek/logview/internal/parser"
	"github.com/charliek/logview/internal/state"
)

var serveOpts serveFlags

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest logs and serve viewers",
	Long: `Ingest log lines and serve live filtered views of them.

Lines are read from stdin unless --file or --exec is given. The server
keeps running after the input ends so stored lines stay browsable.

Examples:
  app | logview serve                  # JSON lines from stdin
  logview serve --file /var/log/app.log
  logview serve --exec "kubectl logs -f deploy/api" -s
  logview serve -p text --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveOpts.register(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	serveOpts.apply(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if serveOpts.detach && !state.IsDaemonChild() {
		return detach(cmd.OutOrStdout(), cfg)
	}

	logOut := cmd.ErrOrStderr()
	if state.IsDaemonChild() {
		f, err := state.OpenLog("")
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	log, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}

	if cfg.Input.File == "" && cfg.Input.Exec == "" && !stdinPiped() {
		return errors.New("no input: pipe logs to stdin or use --file or --exec")
	}

	// One server per directory; clients find it through the state file
	lock, err := state.Acquire("")
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.WithError(err).Warn("releasing lock")
		}
	}()

	app, err := newServeApp(cfg, os.Stdin, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}

	st := &state.State{
		PID:       os.Getpid(),
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		StartedAt: time.Now(),
		Input:     cfg.InputDescription(),
	}
	if err := st.Write(""); err != nil {
		return err
	}
	defer func() {
		if err := state.Remove(""); err != nil {
			log.WithError(err).Warn("removing state file")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"addr":   st.BaseURL(),
		"input":  st.Input,
		"parser": cfg.Parser.Name,
	}).Info("starting logview")

	err = app.Run(ctx)
	log.WithField("lines", app.ingester.Lines()).Info("shutdown complete")
	return err
}

// detach restarts serve as a background process. Only file and command
// inputs can be detached; stdin belongs to the foreground.
func detach(w io.Writer, cfg *config.Config) error {
	if cfg.Input.File == "" && cfg.Input.Exec == "" {
		return errors.New("--detach needs --file or --exec")
	}
	if s, err := state.LoadRunning(""); err == nil {
		return fmt.Errorf("%w (pid %d)", state.ErrLocked, s.PID)
	}

	pid, err := state.Daemonize("")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "logview started in background (pid %d)\n", pid)
	fmt.Fprintf(w, "Server logs: %s\n", state.LogPath(""))
	return nil
}

// serveApp is the ingester and server of one logview process
type serveApp struct {
	manager  *logs.Manager
	ingester *ingest.Ingester
	server   *api.Server
}

// newServeApp wires the configured input, parser, store and server
func newServeApp(cfg *config.Config, stdin io.Reader, stdout io.Writer, log logrus.FieldLogger) (*serveApp, error) {
	p, err := parser.New(cfg.Parser.Name, parser.Options{ExpandNested: cfg.Parser.ExpandNested})
	if err != nil {
		return nil, err
	}

	manager := logs.NewManager(logs.ManagerConfig{
		IncludeKeys: cfg.Index.Keys,
		Session: logs.SessionConfig{
			DefaultMaxMessages: cfg.Viewer.MaxMessages,
			LatestSize:         cfg.Viewer.Latest(),
			SendBuffer:         cfg.Viewer.SendBuffer,
			RequestBuffer:      constants.DefaultRequestBuffer,
		},
	}, log)

	ing := &ingest.Ingester{
		Source: newSource(cfg.Input, stdin, log),
		Parser: p,
		Sink:   manager,
		Log:    log.WithField("component", "ingest"),
	}
	if cfg.Input.Stdout {
		ing.Echo = stdout
	}

	handlers := api.NewHandlers(manager, api.HandlersConfig{
		Input:        cfg.InputDescription(),
		PingInterval: cfg.Viewer.Ping(),
		WriteTimeout: cfg.Viewer.Write(),
	}, log)
	server := api.NewServer(api.ServerConfig{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		StaticDir: cfg.Server.StaticDir,
	}, handlers, log)

	return &serveApp{
		manager:  manager,
		ingester: ing,
		server:   server,
	}, nil
}

// newSource picks the input: a command, a followed file or stdin
func newSource(in config.InputConfig, stdin io.Reader, log logrus.FieldLogger) ingest.Source {
	switch {
	case in.Exec != "":
		return &ingest.CommandSource{Command: in.Exec, StopTimeout: constants.DefaultShutdownTimeout / 2}
	case in.File != "":
		return &ingest.FileSource{
			Path:      in.File,
			FromStart: in.FromStart,
			ReOpen:    in.ReOpen,
			Poll:      in.Poll,
			Log:       log,
		}
	default:
		return ingest.NewReaderSource(stdin)
	}
}

// Run ingests and serves until ctx is canceled or the server fails.
// The input ending, or failing, does not stop the server.
func (a *serveApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Already logged by the ingester
		_ = a.ingester.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return a.server.Run(gctx)
	})

	return g.Wait()
}
