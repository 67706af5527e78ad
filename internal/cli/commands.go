package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/charliek/logview/internal/client"
	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
	"github.com/charliek/logview/internal/state"
	"github.com/charliek/logview/internal/tui"
)

// Command flags
var (
	statusJSON bool

	tailFollow bool
	tailFilter string
	tailLines  int
	tailJSON   bool

	viewFilter string
	viewLines  int
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running server's status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.OutOrStdout(), client.New(discoverAddress()))
	},
}

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the newest matching lines",
	Long: `Print the newest lines matching a filter, optionally following new ones.

A filter is a list of words; a line matches when every word is found in
one of its values.

Examples:
  logview tail                    # last 100 lines
  logview tail -n 20 --filter error
  logview tail -f --filter "db timeout"`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server running in this directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(cmd.OutOrStdout(), "", constants.DefaultShutdownTimeout)
	},
}

// viewCmd represents the view command
var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the terminal viewer",
	Args:  cobra.NoArgs,
	RunE:  runView,
}

func init() {
	rootCmd.AddCommand(statusCmd, tailCmd, stopCmd, viewCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	tailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "Keep printing new matching lines")
	tailCmd.Flags().StringVar(&tailFilter, "filter", "", "Words every printed line must match")
	tailCmd.Flags().IntVarP(&tailLines, "lines", "n", constants.DefaultMaxMessages, "Number of lines to print")
	tailCmd.Flags().BoolVar(&tailJSON, "json", false, "Print each line's parsed data as JSON")

	viewCmd.Flags().StringVar(&viewFilter, "filter", "", "Initial filter")
	viewCmd.Flags().IntVarP(&viewLines, "lines", "n", constants.DefaultMaxMessages, "Window size")
}

func runStatus(w io.Writer, c *client.Client) error {
	status, err := c.Status()
	if err != nil {
		return fmt.Errorf("%w\nIs logview running? Pipe logs into 'logview serve' first", err)
	}

	if statusJSON {
		return json.NewEncoder(w).Encode(status)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Server:\t%s\n", c.BaseURL())
	fmt.Fprintf(tw, "Status:\t%s\n", status.Status)
	fmt.Fprintf(tw, "Uptime:\t%s\n", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
	if status.Input != "" {
		fmt.Fprintf(tw, "Input:\t%s\n", status.Input)
	}
	fmt.Fprintf(tw, "Lines:\t%s\n", humanize.Comma(int64(status.TotalSize)))
	fmt.Fprintf(tw, "Viewers:\t%d\n", status.Viewers)
	fmt.Fprintf(tw, "Index keys:\t%t\n", status.IndexKeys)
	return tw.Flush()
}

// runStop sends SIGTERM to the server recorded in dir and waits for it
// to exit
func runStop(w io.Writer, dir string, timeout time.Duration) error {
	st, err := state.Signal(dir, syscall.SIGTERM)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) || errors.Is(err, state.ErrStale) {
			return errors.New("logview is not running in this directory")
		}
		return err
	}
	fmt.Fprintf(w, "Stopping logview (pid %d)...\n", st.PID)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !state.ProcessExists(st.PID) {
			fmt.Fprintln(w, "Stopped")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("pid %d still running after %s", st.PID, timeout)
}

func runTail(cmd *cobra.Command, args []string) error {
	if tailLines < 1 || tailLines > constants.MaxWindow {
		return fmt.Errorf("invalid lines value %d (must be 1-%d)", tailLines, constants.MaxWindow)
	}

	out := cmd.OutOrStdout()
	printer := NewLogPrinter(out, !tailJSON && isTerminal(out), tailJSON)
	req := domain.TailRequest(tailFilter, tailLines)
	addr := discoverAddress()

	if !tailFollow {
		return printSnapshot(out, printer, client.New(addr), req)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	return followLogs(ctx, conn, req, printer)
}

// printSnapshot prints the current tail window once
func printSnapshot(w io.Writer, printer *LogPrinter, c *client.Client, req domain.Request) error {
	resp, err := c.Logs(req)
	if err != nil {
		return err
	}
	for _, e := range resp.Window.Messages {
		if err := printer.PrintEntry(e); err != nil {
			return err
		}
	}
	if !printer.json && len(resp.Window.Messages) < resp.Window.Size {
		fmt.Fprintf(w, "\n(showing %s of %s matching lines)\n",
			humanize.Comma(int64(len(resp.Window.Messages))), humanize.Comma(int64(resp.Window.Size)))
	}
	return nil
}

// followLogs asks for a tail window on conn and prints it, then every
// update, until ctx is canceled or the server goes away
func followLogs(ctx context.Context, conn tui.Viewer, req domain.Request, printer *LogPrinter) error {
	if err := conn.Send(req); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	if closer, ok := conn.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { closer.Close() })
		defer stop()
	}

	// The server greets every connection with an unfiltered tail window
	// before it reads any request; ours is the second init.
	inits := 0
	for {
		msg, err := conn.Recv()
		if err != nil {
			if ctx.Err() != nil || client.IsClosed(err) {
				return nil
			}
			return fmt.Errorf("receiving: %w", err)
		}

		switch {
		case msg.Init != nil:
			inits++
			if inits < 2 {
				continue
			}
			for _, e := range msg.Init.Window.Messages {
				if err := printer.PrintEntry(e); err != nil {
					return err
				}
			}
		case msg.Update != nil && inits >= 2:
			if err := printer.PrintEntry(msg.Update.Message); err != nil {
				return err
			}
		}
	}
}

func runView(cmd *cobra.Command, args []string) error {
	addr := discoverAddress()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("%w\nIs logview running? Pipe logs into 'logview serve' first", err)
	}
	defer conn.Close()

	return tui.Run(ctx, conn, tui.Options{
		Filter:      viewFilter,
		MaxMessages: viewLines,
		Title:       addr,
	})
}

// isTerminal reports whether w is a terminal, for colored output
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// formatDuration formats a duration nicely
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
