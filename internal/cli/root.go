package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/charliek/logview/internal/config"
	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/state"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath string
	apiAddr    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "logview",
	Short: "A live log viewer for the browser and the terminal",
	Long: `logview ingests log lines from stdin, a file or a command, keeps them
in memory and serves filtered live views of them over websockets.

  app | logview              # serve piped logs on http://127.0.0.1:8000
  logview serve --file app.log
  logview tail -f --filter "error db"
  logview view               # terminal viewer`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. With piped stdin and no subcommand,
// logview serves.
func Execute() {
	rootCmd.SetArgs(defaultToServe(os.Args[1:], stdinPiped()))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "logview version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: logview.yaml or logview.toml if present)")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", "", "Server address for client commands (default: discovered)")

	rootCmd.SetVersionTemplate("logview version {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}

// defaultToServe prepends "serve" when no subcommand was given and
// input is being piped in
func defaultToServe(args []string, piped bool) []string {
	if !piped {
		return args
	}
	if len(args) > 0 {
		first := args[0]
		if !strings.HasPrefix(first, "-") || first == "-h" || first == "--help" || first == "-v" || first == "--version" {
			return args
		}
	}
	return append([]string{"serve"}, args...)
}

// stdinPiped reports whether stdin is a pipe or file rather than a terminal
func stdinPiped() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// discoverAddress finds the server for client commands.
// Priority:
// 1. --addr
// 2. State file (.logview/logview.state) of a running server
// 3. Config file host and port
// 4. Default address
func discoverAddress() string {
	if apiAddr != "" {
		return normalizeAddr(apiAddr)
	}

	if s, err := state.LoadRunning(""); err == nil {
		return s.BaseURL()
	}

	if cfg, err := config.LoadOrDefault(configPath); err == nil {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = constants.DefaultHost
		}
		return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
	}

	return constants.DefaultAddress
}

// normalizeAddr accepts host:port as well as full URLs
func normalizeAddr(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "http://" + strings.TrimSuffix(addr, "/")
}
