package cli

import (
	"github.com/spf13/cobra"

	"github.com/charliek/logview/internal/config"
)

// serveFlags holds the serve command line. Only flags the user actually
// set override the config file and environment.
type serveFlags struct {
	host        string
	port        int
	parser      string
	indexKeys   bool
	stdout      bool
	file        string
	fromStart   bool
	exec        string
	static      string
	maxMessages int
	latestSize  int
	logLevel    string
	logFormat   string
	detach      bool
}

func (f *serveFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.host, "host", "", "Host to bind (default 127.0.0.1)")
	flags.IntVar(&f.port, "port", 0, "Port to listen on (default 8000)")
	flags.StringVarP(&f.parser, "parser", "p", "", "Line parser: json or text (default json)")
	flags.BoolVarP(&f.indexKeys, "index-keys", "k", false, "Match filters against object keys as well as values")
	flags.BoolVarP(&f.stdout, "stdout", "s", false, "Echo every ingested line to stdout")
	flags.StringVar(&f.file, "file", "", "Follow a file instead of reading stdin")
	flags.BoolVar(&f.fromStart, "from-start", false, "With --file, ingest the existing content first")
	flags.StringVar(&f.exec, "exec", "", "Run a shell command and ingest its output")
	flags.StringVar(&f.static, "static", "", "Directory of web assets served at /")
	flags.IntVar(&f.maxMessages, "max-messages", 0, "Default viewer window size")
	flags.IntVar(&f.latestSize, "latest-size", 0, "Newest matches sent to static viewers (0 disables)")
	flags.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	flags.BoolVarP(&f.detach, "detach", "d", false, "Run in the background (needs --file or --exec)")
}

// apply copies the flags the user set onto cfg
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("host") {
		cfg.Server.Host = f.host
	}
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("parser") {
		cfg.Parser.Name = f.parser
	}
	if changed("index-keys") {
		cfg.Index.Keys = f.indexKeys
	}
	if changed("stdout") {
		cfg.Input.Stdout = f.stdout
	}
	if changed("file") {
		cfg.Input.File = f.file
		cfg.Input.Exec = ""
	}
	if changed("from-start") {
		cfg.Input.FromStart = f.fromStart
	}
	if changed("exec") {
		cfg.Input.Exec = f.exec
		if !changed("file") {
			cfg.Input.File = ""
		}
	}
	if changed("static") {
		cfg.Server.StaticDir = f.static
	}
	if changed("max-messages") {
		cfg.Viewer.MaxMessages = f.maxMessages
	}
	if changed("latest-size") {
		n := f.latestSize
		cfg.Viewer.LatestSize = &n
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
}
