package main

import (
	"github.com/spf13/cobra"

	"github.com/tsukumogami/verse/internal/log"
	"github.com/tsukumogami/verse/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve versions over HTTP",
	Long: `Serve the version views as JSON over HTTP until interrupted.

Endpoints:
  GET /projects/                       catalog listing
  GET /projects/<slug>/                latest version
  GET /projects/<slug>/major/          latest per major line
  GET /projects/<slug>/minor/          latest per minor line
  GET /gh/<owner>/<repo>/[major/|minor/]  same views for any repository,
                                       with an optional ?constraint=
  GET /healthz

The listen address defaults to listen_addr from config.toml.

Examples:
  verse serve
  verse serve --addr :9000 --log-format json`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.user.ListenAddr
		}

		maxConns, _ := cmd.Flags().GetInt("max-conns")
		s, err := server.New(a.tracker,
			server.WithLogger(log.Default()),
			server.WithMaxConns(maxConns),
		)
		if err != nil {
			return err
		}
		printInfof("Serving %d projects on %s\n", len(a.tracker.Projects()), addr)
		return s.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (host:port)")
	serveCmd.Flags().Int("max-conns", 256, "Maximum simultaneous connections (0 for no limit)")
}
