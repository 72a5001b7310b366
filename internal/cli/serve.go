package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vardump/pkg/server"
	"github.com/matzehuels/vardump/pkg/store"
)

// serveCommand creates the serve command that runs the dump server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		backend  string
		maxTrees int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dumps over HTTP",
		Long: `Run an HTTP server that stores posted documents as snapshots and shows
them as collapsible trees in the browser.

Nodes are expanded on the server when clicked, so large documents are only
built as far as they are explored.`,
		Example: `  # Start the server
  vardump serve --addr 127.0.0.1:7070

  # Post a document from another shell
  curl --data-binary @package.json 'http://127.0.0.1:7070/dumps?name=package'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if addr == "" {
				addr = cfg.ServerAddr
			}
			stCfg := cfg.Store
			if backend != "" {
				stCfg.Backend = backend
			}
			return c.runServe(cmd.Context(), addr, stCfg, maxTrees)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&backend, "store", "", "snapshot store backend (default from config)")
	cmd.Flags().IntVar(&maxTrees, "max-trees", server.DefaultMaxTrees, "number of live trees kept in memory")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, stCfg store.Config, maxTrees int) error {
	st, err := store.New(ctx, stCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	d, err := c.newDumper()
	if err != nil {
		return err
	}
	srv := server.New(st,
		server.WithDumper(d),
		server.WithLogger(c.Logger),
		server.WithMaxTrees(maxTrees),
	)

	printInfo("Serving dumps on %s", StyleLink.Render("http://"+addr+"/dumps"))
	printKeyValue("store", stCfg.Backend)
	if !isLoopback(addr) {
		printWarning("%s is reachable from other hosts and the server has no authentication", addr)
	}
	printNextStep("Post a document", fmt.Sprintf("curl --data-binary @doc.json http://%s/dumps", addr))

	return srv.ListenAndServe(ctx, addr)
}

// isLoopback reports whether addr binds only to the local machine.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
