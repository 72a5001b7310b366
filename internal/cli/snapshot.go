package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/render"
	"github.com/matzehuels/vardump/pkg/source"
	"github.com/matzehuels/vardump/pkg/store"
)

// snapshotCommand creates the snapshot command group.
func (c *CLI) snapshotCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage stored snapshots",
		Long: `Manage documents stored as snapshots.

Snapshots keep the original document bytes. They are shared with the dump
server when both use the same store.`,
	}

	cmd.PersistentFlags().StringVar(&backend, "store", "", "snapshot store backend (default from config)")

	open := func(ctx context.Context) (store.Store, error) {
		cfg := c.config().Store
		if backend != "" {
			cfg.Backend = backend
		}
		return store.New(ctx, cfg)
	}

	cmd.AddCommand(c.snapshotSaveCommand(open))
	cmd.AddCommand(c.snapshotListCommand(open))
	cmd.AddCommand(c.snapshotShowCommand(open))
	cmd.AddCommand(c.snapshotRmCommand(open))

	return cmd
}

type storeOpener func(ctx context.Context) (store.Store, error)

func (c *CLI) snapshotSaveCommand(open storeOpener) *cobra.Command {
	var name, inputFormat string

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Store a document as a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := readSnapshot(cmd.InOrStdin(), path, inputFormat)
			if err != nil {
				return err
			}
			snap.Name = name
			if err := st.Save(cmd.Context(), snap); err != nil {
				return err
			}

			printSuccess("Saved snapshot %s", snap.ID)
			printDetail("%s, %s", snap.Format, formatSize(len(snap.Data)))
			printNextStep("Show it", "vardump snapshot show "+snap.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name")
	cmd.Flags().StringVarP(&inputFormat, "input-format", "i", "", "input format: json, yaml, toml (default: from file extension, json for stdin)")

	return cmd
}

// readSnapshot reads the raw document and checks that it decodes.
func readSnapshot(in io.Reader, path, inputFormat string) (*store.Snapshot, error) {
	var (
		format source.Format
		data   []byte
		err    error
	)
	switch {
	case inputFormat != "":
		format, err = source.ParseFormat(inputFormat)
	case path == "-":
		format = source.FormatJSON
	default:
		format, err = source.DetectFormat(path)
	}
	if err != nil {
		return nil, err
	}

	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file %s not found", path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if _, err := source.Decode(data, format); err != nil {
		return nil, err
	}
	return &store.Snapshot{Format: format, Data: data}, nil
}

func (c *CLI) snapshotListCommand(open storeOpener) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("No snapshots")
				printNextStep("Store one", "vardump snapshot save FILE")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), snapshotTable(infos, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of snapshots (0 = all)")

	return cmd
}

func (c *CLI) snapshotShowCommand(open storeOpener) *cobra.Command {
	var (
		opts printOpts
		meta bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored snapshot as a dump tree",
		Long: `Print a stored snapshot as a dump tree.

With --meta the snapshot's metadata is dumped instead of its document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.ParseID(args[0])
			if err != nil {
				return err
			}
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := st.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			var v any = snap.Info()
			if !meta {
				if v, err = snap.Decode(); err != nil {
					return err
				}
				if v, err = source.Query(v, opts.query); err != nil {
					return err
				}
			}

			d, err := c.newDumper()
			if err != nil {
				return err
			}
			tree, err := d.Dump(v)
			if err != nil {
				return err
			}

			cfg := c.config()
			if !cmd.Flags().Changed("max-depth") {
				opts.maxDepth = cfg.MaxDepth
			}
			if err := validateOutputFormat(opts.format); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			f, _ := out.(*os.File)
			color := opts.format == formatText && colorEnabled(cfg.Color, f)
			return c.writeTree(cmd.Context(), out, tree, opts, color)
		},
	}

	cmd.Flags().BoolVar(&meta, "meta", false, "dump the snapshot metadata")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, html, json, dot, svg")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "expression selecting the value to dump")
	cmd.Flags().BoolVarP(&opts.expandAll, "expand-all", "a", false, "expand every container")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", render.DefaultMaxDepth, "depth limit for --expand-all")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 0, "truncate text lines to this many cells (0 = no limit)")

	return cmd
}

func (c *CLI) snapshotRmCommand(open storeOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			for _, arg := range args {
				id, err := store.ParseID(arg)
				if err != nil {
					return err
				}
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				printSuccess("Deleted snapshot %s", id)
			}
			return nil
		},
	}

	return cmd
}
