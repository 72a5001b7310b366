package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vardump/pkg/popup"
)

// viewOpts holds options for the view command.
type viewOpts struct {
	inputFormat string
	query       string
}

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var opts viewOpts

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a document interactively",
		Long: `Browse a JSON, YAML or TOML document as a collapsible tree.

Keys:
  ↑/↓, j/k      move the cursor
  enter, space  expand or collapse the selected container
  p             open the selected value in a popup
  esc           close the popup
  q             quit

Mouse clicks toggle rows. A click outside an open popup closes it.

When stdout is not a terminal the tree is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			if f, ok := cmd.OutOrStdout().(*os.File); !ok || !isTerminal(f) {
				cfg := c.config()
				return c.runPrint(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path, printOpts{
					format:      formatText,
					inputFormat: opts.inputFormat,
					query:       opts.query,
					maxDepth:    cfg.MaxDepth,
					color:       cfg.Color,
				})
			}
			return c.runView(cmd.Context(), cmd.InOrStdin(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFormat, "input-format", "i", "", "input format: json, yaml, toml (default: from file extension, json for stdin)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "expression selecting the value to dump")

	return cmd
}

func (c *CLI) runView(ctx context.Context, in io.Reader, path string, opts viewOpts) error {
	v, err := loadValue(in, path, opts.inputFormat, opts.query)
	if err != nil {
		return err
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
	title := path
	if path == "-" {
		title = "stdin"
	}
	m := newTreeModel(title, tree, colorEnabled(cfg.Color, os.Stdout))
	m.popup = popup.Install(m,
		popup.WithDumper(d),
		popup.WithOffset(cfg.PopupOffsetX, cfg.PopupOffsetY),
		popup.WithLogger(c.Logger),
	)
	defer popup.Uninstall()

	progOpts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
	if path == "-" {
		// The document came in on stdin; read keys from the terminal.
		progOpts = append(progOpts, tea.WithInputTTY())
	}

	loggerFromContext(ctx).Debug("starting viewer", "rows", len(tree.Rows()))
	_, err = tea.NewProgram(m, progOpts...).Run()
	return err
}
