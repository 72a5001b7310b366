package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vardump/pkg/cache"
	"github.com/matzehuels/vardump/pkg/dump"
	"github.com/matzehuels/vardump/pkg/errors"
	"github.com/matzehuels/vardump/pkg/render"
	"github.com/matzehuels/vardump/pkg/source"
)

// Output formats for the print command.
const (
	formatText = "text"
	formatHTML = "html"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var outputFormats = []string{formatText, formatHTML, formatJSON, formatDOT, formatSVG}

// printOpts holds options for the print command.
type printOpts struct {
	format      string
	inputFormat string
	query       string
	expandAll   bool
	maxDepth    int
	width       int
	color       string
	output      string
	noCache     bool
}

// printCommand creates the print command for writing a dump non-interactively.
func (c *CLI) printCommand() *cobra.Command {
	var opts printOpts

	cmd := &cobra.Command{
		Use:   "print [file]",
		Short: "Print a document as a dump tree",
		Long: `Print a JSON, YAML or TOML document as a dump tree.

Only the root is expanded unless --expand-all is given. Use "-" or omit the
file to read from stdin.`,
		Example: `  # Print the top level of a document
  vardump print package.json

  # Expand everything down to three levels
  vardump print config.yaml --expand-all --max-depth 3

  # Select part of the document and render it as HTML
  vardump print data.json --query 'users[0]' --format html -o user.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			if !cmd.Flags().Changed("max-depth") {
				opts.maxDepth = c.config().MaxDepth
			}
			if !cmd.Flags().Changed("color") {
				opts.color = c.config().Color
			}
			return c.runPrint(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: "+strings.Join(outputFormats, ", "))
	cmd.Flags().StringVarP(&opts.inputFormat, "input-format", "i", "", "input format: json, yaml, toml (default: from file extension, json for stdin)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "expression selecting the value to dump")
	cmd.Flags().BoolVarP(&opts.expandAll, "expand-all", "a", false, "expand every container")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", render.DefaultMaxDepth, "depth limit for --expand-all")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 0, "truncate text lines to this many cells (0 = no limit)")
	cmd.Flags().StringVar(&opts.color, "color", colorAuto, "color text output: auto, always, never")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render SVG without the render cache")

	return cmd
}

func (c *CLI) runPrint(ctx context.Context, in io.Reader, out io.Writer, path string, opts printOpts) error {
	if err := validateOutputFormat(opts.format); err != nil {
		return err
	}

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

	if opts.output != "" {
		return c.writeOutputFile(ctx, tree, opts)
	}
	file, _ := out.(*os.File)
	color := opts.format == formatText && colorEnabled(opts.color, file)
	return c.writeTree(ctx, out, tree, opts, color)
}

// createOutput opens the --output destination.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutputFile renders tree into opts.output. The file is closed before
// success is reported.
func (c *CLI) writeOutputFile(ctx context.Context, tree *dump.Tree, opts printOpts) error {
	wc, err := createOutput(opts.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	file, _ := wc.(*os.File)
	color := opts.format == formatText && colorEnabled(opts.color, file)

	err = c.writeTree(ctx, wc, tree, opts, color)
	if cerr := wc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output %s: %w", opts.output, cerr)
	}
	if err != nil {
		return err
	}
	printSuccess("Wrote %s", opts.format)
	printFile(opts.output)
	return nil
}

// writeTree renders tree to w in the requested format.
func (c *CLI) writeTree(ctx context.Context, w io.Writer, tree *dump.Tree, opts printOpts, color bool) error {
	if opts.expandAll && opts.format != formatText {
		if err := render.ExpandAll(tree, opts.maxDepth); err != nil {
			return err
		}
	}

	switch opts.format {
	case formatText:
		if color {
			// Output may not be the terminal lipgloss detected at startup.
			prev := lipgloss.ColorProfile()
			lipgloss.SetColorProfile(termenv.ANSI256)
			defer lipgloss.SetColorProfile(prev)
		}
		return render.Text(w, tree, render.TextOptions{
			Color:     color,
			ExpandAll: opts.expandAll,
			MaxDepth:  opts.maxDepth,
			Width:     opts.width,
		})
	case formatHTML:
		return render.HTML(w, tree)
	case formatJSON:
		return render.JSON(w, tree)
	case formatDOT:
		_, err := io.WriteString(w, render.DOT(tree))
		return err
	case formatSVG:
		svg, err := renderSVG(ctx, newCache(opts.noCache), tree)
		if err != nil {
			return err
		}
		_, err = w.Write(svg)
		return err
	}
	return validateOutputFormat(opts.format)
}

func validateOutputFormat(format string) error {
	for _, f := range outputFormats {
		if format == f {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q (want one of %s)",
		format, strings.Join(outputFormats, ", "))
}

// loadValue decodes path, or in when path is "-", and applies query.
func loadValue(in io.Reader, path, inputFormat, query string) (any, error) {
	var format source.Format
	if inputFormat != "" {
		f, err := source.ParseFormat(inputFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var (
		v   any
		err error
	)
	if path == "-" {
		if format == "" {
			format = source.FormatJSON
		}
		v, err = source.Read(in, format)
	} else {
		v, err = source.ReadFile(path, format)
	}
	if err != nil {
		return nil, err
	}
	return source.Query(v, query)
}

// renderSVG renders tree through Graphviz, reusing a cached result for an
// identical DOT source.
func renderSVG(ctx context.Context, c cache.Cache, tree *dump.Tree) ([]byte, error) {
	logger := loggerFromContext(ctx)
	defer c.Close()

	key := cache.Key(formatSVG, []byte(render.DOT(tree)))
	if svg, hit, err := c.Get(ctx, key); err != nil {
		logger.Warn("render cache", "err", err)
	} else if hit {
		logger.Debug("render cache hit", "key", key)
		return svg, nil
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
	if isTerminal(os.Stderr) {
		spinner.Start()
	}
	svg, err := render.SVG(ctx, tree)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Rendered SVG")

	if err := c.Set(ctx, key, svg, svgCacheTTL); err != nil {
		logger.Warn("render cache", "err", err)
	}
	return svg, nil
}
