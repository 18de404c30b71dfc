package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dataviz/adapters/render"
	"dataviz/domain/chart"
	"dataviz/internal/planner"
	"dataviz/internal/profiling"
	"dataviz/internal/session"
	"dataviz/internal/visualizer"

	"github.com/spf13/cobra"
)

type renderOptions struct {
	kind   string
	x      string
	y      string
	color  string
	title  string
	theme  string
	format string
	output string
	width  int
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a chart from a CSV or Excel file",
		Long: `Load a file, plan the chart and export it without starting a server.

Example: dataviz render sales.csv --kind bar --x Region --y Sales --format png -o sales.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := runRender(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ chart written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", "", "Chart type: line, bar, scatter, pie, area or histogram")
	cmd.Flags().StringVar(&opts.x, "x", "", "X-axis column (labels for pie charts)")
	cmd.Flags().StringVar(&opts.y, "y", "", "Y-axis column (values for pie charts)")
	cmd.Flags().StringVar(&opts.color, "color", "", "Column to group series by")
	cmd.Flags().StringVar(&opts.title, "title", "", "Chart title (default \"<kind> of <column>\")")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "Theme: "+themeNames())
	cmd.Flags().StringVar(&opts.format, "format", "html", "Output format: html or png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path (default: chart title plus extension)")
	cmd.Flags().IntVar(&opts.width, "width", render.DefaultWidth, "Chart width in pixels")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("x")

	return cmd
}

func themeNames() string {
	names := make([]string, 0, len(chart.AllThemes()))
	for _, t := range chart.AllThemes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func optional(name string) chart.Field {
	if strings.TrimSpace(name) == "" {
		return chart.None()
	}
	return chart.Some(name)
}

// runRender pushes one file through upload, generate and export, returning the written path
func runRender(ctx context.Context, input string, opts renderOptions) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	kind, err := chart.ParseKind(opts.kind)
	if err != nil {
		return "", err
	}
	format := strings.ToLower(opts.format)
	if format != "html" && format != "png" {
		return "", fmt.Errorf("invalid format: %s (must be html or png)", opts.format)
	}

	svc := visualizer.NewService(session.NewStore(), render.NewGoChartRenderer(opts.width), visualizer.Config{})
	id := svc.CreateSession().ID

	f, err := os.Open(input)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer f.Close()

	if _, err := svc.Upload(ctx, id, filepath.Base(input), f); err != nil {
		return "", withHint(err)
	}

	req := visualizer.ChartRequest{
		Request: planner.Request{
			Kind:  kind,
			X:     opts.x,
			Y:     optional(opts.y),
			Color: optional(opts.color),
			Title: optional(opts.title),
		},
		Theme: opts.theme,
	}
	if _, err := svc.Generate(ctx, id, req); err != nil {
		return "", withHint(err)
	}

	var (
		content []byte
		name    string
	)
	if format == "png" {
		content, name, err = svc.ExportPNG(ctx, id)
	} else {
		var doc string
		doc, name, err = svc.ExportHTML(id)
		content = []byte(doc)
	}
	if err != nil {
		return "", withHint(err)
	}

	path := opts.output
	if path == "" {
		path = name
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write output: %w", err)
	}
	return path, nil
}

func withHint(err error) error {
	if hint := visualizer.Hint(err); hint != "" {
		return fmt.Errorf("%w\n%s", err, hint)
	}
	return err
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Describe the columns of a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}

func runInspect(ctx context.Context, input string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc := visualizer.NewService(session.NewStore(), render.NewGoChartRenderer(0), visualizer.Config{})
	id := svc.CreateSession().ID

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer f.Close()

	view, err := svc.Upload(ctx, id, filepath.Base(input), f)
	if err != nil {
		return withHint(err)
	}

	fmt.Fprintln(out, view.Message)
	for _, col := range view.Profile {
		fmt.Fprintf(out, "  %-24s %-12s %d missing, %d distinct%s\n", col.Name, col.Kind, col.Missing, col.Distinct, describe(col))
	}
	if view.Warning != "" {
		fmt.Fprintf(out, "⚠️  %s\n", view.Warning)
		return nil
	}

	kinds := make([]string, 0, len(view.ChartKinds))
	for _, k := range view.ChartKinds {
		kinds = append(kinds, k.Slug())
	}
	fmt.Fprintf(out, "Chart types: %s\n", strings.Join(kinds, ", "))
	return nil
}

func describe(col profiling.ColumnProfile) string {
	if col.Numeric == nil {
		return ""
	}
	n := col.Numeric
	return fmt.Sprintf(", range %g to %g, mean %.4g, %s", n.Min, n.Max, n.Mean, n.Shape)
}
