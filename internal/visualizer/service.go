// Package visualizer runs the upload, plan, render and export flow for a
// session, recovering from bad files and bad selections without losing state.
package visualizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"dataviz/adapters/ingest"
	"dataviz/adapters/render"
	"dataviz/domain/chart"
	"dataviz/domain/core"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"
	"dataviz/internal/planner"
	"dataviz/internal/profiling"
	"dataviz/internal/session"

	"golang.org/x/sync/semaphore"
)

const (
	HintIngest    = "Make sure your file is a valid CSV or Excel format."
	HintPlan      = "Try selecting different columns or chart type."
	HintNoNumeric = "Upload a file with at least one numeric column."
	HintNoTable   = "Upload a CSV or Excel file to get started!"

	NoNumericWarning = "No numeric columns found in your data!"
	PreviewRows      = 10
)

// Config bounds uploads and rendering
type Config struct {
	MaxUploadBytes       int64
	DefaultTheme         chart.Theme
	MaxConcurrentRenders int64
}

// TableView is what a client sees of a loaded table
type TableView struct {
	Message        string                    `json:"message"`
	Source         string                    `json:"source"`
	Rows           int                       `json:"rows"`
	Columns        []string                  `json:"columns"`
	NumericColumns []string                  `json:"numeric_columns"`
	ChartKinds     []chart.Kind              `json:"chart_kinds"`
	Preview        [][]string                `json:"preview"`
	Profile        []profiling.ColumnProfile `json:"profile"`
	Warning        string                    `json:"warning,omitempty"`
}

// ChartRequest is a chart selection with a cosmetic theme
type ChartRequest struct {
	planner.Request
	Theme string
}

// Service orchestrates sessions, ingestion, planning and rendering
type Service struct {
	store     *session.Store
	renderer  render.Renderer
	renderSem *semaphore.Weighted
	cfg       Config
}

// NewService creates a service; non-positive limits fall back to defaults
func NewService(store *session.Store, renderer render.Renderer, cfg Config) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 4
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = chart.DefaultTheme
	}

	log.Printf("[Visualizer] upload limit %d bytes, %d concurrent renders", cfg.MaxUploadBytes, cfg.MaxConcurrentRenders)

	return &Service{
		store:     store,
		renderer:  renderer,
		renderSem: semaphore.NewWeighted(cfg.MaxConcurrentRenders),
		cfg:       cfg,
	}
}

// Store exposes the session registry
func (s *Service) Store() *session.Store {
	return s.store
}

// CreateSession opens a new empty session
func (s *Service) CreateSession() session.Session {
	sess := s.store.Create()
	log.Printf("[Visualizer] session %s created", sess.ID)
	return sess
}

// DeleteSession discards a session and everything loaded into it
func (s *Service) DeleteSession(id core.ID) {
	s.store.Delete(id)
}

// Upload ingests a file into the session. On failure the session returns to
// the no-table state and any previous table and chart are gone.
func (s *Service) Upload(ctx context.Context, id core.ID, filename string, r io.Reader) (TableView, error) {
	if _, err := s.store.Get(id); err != nil {
		return TableView{}, err
	}

	tbl, err := s.load(ctx, filename, r)
	if err != nil {
		if clearErr := s.store.ClearTable(id); clearErr != nil {
			log.Printf("[Visualizer] failed to clear table for session %s: %v", id, clearErr)
		}
		log.Printf("[Visualizer] ❌ upload of %q rejected: %v", filename, err)
		return TableView{}, err
	}

	if err := s.store.SetTable(id, tbl); err != nil {
		return TableView{}, err
	}

	log.Printf("[Visualizer] ✅ %q loaded into session %s (%d rows, %d columns)", filename, id, tbl.RowCount(), tbl.ColumnCount())
	return newTableView(tbl), nil
}

func (s *Service) load(ctx context.Context, filename string, r io.Reader) (*table.Table, error) {
	reader, err := ingest.NewReader(filename)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.IngestError("upload cancelled", err)
	}

	// read one byte past the limit to tell "exactly at the limit" from "over it"
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, apperrors.IngestError("failed to read upload", err)
	}
	if n > s.cfg.MaxUploadBytes {
		return nil, apperrors.IngestError(fmt.Sprintf("file exceeds the %s upload limit", sizeLabel(s.cfg.MaxUploadBytes)), nil)
	}

	return reader.Read(buf.Bytes())
}

func sizeLabel(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	case n == 1:
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", n)
}

// Table returns the view of the session's loaded table
func (s *Service) Table(id core.ID) (TableView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return TableView{}, err
	}
	if !sess.HasTable() {
		return TableView{}, apperrors.NoTable()
	}
	return newTableView(sess.Table), nil
}

func newTableView(t *table.Table) TableView {
	view := TableView{
		Message:        "File uploaded! " + t.Summary(),
		Source:         t.Source,
		Rows:           t.RowCount(),
		Columns:        t.ColumnNames(),
		NumericColumns: t.NumericColumns(),
		ChartKinds:     planner.AvailableChartKinds(t),
		Preview:        t.Preview(PreviewRows),
		Profile:        profiling.ProfileTable(t),
	}
	if len(view.ChartKinds) == 0 {
		view.Warning = NoNumericWarning
	}
	return view
}

// Options lists the selectable columns for kind on the session's table
func (s *Service) Options(id core.ID, kind chart.Kind) (planner.RoleOptions, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return planner.RoleOptions{}, err
	}
	return planner.Options(sess.Table, kind)
}

// Generate plans and renders a chart for the session's table. On failure the
// table and any previously generated chart are kept.
func (s *Service) Generate(ctx context.Context, id core.ID, req ChartRequest) (chart.Plan, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return chart.Plan{}, err
	}

	plan, err := planner.Plan(sess.Table, req.Request)
	if err != nil {
		return chart.Plan{}, err
	}

	theme := s.cfg.DefaultTheme
	if req.Theme != "" {
		if theme, err = chart.ParseTheme(req.Theme); err != nil {
			return chart.Plan{}, apperrors.PlanValidation("%v", err)
		}
	}

	fig, err := s.renderBounded(ctx, plan, sess.Table, theme)
	if err != nil {
		log.Printf("[Visualizer] ❌ %s for session %s failed: %v", plan.Kind, id, err)
		return chart.Plan{}, err
	}

	if err := s.store.SetChart(id, sess.Table, plan, fig); err != nil {
		return chart.Plan{}, err
	}
	return plan, nil
}

func (s *Service) renderBounded(ctx context.Context, plan chart.Plan, t *table.Table, theme chart.Theme) (*render.Figure, error) {
	if err := s.renderSem.Acquire(ctx, 1); err != nil {
		return nil, apperrors.RenderError("render queue wait cancelled", err)
	}
	defer s.renderSem.Release(1)
	return s.renderer.Render(ctx, plan, t, theme)
}

// Figure returns the session's current chart
func (s *Service) Figure(id core.ID) (*render.Figure, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !sess.HasTable() {
		return nil, apperrors.NoTable()
	}
	if !sess.HasChart() {
		return nil, apperrors.NotFound("chart for session " + id.String())
	}
	return sess.Figure, nil
}

// ExportHTML returns the current chart as a standalone HTML document and its download name
func (s *Service) ExportHTML(id core.ID) (string, string, error) {
	fig, err := s.Figure(id)
	if err != nil {
		return "", "", err
	}
	doc, err := fig.HTML()
	if err != nil {
		return "", "", err
	}
	return doc, render.ExportFilename(fig.Plan.Title, "html"), nil
}

// ExportPNG rasterizes the current chart and returns it with its download name
func (s *Service) ExportPNG(ctx context.Context, id core.ID) ([]byte, string, error) {
	fig, err := s.Figure(id)
	if err != nil {
		return nil, "", err
	}

	if err := s.renderSem.Acquire(ctx, 1); err != nil {
		return nil, "", apperrors.RenderError("render queue wait cancelled", err)
	}
	defer s.renderSem.Release(1)

	img, err := fig.PNG(ctx)
	if err != nil {
		return nil, "", err
	}
	return img, render.ExportFilename(fig.Plan.Title, "png"), nil
}

// Hint returns the recovery advice shown alongside err
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case apperrors.HasCode(err, apperrors.CodeNoNumericColumns):
		return HintNoNumeric
	case apperrors.HasCode(err, apperrors.CodeNoTable):
		return HintNoTable
	case apperrors.IsIngestError(err):
		return HintIngest
	case apperrors.IsPlanError(err):
		return HintPlan
	default:
		return ""
	}
}
