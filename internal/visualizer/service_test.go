package visualizer

import (
	"context"
	"strings"
	"testing"
	"time"

	"dataviz/adapters/render"
	"dataviz/domain/chart"
	"dataviz/domain/core"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"
	"dataviz/internal/planner"
	"dataviz/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const salesCSV = "Region,Sales,Month\nNorth,120,Jan\nSouth,98,Feb\nNorth,143,Mar\n"

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(ctx context.Context, plan chart.Plan, t *table.Table, theme chart.Theme) (*render.Figure, error) {
	args := m.Called(ctx, plan, t, theme)
	fig, _ := args.Get(0).(*render.Figure)
	return fig, args.Error(1)
}

func newTestService(t *testing.T, r render.Renderer) (*Service, core.ID) {
	t.Helper()
	svc := NewService(session.NewStore(), r, Config{MaxUploadBytes: 1 << 20})
	return svc, svc.CreateSession().ID
}

func barRequest() ChartRequest {
	return ChartRequest{Request: planner.Request{Kind: chart.KindBar, X: "Region", Y: chart.Some("Sales")}}
}

func TestUploadLoadsTable(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})

	view, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, "File uploaded! Found 3 rows and 3 columns.", view.Message)
	assert.Equal(t, []string{"Sales"}, view.NumericColumns)
	assert.Equal(t, chart.AllKinds(), view.ChartKinds)
	assert.Len(t, view.Preview, 3)
	assert.Len(t, view.Profile, 3)
	assert.Empty(t, view.Warning)
}

func TestUploadWithoutNumericColumnsWarns(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})

	view, err := svc.Upload(context.Background(), id, "names.csv", strings.NewReader("Name\nAnn\nBob\n"))
	require.NoError(t, err)
	assert.Empty(t, view.ChartKinds)
	assert.Equal(t, NoNumericWarning, view.Warning)

	_, err = svc.Generate(context.Background(), id, ChartRequest{Request: planner.Request{Kind: chart.KindBar, X: "Name"}})
	assert.Equal(t, apperrors.CodeNoNumericColumns, apperrors.GetCode(err))
	assert.Equal(t, HintNoNumeric, Hint(err))
}

func TestFailedUploadReturnsToNoTable(t *testing.T) {
	r := &mockRenderer{}
	r.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&render.Figure{}, nil)
	svc, id := newTestService(t, r)

	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), id, barRequest())
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), id, "broken.csv", strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsIngestError(err))
	assert.Equal(t, HintIngest, Hint(err))

	_, err = svc.Table(id)
	assert.Equal(t, apperrors.CodeNoTable, apperrors.GetCode(err))
	_, err = svc.Figure(id)
	assert.Equal(t, apperrors.CodeNoTable, apperrors.GetCode(err))
}

func TestUploadRejectsBeforeReading(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})

	_, err := svc.Upload(context.Background(), id, "notes.txt", failingReader{})
	assert.Equal(t, apperrors.CodeUnsupportedFormat, apperrors.GetCode(err))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	panic("reader must not be consumed for unsupported files")
}

func TestUploadSizeLimit(t *testing.T) {
	svc := NewService(session.NewStore(), &mockRenderer{}, Config{MaxUploadBytes: 16})
	id := svc.CreateSession().ID

	_, err := svc.Upload(context.Background(), id, "big.csv", strings.NewReader(salesCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16 bytes upload limit")

	_, err = svc.Upload(context.Background(), id, "small.csv", strings.NewReader("a\n1\n"))
	assert.NoError(t, err)
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "1 byte", sizeLabel(1))
	assert.Equal(t, "16 bytes", sizeLabel(16))
	assert.Equal(t, "1048577 bytes", sizeLabel(1<<20+1))
	assert.Equal(t, "64 KB", sizeLabel(64<<10))
	assert.Equal(t, "50 MB", sizeLabel(50<<20))
}

func TestGenerateKeepsTableOnPlanError(t *testing.T) {
	r := &mockRenderer{}
	svc, id := newTestService(t, r)
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), id, ChartRequest{Request: planner.Request{Kind: chart.KindLine, X: "Month", Y: chart.Some("Region")}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanValidation, apperrors.GetCode(err))
	assert.Equal(t, HintPlan, Hint(err))

	view, err := svc.Table(id)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Rows)
	r.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateRendersAndStoresChart(t *testing.T) {
	r := &mockRenderer{}
	svc, id := newTestService(t, r)
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	fig := &render.Figure{SVG: []byte("<svg/>")}
	r.On("Render", mock.Anything, mock.MatchedBy(func(p chart.Plan) bool { return p.Kind == chart.KindBar }),
		mock.Anything, chart.ThemeGGPlot2).Return(fig, nil).Once()

	req := barRequest()
	req.Theme = "ggplot2"
	plan, err := svc.Generate(context.Background(), id, req)
	require.NoError(t, err)
	assert.Equal(t, "Bar Chart of Sales", plan.Title)

	got, err := svc.Figure(id)
	require.NoError(t, err)
	assert.Same(t, fig, got)
	r.AssertExpectations(t)
}

func TestGenerateKeepsPreviousChartOnRenderError(t *testing.T) {
	r := &mockRenderer{}
	svc, id := newTestService(t, r)
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	first := &render.Figure{}
	r.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(first, nil).Once()
	r.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.RenderError("boom", nil)).Once()

	_, err = svc.Generate(context.Background(), id, barRequest())
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), id, barRequest())
	require.Error(t, err)
	assert.Equal(t, HintPlan, Hint(err))

	got, err := svc.Figure(id)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestGenerateReleasesRenderSlotAfterPanic(t *testing.T) {
	r := &mockRenderer{}
	svc := NewService(session.NewStore(), r, Config{MaxUploadBytes: 1 << 20, MaxConcurrentRenders: 1})
	id := svc.CreateSession().ID
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	fig := &render.Figure{}
	r.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("renderer crashed") }).Return(nil, nil).Once()
	r.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fig, nil).Once()

	assert.Panics(t, func() {
		_, _ = svc.Generate(context.Background(), id, barRequest())
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = svc.Generate(ctx, id, barRequest())
	require.NoError(t, err)

	got, err := svc.Figure(id)
	require.NoError(t, err)
	assert.Same(t, fig, got)
}

func TestGenerateRejectsUnknownTheme(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	req := barRequest()
	req.Theme = "neon"
	_, err = svc.Generate(context.Background(), id, req)
	assert.Equal(t, apperrors.CodePlanValidation, apperrors.GetCode(err))
}

func TestGenerateWithoutTable(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})

	_, err := svc.Generate(context.Background(), id, barRequest())
	assert.Equal(t, apperrors.CodeNoTable, apperrors.GetCode(err))
	assert.Equal(t, HintNoTable, Hint(err))

	_, err = svc.Generate(context.Background(), core.NewID(), barRequest())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestExportsWithRealRenderer(t *testing.T) {
	svc, id := newTestService(t, render.NewGoChartRenderer(0))
	_, err := svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	_, _, err = svc.ExportHTML(id)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err), "nothing to export before a chart exists")

	_, err = svc.Generate(context.Background(), id, barRequest())
	require.NoError(t, err)

	doc, name, err := svc.ExportHTML(id)
	require.NoError(t, err)
	assert.Equal(t, "Bar Chart of Sales.html", name)
	assert.Contains(t, doc, "<svg")

	img, name, err := svc.ExportPNG(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Bar Chart of Sales.png", name)
	assert.NotEmpty(t, img)
}

func TestOptions(t *testing.T) {
	svc, id := newTestService(t, &mockRenderer{})
	_, err := svc.Options(id, chart.KindBar)
	assert.Equal(t, apperrors.CodeNoTable, apperrors.GetCode(err))

	_, err = svc.Upload(context.Background(), id, "sales.csv", strings.NewReader(salesCSV))
	require.NoError(t, err)

	opts, err := svc.Options(id, chart.KindPie)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales"}, opts.Y)
	assert.Nil(t, opts.Color)
}
