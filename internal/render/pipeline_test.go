package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rewardroster/internal/cache"
	"github.com/mcoot/rewardroster/internal/dependencies/mocks"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/msgcat"
	"github.com/mcoot/rewardroster/internal/reorder"
	"github.com/mcoot/rewardroster/internal/testutil"
)

type PipelineSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	rows     *cache.RenderCache[Row]
	surface  *HTMLSurface
	pipeline *Pipeline
	ctx      context.Context
	view     View
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.rows = cache.NewRenderCache[Row](s.clock, cache.DefaultConfig())
	s.surface = NewHTMLSurface()
	s.pipeline = New(DefaultConfig(), s.rows, msgcat.Default(), s.surface, testutil.NopLogger())
	s.ctx = context.Background()
	s.view = View{
		Players: []model.Player{
			{Name: "Alice", Active: true, Counts: map[string]int{"X": 1}},
			{Name: "Bob", Active: false, Counts: map[string]int{"X": 0, "Y": 1}},
		},
		Items: []string{"X", "Y"},
	}
}

func (s *PipelineSuite) doc() *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.surface.HTML()))
	s.Require().NoError(err)
	return doc
}

func roster(n int) []model.Player {
	players := make([]model.Player, n)
	for i := range players {
		players[i] = model.Player{Name: fmt.Sprintf("P%03d", i), Active: true, Counts: map[string]int{}}
	}
	return players
}

func (s *PipelineSuite) TestRendersAllRows() {
	rendered, err := s.pipeline.Render(s.ctx, s.view)
	s.Require().NoError(err)
	s.True(rendered)

	doc := s.doc()
	s.Equal(2, doc.Find("tr.row").Length())
	s.Equal("Alice", doc.Find(`tr[data-player="Alice"] td.name`).Text())
	s.Equal("inactive", doc.Find(`tr[data-player="Bob"] td.status`).Text())
	s.Equal(1, doc.Find("tr.row.inactive").Length())
	s.Equal("1", doc.Find(`tr[data-player="Bob"] td[data-item="Y"]`).Text())
	s.Equal(0, doc.Find(`tr[draggable="true"]`).Length())
}

func (s *PipelineSuite) TestUnchangedContentSkipsSurface() {
	_, _ = s.pipeline.Render(s.ctx, s.view)
	rendered, err := s.pipeline.Render(s.ctx, s.view)
	s.Require().NoError(err)

	s.False(rendered)
	s.Equal(1, s.surface.Applied())
	s.Equal(1, s.pipeline.Stats().Skipped)
}

func (s *PipelineSuite) TestChangedRowIsRebuiltOthersReused() {
	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.Equal(2, s.pipeline.Stats().RowBuilds)

	s.view.Players[0] = s.view.Players[0].Clone()
	s.view.Players[0].Counts["X"] = 2
	_, _ = s.pipeline.Render(s.ctx, s.view)

	stats := s.pipeline.Stats()
	s.Equal(3, stats.RowBuilds)
	s.Equal(1, stats.RowHits)
	s.Equal(2, s.surface.Applied())
}

func (s *PipelineSuite) TestEditUnlockedMakesRowsDraggable() {
	s.view.UI.EditUnlocked = true
	_, _ = s.pipeline.Render(s.ctx, s.view)

	s.Equal(2, s.doc().Find(`tr[draggable="true"]`).Length())
	s.Equal(4, s.doc().Find(`td[contenteditable="true"]`).Length())
}

func (s *PipelineSuite) TestHighlightOnlyWhenSomeoneHasRepeat() {
	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.Equal(0, s.doc().Find("td.repeat").Length())
	s.False(s.pipeline.Last().Highlight)

	s.view.Players = append(s.view.Players, model.Player{Name: "Cat", Active: true, Counts: map[string]int{"Y": 2}})
	_, _ = s.pipeline.Render(s.ctx, s.view)

	s.True(s.pipeline.Last().Highlight)
	repeats := s.doc().Find("td.repeat")
	s.Equal(1, repeats.Length())
	s.Equal("Y", repeats.AttrOr("data-item", ""))
}

func (s *PipelineSuite) TestHighlightIsNotServedFromRowCache() {
	s.view.Players = append(s.view.Players, model.Player{Name: "Cat", Active: true, Counts: map[string]int{"Y": 2}})
	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.Equal(1, s.doc().Find("td.repeat").Length())

	// narrowing the view to Cat-free rows drops the roster-wide condition
	s.view.UI.SearchQuery = "alice"
	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.False(s.pipeline.Last().Highlight)

	s.view.UI.SearchQuery = ""
	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.Equal(1, s.doc().Find("td.repeat").Length())
	s.Positive(s.pipeline.Stats().RowHits)
}

func (s *PipelineSuite) TestSearchFiltersRowsButKeepsRosterIndex() {
	s.view.UI.SearchQuery = "bob"
	_, _ = s.pipeline.Render(s.ctx, s.view)

	doc := s.doc()
	s.Equal(1, doc.Find("tr.row").Length())
	s.Equal("1", doc.Find("tr.row").AttrOr("data-index", ""))
	s.Equal("bob", doc.Find("table").AttrOr("data-search", ""))

	frame := s.pipeline.Last()
	s.True(frame.Searching)
	s.Equal(1, frame.Matched)
	s.Equal(2, frame.RosterSize)
}

func (s *PipelineSuite) TestSmallRosterIsNotVirtualized() {
	s.view.Players = roster(DefaultVirtualizeThreshold)
	_, _ = s.pipeline.Render(s.ctx, s.view)

	frame := s.pipeline.Last()
	s.False(frame.Virtualized)
	s.Len(frame.Rows, DefaultVirtualizeThreshold)
}

func (s *PipelineSuite) TestLargeRosterIsVirtualized() {
	s.view.Players = roster(200)
	_, _ = s.pipeline.Render(s.ctx, s.view)

	frame := s.pipeline.Last()
	s.True(frame.Virtualized)
	// 800px / 40px = 20 rows plus 5 buffer rows below
	s.Equal(Window{Start: 0, End: 25}, frame.Window)
	s.Len(frame.Rows, 25)
	s.Equal(0, frame.PadTop)
	s.Equal(175*DefaultRowHeight, frame.PadBottom)
	s.Equal(1, s.doc().Find("tr.spacer").Length())
}

func (s *PipelineSuite) TestScrollForcesRerenderOfNewWindow() {
	s.view.Players = roster(200)
	_, _ = s.pipeline.Render(s.ctx, s.view)

	s.pipeline.Scroll(Viewport{ScrollTop: 4000, Height: 800})
	rendered, err := s.pipeline.Render(s.ctx, s.view)
	s.Require().NoError(err)
	s.True(rendered)

	frame := s.pipeline.Last()
	s.Equal(Window{Start: 95, End: 125}, frame.Window)
	s.Equal("P095", frame.Rows[0].Player)
	s.Equal(95, frame.Rows[0].Index)
	s.Equal(95*DefaultRowHeight, frame.PadTop)
}

func (s *PipelineSuite) TestPlaceholderMarksTargetRow() {
	ctrl := reorder.New(noopMover{}, testutil.NopLogger())
	s.pipeline.SetPlaceholderSource(ctrl)
	s.Require().NoError(ctrl.DragStart(0, 2))
	_, err := ctrl.DragOver(1)
	s.Require().NoError(err)

	_, _ = s.pipeline.Render(s.ctx, s.view)
	s.Equal(1, s.doc().Find(`tr.drop-after[data-player="Bob"]`).Length())
}

func (s *PipelineSuite) TestSurfaceErrorIsRetried() {
	failing := &failingSurface{err: errors.New("surface gone")}
	p := New(DefaultConfig(), s.rows, msgcat.Default(), failing, testutil.NopLogger())

	_, err := p.Render(s.ctx, s.view)
	s.Error(err)

	failing.err = nil
	rendered, err := p.Render(s.ctx, s.view)
	s.NoError(err)
	s.True(rendered)
}

func (s *PipelineSuite) TestMarkupEscapesNames() {
	s.view.Players = []model.Player{{Name: "<b>x</b>", Active: true, Counts: map[string]int{}}}
	_, _ = s.pipeline.Render(s.ctx, s.view)

	s.NotContains(s.surface.HTML(), "<b>x</b>")
	s.Equal("<b>x</b>", s.doc().Find("td.name").Text())
}

type noopMover struct{}

func (noopMover) Reorder(from, to int) error { return nil }

type failingSurface struct {
	err error
}

func (f *failingSurface) Apply(ctx context.Context, fr Frame) error {
	return f.err
}

func TestVisibleWindow(t *testing.T) {
	assert.Equal(t, Window{Start: 0, End: 25}, VisibleWindow(200, 40, 5, Viewport{Height: 800}))
	assert.Equal(t, Window{Start: 195, End: 200}, VisibleWindow(200, 40, 5, Viewport{ScrollTop: 8000, Height: 800}))
	assert.Equal(t, Window{Start: 0, End: 10}, VisibleWindow(10, 40, 5, Viewport{Height: 2000}))
	assert.Equal(t, Window{}, VisibleWindow(0, 40, 5, Viewport{Height: 800}))
}
