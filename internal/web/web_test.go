package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rewardroster/internal/factory"
	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/testutil"
	"github.com/mcoot/rewardroster/internal/web"
)

func newWebTestServer(t *testing.T) (http.Handler, *factory.TestApp) {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	_, err := app.RosterService.Seed(context.Background(), &model.Snapshot{
		Players: []model.Player{
			{Name: "Alex", Active: true, Counts: map[string]int{"Captain": 2}},
			{Name: "Bo", Active: true, Counts: map[string]int{}},
			{Name: "Charlie", Active: false, Counts: map[string]int{}},
		},
		Items: []string{"Captain", "Snacks"},
	})
	require.NoError(t, err)

	router := web.NewRouter(web.RouterConfig{
		Logger:  testutil.NopLogger(),
		Service: app.RosterService,
		Clock:   app.MockClock,
	})
	return router, app
}

func get(t *testing.T, h http.Handler, path string) *goquery.Document {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rr.Body.String()))
	require.NoError(t, err)
	return doc
}

func TestRosterPage(t *testing.T) {
	h, _ := newWebTestServer(t)
	doc := get(t, h, "/")

	rows := doc.Find("table.roster tbody tr.row")
	require.Equal(t, 3, rows.Length())
	assert.Equal(t, "Alex", rows.Eq(0).AttrOr("data-player", ""))
	assert.True(t, rows.Eq(2).HasClass("inactive"))
	assert.Equal(t, "inactive", strings.TrimSpace(rows.Eq(2).Find("td.status").Text()))

	assert.Equal(t, "true", doc.Find("table.roster").AttrOr("data-highlight", ""))
	assert.Equal(t, 1, doc.Find("td.repeat").Length())
	// read-only view
	assert.Equal(t, 0, doc.Find("[draggable]").Length())
	assert.Equal(t, 0, doc.Find("[contenteditable]").Length())

	assert.Equal(t, "revision 1", strings.TrimSpace(doc.Find("p.revision").Text()))
	assert.Equal(t, "next Captain: Bo", doc.Find(`ul.suggestions li[data-item="Captain"]`).Text())
	assert.Equal(t, "next Snacks: Bo", doc.Find(`ul.suggestions li[data-item="Snacks"]`).Text())
}

func TestRosterPage_Search(t *testing.T) {
	h, _ := newWebTestServer(t)
	doc := get(t, h, "/?q=ch")

	rows := doc.Find("tr.row")
	require.Equal(t, 1, rows.Length())
	assert.Equal(t, "Charlie", rows.AttrOr("data-player", ""))
	assert.Equal(t, "2", rows.AttrOr("data-index", ""))
	assert.Equal(t, "ch", doc.Find("table.roster").AttrOr("data-search", ""))
}

func TestRosterPage_ReflectsWrites(t *testing.T) {
	h, app := newWebTestServer(t)

	_, err := app.RosterService.AddPlayer(context.Background(), "", "Dana")
	require.NoError(t, err)

	doc := get(t, h, "/")
	assert.Equal(t, 4, doc.Find("tr.row").Length())
	assert.Equal(t, "revision 2", strings.TrimSpace(doc.Find("p.revision").Text()))
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newWebTestServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
