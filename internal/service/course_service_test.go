package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/policy"
	"policylens-be/pkg/policy/course"
	"policylens-be/pkg/policy/facts"
	"policylens-be/pkg/policy/fallback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseFacts = `{
  "_schema": {"course_name": "CPSC 110"},
  "due_dates": [
    {"assessment": "Homework 1", "due_date": "Jan 12, 11:59 pm", "where_submit": "Gradescope", "quote": "HW1 due", "source": "syllabus.md"},
    {"assessment": "Final exam", "due_date": "TBA", "quote": "Final TBA", "source": "syllabus.md"}
  ]
}`

const courseRules = "# Rules\n\n## Links\n\n- Forum: [Piazza](https://piazza.com/x)\n\nEmail cpsc110-admin@cs.ubc.ca\n"

func newCourseFixture(t *testing.T) (ICourseService, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpsc110_facts.json"), []byte(courseFacts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpsc110_rules.md"), []byte(courseRules), 0o644))

	reg, err := course.Discover(dir, "courses.yaml", "")
	require.NoError(t, err)

	log := logger.NewNopLogger()
	svc := NewCourseService(reg,
		facts.NewStore(course.FileLoader{}, log),
		fallback.NewSearcher(course.FileLoader{}, log),
		CalendarOptions{Year: 2026, Location: time.UTC},
		log,
	)
	return svc, dir
}

func TestCourseServiceList(t *testing.T) {
	svc, _ := newCourseFixture(t)

	list := svc.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, "cpsc110", list[0].Slug)
	assert.Equal(t, "CPSC 110", list[0].Name)
	assert.True(t, list[0].Default)
	assert.Equal(t, 2, list[0].Records["due_dates"])
	assert.Len(t, list[0].Version, 64)
}

func TestCourseServiceCalendar(t *testing.T) {
	svc, _ := newCourseFixture(t)

	ics, c, err := svc.Calendar(context.Background(), "CPSC 110")
	require.NoError(t, err)
	assert.Equal(t, "cpsc110", c.Slug)
	assert.Equal(t, 1, strings.Count(string(ics), "BEGIN:VEVENT"))
	assert.Contains(t, string(ics), "DTSTART:20260112T235900Z")

	_, _, err = svc.Calendar(context.Background(), "math100")
	assert.ErrorIs(t, err, policy.ErrCourseNotFound)
}

func TestCourseServiceIndexStats(t *testing.T) {
	svc, _ := newCourseFixture(t)

	stats, err := svc.IndexStats(context.Background(), "cpsc110")
	require.NoError(t, err)
	assert.Equal(t, "cpsc110_rules.md", stats.Source)
	assert.Equal(t, "cpsc110-admin@cs.ubc.ca", stats.Contact)
	assert.Equal(t, 1, stats.Units["list_item"])
}

func TestCourseServiceReload(t *testing.T) {
	svc, dir := newCourseFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Warmup(ctx))

	res, err := svc.Reload(ctx, "cpsc110")
	require.NoError(t, err)
	assert.False(t, res.FactsChanged)
	assert.False(t, res.IndexChanged)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpsc110_rules.md"), []byte("# Rules\n\n- new rule\n"), 0o644))
	res, err = svc.Reload(ctx, "cpsc110")
	require.NoError(t, err)
	assert.False(t, res.FactsChanged)
	assert.True(t, res.IndexChanged)
	assert.Empty(t, res.IndexError)

	require.NoError(t, os.Remove(filepath.Join(dir, "cpsc110_facts.json")))
	res, err = svc.Reload(ctx, "cpsc110")
	require.NoError(t, err)
	assert.NotEmpty(t, res.FactsError)
}

func TestCourseServiceReloadPath(t *testing.T) {
	svc, dir := newCourseFixture(t)
	ctx := context.Background()

	res, err := svc.ReloadPath(ctx, filepath.Join(dir, "cpsc110_facts.json"))
	require.NoError(t, err)
	assert.Equal(t, "cpsc110", res.Course)

	added := filepath.Join(dir, "cpsc210_facts.json")
	require.NoError(t, os.WriteFile(added, []byte(`{}`), 0o644))
	res, err = svc.ReloadPath(ctx, added)
	require.NoError(t, err)
	assert.Equal(t, "cpsc210", res.Course)

	_, err = svc.ReloadPath(ctx, filepath.Join(dir, "notes.md"))
	assert.ErrorIs(t, err, policy.ErrCourseNotFound)
}

func TestCourseServiceReloadAll(t *testing.T) {
	svc, dir := newCourseFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpsc330_facts.json"), []byte(`{}`), 0o644))

	res, err := svc.ReloadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "cpsc110", res[0].Course)
	assert.Equal(t, "cpsc330", res[1].Course)
	assert.NotEmpty(t, res[1].IndexError, "cpsc330 has no policy document")
}
