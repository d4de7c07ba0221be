package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Entry is one deliverable to export.
type Entry struct {
	Assessment  string
	DueDate     string
	WhereFind   string
	WhereSubmit string
}

// Options controls calendar generation.
type Options struct {
	CourseName string
	Year       int
	Location   *time.Location
	Now        func() time.Time
}

var (
	markdownEmphasis = regexp.MustCompile(`[*` + "`" + `]+`)
	uidUnsafe        = regexp.MustCompile(`[^a-z0-9]+`)
)

// Generate renders due-date entries as an iCalendar document. Entries whose
// due date cannot be parsed (TBA and the like) are skipped.
func Generate(entries []Entry, opts Options) []byte {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now()

	cal := ics.NewCalendar()
	cal.SetProductId("-//PolicyLens//" + opts.CourseName + "//EN")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(opts.CourseName + " deadlines")

	for _, e := range entries {
		start, end, ok := ParseDueDate(e.DueDate, opts.Year, opts.Location)
		if !ok {
			continue
		}
		name := sanitize(e.Assessment)
		if name == "" {
			name = "Deliverable"
		}

		event := cal.AddEvent(uid(name, start))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(opts.CourseName + " - " + name)
		if desc := description(e); desc != "" {
			event.SetDescription(desc)
		}
	}

	return []byte(cal.Serialize(ics.WithNewLineWindows))
}

func description(e Entry) string {
	var lines []string
	if f := sanitize(e.WhereFind); f != "" {
		lines = append(lines, "Find: "+f)
	}
	if s := sanitize(e.WhereSubmit); s != "" {
		lines = append(lines, "Submit: "+s)
	}
	return strings.Join(lines, "\n")
}

func sanitize(s string) string {
	return strings.Join(strings.Fields(markdownEmphasis.ReplaceAllString(s, "")), " ")
}

func uid(name string, start time.Time) string {
	slug := strings.Trim(uidUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	return fmt.Sprintf("%s-%s@policylens", slug, start.UTC().Format("20060102T1504"))
}
