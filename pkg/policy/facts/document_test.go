package facts

import (
	"testing"

	"policylens-be/pkg/policy"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFacts = `{
  "_schema": {"course_name": "CPSC 110"},
  "due_dates": [
    {"assessment": "Homework 1", "due_date": "Jan 12, 11:59 pm", "where_find": "Canvas", "where_submit": "Gradescope",
     "quote": "HW1 is due Jan 12 at 11:59 pm", "source": "syllabus.md#due-dates"},
    {"assessment": "Homework 10", "due_date": "Apr 2, 11:59 pm", "quote": "HW10 due Apr 2", "source": "syllabus.md#due-dates"},
    {"assessment": "Midterm 1", "due_date": "Feb 9, 10, 11", "quote": "Midterm 1 runs Feb 9-11"}
  ],
  "links": [
    {"title": "Ed Discussion", "href": "https://edstem.org/course/1", "quote": "Ask on Ed", "source": "syllabus.md#links"}
  ],
  "policies": [
    {"topic": "late work", "policy": "Late work loses 10% per day.", "weight": 10, "quote": "Late work loses 10% per day.", "source": "syllabus.md#late"}
  ],
  "notes": "ignored because it is not a list"
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleFacts))
	require.NoError(t, err)

	assert.Equal(t, "CPSC 110", doc.Schema.CourseName)
	assert.Len(t, doc.Version, 64)
	assert.Equal(t, 1, doc.Dropped, "record without source is dropped")

	dues := doc.Records(policy.IntentDueDate)
	require.Len(t, dues, 2)
	assert.Equal(t, "Homework 1", dues[0].Get(policy.FieldAssessment))
	assert.Equal(t, "Gradescope", dues[0].Get(policy.FieldWhereSubmit))
	assert.Equal(t, "syllabus.md#due-dates", dues[0].Source)

	links := doc.Records(policy.IntentLinks)
	require.Len(t, links, 1)
	assert.Equal(t, "Ed Discussion", links[0].Get(policy.FieldName), "title aliases name")
	assert.Equal(t, "https://edstem.org/course/1", links[0].Get(policy.FieldURL), "href aliases url")

	assert.Empty(t, doc.Records(policy.IntentTAList))
	assert.Empty(t, doc.Records(policy.IntentGreeting))
}

func TestParseDocumentSchemaRemap(t *testing.T) {
	data := `{
	  "_schema": {
	    "key_map": {"due_date": "deliverables"},
	    "field_map": {"due_date": {"assessment": "what", "due_date": "when_due", "source": "ref"}}
	  },
	  "deliverables": [
	    {"what": "Project", "when_due": "Apr 20", "quote": "Project due Apr 20", "ref": "rules.md#project"}
	  ],
	  "due_dates": [
	    {"assessment": "Shadowed", "due_date": "never", "quote": "x", "source": "y"}
	  ]
	}`

	doc, err := ParseDocument([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "deliverables", doc.StorageKey(policy.IntentDueDate))
	assert.Equal(t, "when_due", doc.FieldName(policy.IntentDueDate, policy.FieldDueDate))
	assert.Equal(t, policy.FieldWhereFind, doc.FieldName(policy.IntentDueDate, policy.FieldWhereFind))

	got := doc.Records(policy.IntentDueDate)
	want := []policy.FactRecord{{
		Kind: policy.KindDueDate,
		Fields: map[string]string{
			policy.FieldAssessment: "Project",
			policy.FieldDueDate:    "Apr 20",
		},
		Quote:  "Project due Apr 20",
		Source: "rules.md#project",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"due_dates": [`},
		{"top level array", `[{"assessment": "hw1"}]`},
		{"null document", `null`},
		{"bad schema", `{"_schema": "nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseDocumentEmptyObject(t *testing.T) {
	doc, err := ParseDocument([]byte(`{}`))
	require.NoError(t, err)

	for _, intent := range policy.AllIntents {
		assert.Empty(t, doc.Records(intent))
	}
}
