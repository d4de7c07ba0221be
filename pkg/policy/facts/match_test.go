package facts

import (
	"testing"

	"policylens-be/pkg/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueRecord(t *testing.T, assessment string) policy.FactRecord {
	t.Helper()
	rec, err := policy.NewFactRecord(policy.KindDueDate, map[string]string{
		policy.FieldAssessment: assessment,
	}, assessment+" quote", "syllabus.md")
	require.NoError(t, err)
	return rec
}

func assessments(records []policy.FactRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Get(policy.FieldAssessment)
	}
	return out
}

func TestMatch(t *testing.T) {
	homework := []string{"Homework 1", "Homework 10", "Midterm 1", "Midterm 2"}
	projects := []string{"Project proposal", "Final project", "Project"}

	tests := []struct {
		name    string
		records []string
		slots   policy.Slots
		want    []string
	}{
		{
			name:    "exact alias match does not pick a longer number",
			records: homework,
			slots:   policy.Slots{policy.SlotAssessment: "hw1"},
			want:    []string{"Homework 1"},
		},
		{
			name:    "substring keeps document order",
			records: homework,
			slots:   policy.Slots{policy.SlotAssessment: "midterm"},
			want:    []string{"Midterm 1", "Midterm 2"},
		},
		{
			name:    "exact ranks above containment",
			records: projects,
			slots:   policy.Slots{policy.SlotAssessment: "project"},
			want:    []string{"Project", "Project proposal", "Final project"},
		},
		{
			name:    "no record matches",
			records: homework,
			slots:   policy.Slots{policy.SlotAssessment: "final exam"},
			want:    []string{},
		},
		{
			name:    "slot without comparable field does not filter",
			records: homework,
			slots:   policy.Slots{policy.SlotRole: "coordinator"},
			want:    homework,
		},
		{
			name:    "no slots returns everything",
			records: projects,
			slots:   nil,
			want:    projects,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]policy.FactRecord, len(tt.records))
			for i, a := range tt.records {
				records[i] = dueRecord(t, a)
			}
			got := Match(records, tt.slots)
			assert.Equal(t, tt.want, assessments(got))
		})
	}
}

func TestMatchEmptyRecords(t *testing.T) {
	got := Match(nil, policy.Slots{policy.SlotAssessment: "hw1"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMatchTopicSearchesPolicyText(t *testing.T) {
	late, err := policy.NewFactRecord(policy.KindGeneralPolicy, map[string]string{
		policy.FieldTopic:  "Late submissions",
		policy.FieldPolicy: "Each late day costs 10%.",
	}, "q", "syllabus.md#late")
	require.NoError(t, err)
	collab, err := policy.NewFactRecord(policy.KindGeneralPolicy, map[string]string{
		policy.FieldTopic:  "Collaboration",
		policy.FieldPolicy: "You may discuss ideas but write your own code.",
	}, "q", "syllabus.md#collab")
	require.NoError(t, err)

	got := Match([]policy.FactRecord{late, collab}, policy.Slots{policy.SlotTopic: "own code"})
	require.Len(t, got, 1)
	assert.Equal(t, "syllabus.md#collab", got[0].Source)
}

func TestFilterSlots(t *testing.T) {
	slots := policy.Slots{
		policy.SlotAssessment: "hw1",
		policy.SlotLinkType:   "piazza",
		policy.SlotRole:       "ta",
		policy.SlotSection:    "",
	}

	assert.Equal(t, policy.Slots{policy.SlotLinkType: "piazza"}, FilterSlots(policy.KindLink, slots))
	assert.Equal(t, policy.Slots{policy.SlotAssessment: "hw1"}, FilterSlots(policy.KindDueDate, slots))
	assert.Empty(t, FilterSlots(policy.KindTAList, slots))
}
