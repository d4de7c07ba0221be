package facts

import (
	"sort"

	"policylens-be/pkg/policy"
)

// slotFields names the canonical fields each slot is compared against.
// Slots absent here, or whose fields the record kind lacks, do not filter.
var slotFields = map[string][]string{
	policy.SlotAssessment: {policy.FieldAssessment},
	policy.SlotSection:    {policy.FieldSection},
	policy.SlotLinkType:   {policy.FieldName, policy.FieldURL},
	policy.SlotTopic:      {policy.FieldTopic, policy.FieldPolicy},
}

// FilterSlots returns the subset of slots that can filter records of kind.
func FilterSlots(kind policy.RecordKind, slots policy.Slots) policy.Slots {
	out := policy.Slots{}
	for name, value := range slots {
		if value == "" {
			continue
		}
		if len(comparableFields(kind, name)) > 0 {
			out[name] = value
		}
	}
	return out
}

func comparableFields(kind policy.RecordKind, slot string) []string {
	var out []string
	for _, f := range slotFields[slot] {
		for _, have := range kind.CanonicalFields() {
			if f == have {
				out = append(out, f)
			}
		}
	}
	return out
}

type scored struct {
	record policy.FactRecord
	score  int
}

// Match filters records by slots and ranks them: exact beats substring,
// equal quality keeps document order.
func Match(records []policy.FactRecord, slots policy.Slots) []policy.FactRecord {
	if len(records) == 0 {
		return []policy.FactRecord{}
	}
	filter := FilterSlots(records[0].Kind, slots)
	if len(filter) == 0 {
		out := make([]policy.FactRecord, len(records))
		copy(out, records)
		return out
	}

	passing := make([]scored, 0, len(records))
	for _, rec := range records {
		total, ok := recordScore(rec, filter)
		if ok {
			passing = append(passing, scored{record: rec, score: total})
		}
	}

	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].score > passing[j].score
	})

	out := make([]policy.FactRecord, len(passing))
	for i, p := range passing {
		out[i] = p.record
	}
	return out
}

func recordScore(rec policy.FactRecord, filter policy.Slots) (int, bool) {
	total := 0
	for name, value := range filter {
		best := 0
		for _, field := range comparableFields(rec.Kind, name) {
			if s := policy.MatchScore(rec.Get(field), value); s > best {
				best = s
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total, true
}
