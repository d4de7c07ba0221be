package composer

import (
	"strings"

	"policylens-be/pkg/policy"
)

// singleValued reports whether the answer uses only the top record.
func singleValued(intent policy.Intent, slots policy.Slots) bool {
	switch intent {
	case policy.IntentCoordinator:
		return true
	case policy.IntentDueDate:
		return slots[policy.SlotAssessment] != ""
	case policy.IntentInstructorInfo:
		return slots[policy.SlotSection] != ""
	case policy.IntentLinks:
		return slots[policy.SlotLinkType] != ""
	case policy.IntentGeneralPolicy:
		return slots[policy.SlotTopic] != ""
	}
	return false
}

func composeStructured(intent policy.Intent, slots policy.Slots, records []policy.FactRecord) (string, []policy.Citation) {
	if singleValued(intent, slots) {
		records = records[:1]
	}
	citations := make([]policy.Citation, len(records))
	for i, rec := range records {
		citations[i] = citationFor(rec)
	}

	single := len(records) == 1 && intent != policy.IntentTAList
	var answer string
	switch intent {
	case policy.IntentDueDate:
		if single {
			answer = dueDateSentence(records[0])
		} else {
			answer = listing("Deliverable due dates:", records, dueDateLine)
		}
	case policy.IntentInstructorInfo:
		if single {
			answer = instructorSentence(records[0])
		} else {
			answer = listing("Instructors:", records, instructorLine)
		}
	case policy.IntentCoordinator:
		answer = coordinatorSentence(records[0])
	case policy.IntentTAList:
		names := make([]string, 0, len(records))
		for _, rec := range records {
			names = append(names, firstOf(rec.Get(policy.FieldName), rec.Get(policy.FieldEmail)))
		}
		answer = "TAs: " + strings.Join(names, ", ")
	case policy.IntentLinks:
		if single {
			answer = linkLine(records[0])
		} else {
			answer = listing("Important links:", records, linkLine)
		}
	case policy.IntentGeneralPolicy:
		if single {
			answer = policyLine(records[0])
		} else {
			answer = listing("Course policies:", records, policyLine)
		}
	}
	return answer, citations
}

// citationKey is the field whose value a citation points at, per kind.
var citationKey = map[policy.RecordKind]string{
	policy.KindDueDate:        policy.FieldDueDate,
	policy.KindInstructorInfo: policy.FieldInstructor,
	policy.KindCoordinator:    policy.FieldName,
	policy.KindTAList:         policy.FieldName,
	policy.KindLink:           policy.FieldURL,
	policy.KindGeneralPolicy:  policy.FieldPolicy,
}

func citationFor(rec policy.FactRecord) policy.Citation {
	text := rec.Get(citationKey[rec.Kind])
	if text == "" {
		for _, f := range rec.Kind.CanonicalFields() {
			if v := rec.Get(f); v != "" {
				text = v
				break
			}
		}
	}
	return policy.Citation{
		Text:   text,
		Quote:  firstOf(rec.Quote, text),
		Source: rec.Source,
	}
}

func dueDateSentence(rec policy.FactRecord) string {
	name := firstOf(rec.Get(policy.FieldAssessment), "This assessment")
	var parts []string
	if due := rec.Get(policy.FieldDueDate); due != "" {
		parts = append(parts, sentence(name+" is due", due))
	} else {
		parts = append(parts, name+" has no due date listed.")
	}
	if wf := rec.Get(policy.FieldWhereFind); wf != "" {
		parts = append(parts, sentence("Find it:", wf))
	}
	if ws := rec.Get(policy.FieldWhereSubmit); ws != "" {
		parts = append(parts, sentence("Submit:", ws))
	}
	if note := rec.Get(policy.FieldNote); note != "" {
		parts = append(parts, sentence("Note:", note))
	}
	return strings.Join(parts, " ")
}

func dueDateLine(rec policy.FactRecord) string {
	line := firstOf(rec.Get(policy.FieldAssessment), "?") + ": " + firstOf(rec.Get(policy.FieldDueDate), "TBA")
	if ws := rec.Get(policy.FieldWhereSubmit); ws != "" {
		line += " (" + ws + ")"
	}
	return line
}

func instructorHead(rec policy.FactRecord) string {
	name := firstOf(rec.Get(policy.FieldInstructor), "Instructor")
	if s := rec.Get(policy.FieldSection); s != "" {
		return "Section " + s + ": " + name
	}
	return name
}

func instructorSentence(rec policy.FactRecord) string {
	head := instructorHead(rec)
	if when := rec.Get(policy.FieldWhen); when != "" {
		head += ", " + when
	}
	if where := rec.Get(policy.FieldWhere); where != "" {
		head += " at " + where
	}
	out := sentence(head, "")
	if contact := rec.Get(policy.FieldContact); contact != "" {
		out += " " + sentence("Contact:", contact)
	}
	return out
}

func instructorLine(rec policy.FactRecord) string {
	line := instructorHead(rec)
	var details []string
	for _, f := range []string{policy.FieldWhen, policy.FieldWhere} {
		if v := rec.Get(f); v != "" {
			details = append(details, v)
		}
	}
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	return line
}

func coordinatorSentence(rec policy.FactRecord) string {
	head := "Course coordinator: " + firstOf(rec.Get(policy.FieldName), rec.Get(policy.FieldEmail))
	if email := rec.Get(policy.FieldEmail); email != "" && rec.Get(policy.FieldName) != "" {
		head += " (" + email + ")"
	}
	out := sentence(head, "")
	if purpose := rec.Get(policy.FieldPurpose); purpose != "" {
		out += " " + sentence("Contact for:", purpose)
	}
	return out
}

func linkLine(rec policy.FactRecord) string {
	name, url := rec.Get(policy.FieldName), rec.Get(policy.FieldURL)
	switch {
	case name != "" && url != "":
		return name + ": " + url
	case url != "":
		return url
	}
	return name
}

func policyLine(rec policy.FactRecord) string {
	topic, text := rec.Get(policy.FieldTopic), rec.Get(policy.FieldPolicy)
	switch {
	case topic != "" && text != "":
		return topic + ": " + text
	case text != "":
		return text
	}
	return topic
}

func listing(title string, records []policy.FactRecord, line func(policy.FactRecord) string) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, title)
	for _, rec := range records {
		lines = append(lines, line(rec))
	}
	return strings.Join(lines, "\n")
}

// sentence joins prefix and value and ends the result with exactly one period.
func sentence(prefix, value string) string {
	s := prefix
	if value != "" {
		s += " " + value
	}
	s = strings.TrimRight(strings.TrimSpace(s), ".")
	return s + "."
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
