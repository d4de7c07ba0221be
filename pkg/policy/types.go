package policy

import (
	"encoding/json"
	"sort"
	"strings"
)

// Fixed acceptance floors.
const (
	MinClassifierConfidence = 0.5
	MinFallbackConfidence   = 0.8
)

type Intent string

const (
	IntentDueDate        Intent = "due_date"
	IntentInstructorInfo Intent = "instructor_info"
	IntentCoordinator    Intent = "coordinator"
	IntentTAList         Intent = "ta_list"
	IntentLinks          Intent = "links"
	IntentGeneralPolicy  Intent = "general_policy"
	IntentGreeting       Intent = "greeting"
	IntentThanks         Intent = "thanks"
	IntentBye            Intent = "bye"
	IntentHelp           Intent = "help"
	IntentOutOfScope     Intent = "out_of_scope"
)

// AllIntents lists every intent the classifier may return, in prompt order.
var AllIntents = []Intent{
	IntentDueDate, IntentInstructorInfo, IntentCoordinator, IntentTAList, IntentLinks,
	IntentGeneralPolicy, IntentGreeting, IntentThanks, IntentBye, IntentHelp, IntentOutOfScope,
}

func ParseIntent(s string) (Intent, bool) {
	in := Intent(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllIntents {
		if in == known {
			return in, true
		}
	}
	return "", false
}

func (i Intent) IsChitchat() bool {
	switch i {
	case IntentGreeting, IntentThanks, IntentBye, IntentHelp:
		return true
	}
	return false
}

func (i Intent) IsFactual() bool {
	_, ok := intentKinds[i]
	return ok
}

// Kind returns the record kind stored for a factual intent.
func (i Intent) Kind() (RecordKind, bool) {
	k, ok := intentKinds[i]
	return k, ok
}

// Slot names the classifier may fill.
const (
	SlotAssessment = "assessment"
	SlotTopic      = "topic"
	SlotRole       = "role"
	SlotSection    = "section"
	SlotLinkType   = "link_type"
)

var KnownSlots = []string{SlotAssessment, SlotTopic, SlotRole, SlotSection, SlotLinkType}

type Slots map[string]string

// Clean drops unknown names and blank values.
func (s Slots) Clean() Slots {
	out := Slots{}
	for _, name := range KnownSlots {
		if v := strings.TrimSpace(s[name]); v != "" {
			out[name] = v
		}
	}
	return out
}

// Names returns the slot names in sorted order.
func (s Slots) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type Classification struct {
	Intent     Intent  `json:"intent"`
	Slots      Slots   `json:"slots"`
	Confidence float64 `json:"confidence"`
}

type Course struct {
	Slug         string `json:"slug" yaml:"slug"`
	Name         string `json:"name" yaml:"name"`
	FactsPath    string `json:"-" yaml:"facts"`
	DocumentPath string `json:"-" yaml:"document"`
}

// DocumentName is the file name used as citation source for the raw policy document.
func (c Course) DocumentName() string {
	p := c.DocumentPath
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	return p
}

type Citation struct {
	Text   string `json:"text"`
	Quote  string `json:"quote"`
	Source string `json:"source"`
}

type RefusalCode string

const (
	RefusalEmptyQuestion        RefusalCode = "empty_question"
	RefusalClassificationFailed RefusalCode = "classification_failed"
	RefusalOutOfScope           RefusalCode = "out_of_scope"
	RefusalLowConfidence        RefusalCode = "low_confidence"
	RefusalNoMatch              RefusalCode = "no_match"
	RefusalFactsUnavailable     RefusalCode = "facts_unavailable"
)

type QueryResult struct {
	Answer        string      `json:"answer"`
	Citations     []Citation  `json:"citations"`
	Intent        Intent      `json:"intent"`
	SlotsUsed     Slots       `json:"slots_used"`
	Refused       bool        `json:"refused"`
	RefusalReason string      `json:"refusal_reason,omitempty"`
	RefusalCode   RefusalCode `json:"refusal_code,omitempty"`
	Course        string      `json:"course"`
}

// Stream event types.
const (
	EventChunk     = "chunk"
	EventCitations = "citations"
	EventDone      = "done"
)

type StreamEvent struct {
	Type      string     `json:"type"`
	Content   string     `json:"content,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Intent    Intent     `json:"intent,omitempty"`
	SlotsUsed Slots      `json:"slots_used,omitempty"`
	Refused   bool       `json:"refused,omitempty"`
}

// MarshalJSON writes only the fields that belong to the event type.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventChunk:
		return json.Marshal(map[string]interface{}{"type": e.Type, "content": e.Content})
	case EventCitations:
		citations := e.Citations
		if citations == nil {
			citations = []Citation{}
		}
		return json.Marshal(map[string]interface{}{"type": e.Type, "citations": citations})
	default:
		slots := e.SlotsUsed
		if slots == nil {
			slots = Slots{}
		}
		return json.Marshal(map[string]interface{}{
			"type":       e.Type,
			"intent":     e.Intent,
			"slots_used": slots,
			"refused":    e.Refused,
		})
	}
}
