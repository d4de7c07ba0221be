package policy

import "strings"

type RecordKind string

const (
	KindDueDate        RecordKind = "DueDate"
	KindInstructorInfo RecordKind = "InstructorInfo"
	KindCoordinator    RecordKind = "Coordinator"
	KindTAList         RecordKind = "TAList"
	KindLink           RecordKind = "Link"
	KindGeneralPolicy  RecordKind = "GeneralPolicy"
)

// Canonical field names.
const (
	FieldAssessment  = "assessment"
	FieldDueDate     = "due_date"
	FieldWhereFind   = "where_find"
	FieldWhereSubmit = "where_submit"
	FieldNote        = "note"
	FieldSection     = "section"
	FieldInstructor  = "instructor"
	FieldWhen        = "when"
	FieldWhere       = "where"
	FieldContact     = "contact"
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPurpose     = "purpose"
	FieldURL         = "url"
	FieldTopic       = "topic"
	FieldPolicy      = "policy"
	FieldQuote       = "quote"
	FieldSource      = "source"
)

var intentKinds = map[Intent]RecordKind{
	IntentDueDate:        KindDueDate,
	IntentInstructorInfo: KindInstructorInfo,
	IntentCoordinator:    KindCoordinator,
	IntentTAList:         KindTAList,
	IntentLinks:          KindLink,
	IntentGeneralPolicy:  KindGeneralPolicy,
}

var kindFields = map[RecordKind][]string{
	KindDueDate:        {FieldAssessment, FieldDueDate, FieldWhereFind, FieldWhereSubmit, FieldNote},
	KindInstructorInfo: {FieldSection, FieldInstructor, FieldWhen, FieldWhere, FieldContact},
	KindCoordinator:    {FieldName, FieldEmail, FieldPurpose},
	KindTAList:         {FieldName, FieldEmail},
	KindLink:           {FieldName, FieldURL},
	KindGeneralPolicy:  {FieldTopic, FieldPolicy},
}

// CanonicalFields returns the field vocabulary of a kind, excluding quote and source.
func (k RecordKind) CanonicalFields() []string {
	return kindFields[k]
}

// FactRecord is one sourced unit of structured truth.
type FactRecord struct {
	Kind   RecordKind
	Fields map[string]string
	Quote  string
	Source string
}

// NewFactRecord builds a record; a record without a source cannot exist.
func NewFactRecord(kind RecordKind, fields map[string]string, quote, source string) (FactRecord, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return FactRecord{}, ErrMissingSource
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return FactRecord{Kind: kind, Fields: fields, Quote: strings.TrimSpace(quote), Source: source}, nil
}

func (r FactRecord) Get(field string) string {
	return r.Fields[field]
}
