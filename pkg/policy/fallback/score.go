package fallback

import (
	"policylens-be/pkg/policy"
)

// anchorTerms are intent-specific synonyms; any one of them counts as a single keyword hit.
var anchorTerms = map[policy.Intent][]string{
	policy.IntentDueDate:        {"due", "deadline", "deadlines", "deliverable", "deliverables"},
	policy.IntentInstructorInfo: {"instructor", "instructors", "section", "lecture", "lectures"},
	policy.IntentCoordinator:    {"coordinator", "coordinators"},
	policy.IntentTAList:         {"ta", "tas", "teaching assistant", "teaching assistants"},
	policy.IntentLinks:          {"link", "links", "url", "website", "http", "https"},
	policy.IntentGeneralPolicy:  {"policy", "policies", "rule", "rules", "grading"},
}

type keywordGroup [][]string

func (g keywordGroup) hit(tokens []string) bool {
	for _, phrase := range g {
		if policy.ContainsTokens(tokens, phrase) {
			return true
		}
	}
	return false
}

// keywordGroups derives the query keywords: one group per slot value plus the intent anchor group.
func keywordGroups(intent policy.Intent, slots policy.Slots) []keywordGroup {
	var groups []keywordGroup
	for _, name := range slots.Names() {
		if toks := policy.Tokens(slots[name]); len(toks) > 0 {
			groups = append(groups, keywordGroup{toks})
		}
	}
	if terms, ok := anchorTerms[intent]; ok {
		g := keywordGroup{}
		for _, t := range terms {
			g = append(g, policy.Tokens(t))
		}
		groups = append(groups, g)
	}
	return groups
}

// score returns the fraction of groups hit by tokens and the raw hit count.
func score(groups []keywordGroup, tokens []string) (float64, int) {
	if len(groups) == 0 {
		return 0, 0
	}
	hits := 0
	for _, g := range groups {
		if g.hit(tokens) {
			hits++
		}
	}
	return float64(hits) / float64(len(groups)), hits
}

// Accept applies the fixed fallback floor.
func Accept(confidence float64) bool {
	return confidence >= policy.MinFallbackConfidence
}
