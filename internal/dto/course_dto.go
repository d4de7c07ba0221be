package dto

import "time"

type CourseResponse struct {
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Default     bool           `json:"default"`
	HasFacts    bool           `json:"has_facts"`
	HasDocument bool           `json:"has_document"`
	Records     map[string]int `json:"records,omitempty"`
	Version     string         `json:"version,omitempty"`
}

type IndexStatsResponse struct {
	Course  string         `json:"course"`
	Source  string         `json:"source"`
	Version string         `json:"version"`
	Contact string         `json:"contact"`
	Units   map[string]int `json:"units"`
	BuiltAt time.Time      `json:"built_at"`
}

type ReloadResponse struct {
	Course       string `json:"course"`
	FactsChanged bool   `json:"facts_changed"`
	IndexChanged bool   `json:"index_changed"`
	FactsError   string `json:"facts_error,omitempty"`
	IndexError   string `json:"index_error,omitempty"`
}

type ModelUsagePolicy struct {
	Allowed        []string `json:"allowed"`
	NotAllowed     []string `json:"not_allowed"`
	Provider       string   `json:"provider"`
	Model          string   `json:"model"`
	Temperature    float64  `json:"temperature"`
	JSONValidation string   `json:"json_validation"`
}

type PolicyInfoResponse struct {
	ModelUsage              ModelUsagePolicy `json:"model_usage"`
	Architecture            string           `json:"architecture"`
	MinClassifierConfidence float64          `json:"min_classifier_confidence"`
	MinFallbackConfidence   float64          `json:"min_fallback_confidence"`
	Intents                 []string         `json:"intents"`
	Slots                   []string         `json:"slots"`
}
