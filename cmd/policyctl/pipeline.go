package main

import (
	"fmt"
	"path/filepath"
	"time"

	"policylens-be/internal/config"
	"policylens-be/internal/pkg/logger"
	"policylens-be/internal/service"
	"policylens-be/pkg/llm/factory"
	"policylens-be/pkg/policy/classifier"
	"policylens-be/pkg/policy/composer"
	"policylens-be/pkg/policy/course"
	"policylens-be/pkg/policy/facts"
	"policylens-be/pkg/policy/fallback"
)

// pipeline is the in-process query stack, without transport.
type pipeline struct {
	cfg      *config.Config
	registry *course.Registry
	store    *facts.Store
	searcher *fallback.Searcher
	courses  service.ICourseService
	logger   logger.ILogger
}

func loadPipeline() (*pipeline, error) {
	cfg := config.Load()
	if rootFlags.dataDir != "" {
		cfg.Policy.DataDir = rootFlags.dataDir
	}

	log := logger.NewIsolatedLogger(filepath.Join("logs", "policyctl.log"))

	registry, err := course.Discover(cfg.Policy.DataDir, cfg.Policy.CatalogFile, cfg.Policy.DefaultCourse)
	if err != nil {
		return nil, fmt.Errorf("discover courses: %w", err)
	}

	loader := course.FileLoader{}
	p := &pipeline{
		cfg:      cfg,
		registry: registry,
		store:    facts.NewStore(loader, log),
		searcher: fallback.NewSearcher(loader, log),
		logger:   log,
	}

	loc, err := time.LoadLocation(cfg.Policy.CalendarTimezone)
	if err != nil {
		loc = time.UTC
	}
	p.courses = service.NewCourseService(registry, p.store, p.searcher, service.CalendarOptions{
		Year:     cfg.Policy.CalendarYear,
		Location: loc,
	}, log)
	return p, nil
}

// composer wires the classifier; only commands that classify need a backend.
func (p *pipeline) composer() (*composer.Composer, error) {
	baseURL, apiKey := p.cfg.Ai.OllamaBaseURL, ""
	if p.cfg.Ai.LLMProvider == "huggingface" || p.cfg.Ai.LLMProvider == "openai" {
		baseURL, apiKey = p.cfg.Ai.HuggingFaceBaseURL, p.cfg.Ai.HuggingFaceAPIKey
	}
	provider, err := factory.NewLLMProvider(p.cfg.Ai.LLMProvider, p.cfg.Ai.LLMModel, baseURL, apiKey)
	if err != nil {
		return nil, err
	}
	router := classifier.New(provider, classifier.Config{
		Model:       p.cfg.Ai.LLMModel,
		Temperature: p.cfg.Ai.Temperature,
		Timeout:     p.cfg.Ai.ClassifierTimeout,
	}, p.logger)
	return composer.New(p.registry, router, p.store, p.searcher, p.logger), nil
}
