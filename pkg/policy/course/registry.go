package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"policylens-be/pkg/policy"

	"gopkg.in/yaml.v3"
)

const (
	factsSuffix = "_facts.json"
	rulesSuffix = "_rules.md"
)

// Catalog is the optional courses.yaml file.
type Catalog struct {
	Default string          `yaml:"default"`
	Courses []policy.Course `yaml:"courses"`
}

// Registry maps course selectors to courses.
type Registry struct {
	mu          sync.RWMutex
	dataDir     string
	catalogFile string
	preferred   string
	defaultSlug string
	courses     []policy.Course
}

// NewRegistry builds a registry over a fixed course list.
func NewRegistry(courses []policy.Course, defaultSlug string) *Registry {
	r := &Registry{preferred: defaultSlug}
	r.set(courses, defaultSlug)
	return r
}

// Discover loads courses from the catalog file when present, otherwise from
// <slug>_facts.json / <slug>_rules.md pairs in dataDir.
func Discover(dataDir, catalogFile, defaultCourse string) (*Registry, error) {
	r := &Registry{dataDir: dataDir, catalogFile: catalogFile, preferred: defaultCourse}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rescan re-reads the catalog or the data directory.
func (r *Registry) Rescan() error {
	if r.dataDir == "" {
		return nil
	}
	catalogPath := r.catalogFile
	if catalogPath != "" && !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(r.dataDir, catalogPath)
	}

	if catalogPath != "" {
		catalog, err := readCatalog(catalogPath)
		switch {
		case err == nil:
			for i := range catalog.Courses {
				r.completeCourse(&catalog.Courses[i])
			}
			preferred := r.preferred
			if preferred == "" {
				preferred = catalog.Default
			}
			r.set(catalog.Courses, preferred)
			return nil
		case !errors.Is(err, os.ErrNotExist):
			return err
		}
	}

	matches, err := filepath.Glob(filepath.Join(r.dataDir, "*"+factsSuffix))
	if err != nil {
		return fmt.Errorf("scan data dir: %w", err)
	}
	courses := make([]policy.Course, 0, len(matches))
	for _, m := range matches {
		c := policy.Course{Slug: strings.TrimSuffix(filepath.Base(m), factsSuffix)}
		r.completeCourse(&c)
		courses = append(courses, c)
	}
	r.set(courses, r.preferred)
	return nil
}

func readCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &catalog, nil
}

func (r *Registry) completeCourse(c *policy.Course) {
	if c.Slug == "" {
		c.Slug = selectorKey(c.Name)
	}
	if c.FactsPath == "" {
		c.FactsPath = c.Slug + factsSuffix
	}
	if c.DocumentPath == "" {
		c.DocumentPath = c.Slug + rulesSuffix
	}
	if !filepath.IsAbs(c.FactsPath) {
		c.FactsPath = filepath.Join(r.dataDir, c.FactsPath)
	}
	if !filepath.IsAbs(c.DocumentPath) {
		c.DocumentPath = filepath.Join(r.dataDir, c.DocumentPath)
	}
	if c.Name == "" {
		c.Name = schemaCourseName(c.FactsPath)
	}
	if c.Name == "" {
		c.Name = DisplayName(c.Slug)
	}
}

func (r *Registry) set(courses []policy.Course, preferred string) {
	sorted := make([]policy.Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	def := ""
	if c, ok := find(sorted, preferred); ok {
		def = c.Slug
	} else if len(sorted) > 0 {
		def = sorted[0].Slug
	}

	r.mu.Lock()
	r.courses = sorted
	r.defaultSlug = def
	r.mu.Unlock()
}

// Resolve maps a selector (slug or display name, any case) to a course.
// An empty selector yields the default course.
func (r *Registry) Resolve(selector string) (policy.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		selector = r.defaultSlug
	}
	if c, ok := find(r.courses, selector); ok {
		return c, nil
	}
	return policy.Course{}, fmt.Errorf("%w: %q", policy.ErrCourseNotFound, selector)
}

// List returns all courses ordered by slug.
func (r *Registry) List() []policy.Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]policy.Course, len(r.courses))
	copy(out, r.courses)
	return out
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultSlug
}

// ByPath finds the course owning a facts or policy document path.
func (r *Registry) ByPath(path string) (policy.Course, bool) {
	abs, _ := filepath.Abs(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.courses {
		for _, p := range []string{c.FactsPath, c.DocumentPath} {
			if pa, _ := filepath.Abs(p); pa == abs {
				return c, true
			}
		}
	}
	return policy.Course{}, false
}

func find(courses []policy.Course, selector string) (policy.Course, bool) {
	key := selectorKey(selector)
	if key == "" {
		return policy.Course{}, false
	}
	for _, c := range courses {
		if selectorKey(c.Slug) == key || selectorKey(c.Name) == key {
			return c, true
		}
	}
	return policy.Course{}, false
}

// selectorKey folds case, spaces and dashes: "CPSC 330" and "cpsc-330" both become "cpsc_330".
func selectorKey(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '\t'
	})
	return strings.Join(fields, "_")
}

// DisplayName turns a slug into a display name: "cpsc_330" -> "CPSC 330".
func DisplayName(slug string) string {
	return strings.ToUpper(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '_' || r == '-' }), " "))
}

func schemaCourseName(factsPath string) string {
	data, err := os.ReadFile(factsPath)
	if err != nil {
		return ""
	}
	var head struct {
		Schema struct {
			CourseName string `json:"course_name"`
		} `json:"_schema"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return strings.TrimSpace(head.Schema.CourseName)
}
