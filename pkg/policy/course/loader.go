package course

import (
	"context"
	"fmt"
	"os"

	"policylens-be/pkg/policy"
)

// FileLoader reads course documents from the paths recorded on the course.
type FileLoader struct{}

func (FileLoader) LoadFacts(_ context.Context, c policy.Course) ([]byte, error) {
	data, err := os.ReadFile(c.FactsPath)
	if err != nil {
		return nil, fmt.Errorf("read facts document: %w", err)
	}
	return data, nil
}

func (FileLoader) LoadDocument(_ context.Context, c policy.Course) ([]byte, error) {
	data, err := os.ReadFile(c.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("read policy document: %w", err)
	}
	return data, nil
}
