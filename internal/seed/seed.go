// Package seed provides the initial course catalog.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/course-registration-api/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Courses []models.Course `yaml:"courses"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() ([]models.Course, error) {
	return Parse(defaultCatalog)
}

// Load returns the catalog from path, or the built-in one when path is empty.
func Load(path string) ([]models.Course, error) {
	if path == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog document.
func Parse(raw []byte) ([]models.Course, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	seen := make(map[int64]struct{}, len(file.Courses))
	for i, course := range file.Courses {
		if course.ID <= 0 {
			return nil, fmt.Errorf("catalog seed entry %d: id must be positive", i)
		}
		if _, dup := seen[course.ID]; dup {
			return nil, fmt.Errorf("catalog seed entry %d: duplicate id %d", i, course.ID)
		}
		seen[course.ID] = struct{}{}

		day, ok := models.ParseWeekday(string(course.Day))
		if !ok {
			return nil, fmt.Errorf("catalog seed %s: unknown day %q", course.Code, course.Day)
		}
		file.Courses[i].Day = day
		if course.Credits < 1 || course.Credits > 6 {
			return nil, fmt.Errorf("catalog seed %s: credits must be between 1 and 6", course.Code)
		}
		if _, err := course.Interval(); err != nil {
			return nil, fmt.Errorf("catalog seed %s: %w", course.Code, err)
		}
	}
	return file.Courses, nil
}
