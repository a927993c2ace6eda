package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/perfscore/internal/domain/model"
)

// Dataset formats accepted by DecodeDataset.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Dataset is a snapshot of every raw record the engine reads.
type Dataset struct {
	Locations   []model.Location       `json:"locations" yaml:"locations"`
	Employees   []model.Employee       `json:"employees" yaml:"employees"`
	Shifts      []model.Shift          `json:"shifts" yaml:"shifts"`
	Attendance  []model.AttendanceLog  `json:"attendance" yaml:"attendance"`
	Tasks       []model.Task           `json:"tasks" yaml:"tasks"`
	Completions []model.TaskCompletion `json:"task_completions" yaml:"task_completions"`
	Tests       []model.TestSubmission `json:"tests" yaml:"tests"`
	Reviews     []model.Review         `json:"reviews" yaml:"reviews"`
	Warnings    []model.Warning        `json:"warnings" yaml:"warnings"`
}

// LoadDataset reads a dataset file. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadDataset(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return DecodeDataset(f, format)
}

// DecodeDataset decodes and validates a dataset.
func DecodeDataset(r io.Reader, format string) (Dataset, error) {
	var ds Dataset
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
	case FormatYAML, "":
		if err := yaml.NewDecoder(r).Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
			return Dataset{}, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
	default:
		return Dataset{}, fmt.Errorf("%w: unknown format %q", ErrInvalidDataset, format)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate checks that employees and locations carry unique, non-empty IDs.
// Other records are tolerated as-is; duplicates are collapsed at read time.
func (ds Dataset) Validate() error {
	seen := make(map[string]struct{}, len(ds.Employees))
	for i, e := range ds.Employees {
		if e.ID == "" {
			return fmt.Errorf("%w: employee #%d has no id", ErrInvalidDataset, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate employee id %q", ErrInvalidDataset, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	locs := make(map[string]struct{}, len(ds.Locations))
	for i, l := range ds.Locations {
		if l.ID == "" {
			return fmt.Errorf("%w: location #%d has no id", ErrInvalidDataset, i)
		}
		if _, dup := locs[l.ID]; dup {
			return fmt.Errorf("%w: duplicate location id %q", ErrInvalidDataset, l.ID)
		}
		locs[l.ID] = struct{}{}
	}
	return nil
}
