package results

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/incunabula/internal/eval/metrics"
)

// DefaultDir is where evaluation files are written
const DefaultDir = "evals"

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	RunID       string   `yaml:"runid"`
	IndexPath   string   `yaml:"indexpath"`
	Dialects    []string `yaml:"dialects"`
	KnownErrors string   `yaml:"knownerrors"`
	Records     int      `yaml:"records"`
	Timestamp   string   `yaml:"timestamp"`
}

// EvalResult represents the result for one shelfmark category
type EvalResult struct {
	Category            string   `yaml:"category"`
	Labelled            int      `yaml:"labelled"`
	Detected            int      `yaml:"detected"`
	Passed              bool     `yaml:"passed"`
	SymmetricDifference []string `yaml:"symmetricdifference"`
	Unexpected          []string `yaml:"unexpected,omitempty"`
	Resolved            []string `yaml:"resolved,omitempty"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Passed  bool         `yaml:"passed"`
	Results []EvalResult `yaml:"results"`
}

// NewEvalSpec converts aggregate results into the YAML document
func NewEvalSpec(agg *metrics.AggregateResults, dialects []string, knownErrors string) EvalSpec {
	if knownErrors == "" {
		knownErrors = "default"
	}

	spec := EvalSpec{
		Config: EvalConfig{
			RunID:       uuid.NewString(),
			IndexPath:   agg.IndexPath,
			Dialects:    dialects,
			KnownErrors: knownErrors,
			Records:     agg.TotalRecords,
			Timestamp:   agg.EvaluationDate.Format("2006-01-02_15-04-05"),
		},
		Passed:  agg.Passed,
		Results: make([]EvalResult, 0, len(agg.Categories)),
	}

	for _, c := range agg.Categories {
		spec.Results = append(spec.Results, EvalResult{
			Category:            string(c.Category),
			Labelled:            c.Expected,
			Detected:            c.Detected,
			Passed:              c.Passed,
			SymmetricDifference: c.SymmetricDifference,
			Unexpected:          c.Unexpected,
			Resolved:            c.Resolved,
		})
	}

	return spec
}

// SaveToYAML saves evaluation results to a YAML file in dir and returns the
// path written
func SaveToYAML(dir string, spec EvalSpec) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := spec.Config.Timestamp
	if timestamp == "" {
		timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	filename := filepath.Join(dir, fmt.Sprintf("shelfmarks-%s.yaml", timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	slog.Info("Evaluation results saved", "path", absPath, "run_id", spec.Config.RunID)

	return filename, nil
}

// LoadFromYAML reads a file written by SaveToYAML
func LoadFromYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return &spec, nil
}
