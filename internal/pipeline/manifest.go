package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is the name of the run manifest written next to the outputs.
const ManifestFile = "manifest.json"

// Manifest records what one extraction run produced
type Manifest struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Volumes   []Summary `json:"volumes"`
}

// NewManifest starts a manifest with a fresh run id
func NewManifest() *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Volumes:   make([]Summary, 0),
	}
}

// Failed counts volumes that ended in an error
func (m *Manifest) Failed() int {
	n := 0
	for _, v := range m.Volumes {
		if v.Error != "" {
			n++
		}
	}
	return n
}

// SaveManifest saves a manifest to outputDir
func SaveManifest(m *Manifest, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, ManifestFile)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	return nil
}

// AppendSummary appends a single volume to an existing manifest file.
// Creates the manifest if it doesn't exist
func AppendSummary(s Summary, outputDir string) error {
	path := filepath.Join(outputDir, ManifestFile)

	var m *Manifest
	if _, err := os.Stat(path); err == nil {
		m, err = LoadManifest(outputDir)
		if err != nil {
			return fmt.Errorf("failed to load existing manifest: %w", err)
		}
	} else {
		m = NewManifest()
	}

	m.Volumes = append(m.Volumes, s)
	return SaveManifest(m, outputDir)
}

// LoadManifest loads a manifest from outputDir
func LoadManifest(outputDir string) (*Manifest, error) {
	file, err := os.Open(filepath.Join(outputDir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	var m Manifest
	if err := json.NewDecoder(file).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return &m, nil
}
