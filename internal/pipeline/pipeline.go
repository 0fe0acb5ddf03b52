// Package pipeline runs a volume through discovery, line extraction, heading
// detection, entry assembly and export.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/discovery"
	"github.com/lehigh-university-libraries/incunabula/internal/entries"
	"github.com/lehigh-university-libraries/incunabula/internal/export"
	"github.com/lehigh-university-libraries/incunabula/internal/headings"
	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
	"github.com/lehigh-university-libraries/incunabula/internal/quality"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
	"github.com/lehigh-university-libraries/incunabula/internal/volume"
)

// Processor holds the components shared by every volume of a run. It keeps
// no per-volume state, so one Processor may serve concurrent volumes.
type Processor struct {
	matcher   *shelfmark.Matcher
	detector  *headings.Detector
	extractor *pagexml.Extractor
	loader    *discovery.Loader
	assembler *entries.Assembler

	formats        []export.Format
	qualityEnabled bool
	qualityOptions quality.Options
}

// New builds a Processor from cfg.
func New(cfg *config.Config) (*Processor, error) {
	order, err := pagexml.ReadingOrderByName(cfg.ReadingOrder)
	if err != nil {
		return nil, err
	}
	formats, err := export.ParseFormats(cfg.Formats)
	if err != nil {
		return nil, err
	}

	var correctors []headings.Corrector
	if cfg.Corrections.BoughtIn {
		correctors = append(correctors, headings.BoughtInSwap{})
	}

	m := shelfmark.New()
	return &Processor{
		matcher:        m,
		detector:       headings.NewDetector(m, headings.WithCorrectors(correctors...)),
		extractor:      pagexml.NewExtractor(order),
		loader:         discovery.NewLoader(discovery.WithAttempts(cfg.Retry.Attempts)),
		assembler:      entries.NewAssembler(m),
		formats:        formats,
		qualityEnabled: cfg.Quality.Enabled,
		qualityOptions: cfg.QualityOptions(),
	}, nil
}

// Matcher returns the shelfmark matcher used for detection.
func (p *Processor) Matcher() *shelfmark.Matcher {
	return p.matcher
}

// Loader returns the page loader.
func (p *Processor) Loader() *discovery.Loader {
	return p.loader
}

// Extractor returns the line extractor.
func (p *Processor) Extractor() *pagexml.Extractor {
	return p.extractor
}

// VolumeResult is everything produced for one volume.
type VolumeResult struct {
	Name    string
	Pages   int
	Lines   int
	Dropped int
	Windows []headings.Window
	Entries []*entries.Entry
	Quality *quality.Report
	// Headings is the corrected line sequence windows index into
	Headings *headings.Result
}

// ProcessPages runs extraction, detection and assembly over already loaded
// pages. It never fails; a volume without headings yields no entries.
func (p *Processor) ProcessPages(name string, pages []*pagexml.Page) *VolumeResult {
	seq, dropped := volume.Aggregate(pages, p.extractor)
	res := p.detector.Detect(seq.Lines)
	es := p.assembler.Assemble(name, seq, res)

	out := &VolumeResult{
		Name:     name,
		Pages:    len(pages),
		Lines:    seq.Len(),
		Dropped:  dropped,
		Windows:  res.Windows,
		Entries:  es,
		Headings: res,
	}
	if p.qualityEnabled {
		out.Quality = quality.Assess(pages, p.extractor, p.qualityOptions)
	}

	slog.Info("Processed volume",
		"volume", name,
		"pages", out.Pages,
		"lines", out.Lines,
		"dropped", dropped,
		"entries", len(es))
	return out
}

// ProcessVolume discovers and loads the pages under input and processes them.
func (p *Processor) ProcessVolume(ctx context.Context, input, name string) (*VolumeResult, error) {
	if name == "" {
		name = VolumeName(input)
	}

	slog.Info("Loading volume", "volume", name, "input", input)
	pages, err := p.loader.LoadVolume(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to load volume %s: %w", name, err)
	}

	return p.ProcessPages(name, pages), nil
}

// Write exports the entries of res into dir in every configured format, plus
// the poorly-scanned report when quality checking is on.
func (p *Processor) Write(dir string, res *VolumeResult) ([]string, error) {
	written, err := export.Export(dir, res.Name, p.formats, res.Entries)
	if err != nil {
		return written, err
	}

	if res.Quality != nil {
		path, err := quality.Save(filepath.Join(dir, res.Name), res.Quality)
		if err != nil {
			return written, fmt.Errorf("failed to save quality report: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

// VolumeName derives a volume name from an input directory or glob.
func VolumeName(input string) string {
	dir := input
	if strings.ContainsAny(input, "*?[") || strings.EqualFold(filepath.Ext(input), ".xml") {
		dir = filepath.Dir(input)
	}
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) {
		return "volume"
	}
	return name
}

// Summary is the manifest line for one processed volume.
type Summary struct {
	Volume   string        `json:"volume"`
	Input    string        `json:"input"`
	Pages    int           `json:"pages"`
	Lines    int           `json:"lines"`
	Dropped  int           `json:"dropped_lines"`
	Entries  int           `json:"entries"`
	Flagged  []string      `json:"flagged_pages,omitempty"`
	Files    []string      `json:"files,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Summarize builds the manifest line for res.
func Summarize(input string, res *VolumeResult, files []string, took time.Duration) Summary {
	s := Summary{
		Volume:   res.Name,
		Input:    input,
		Pages:    res.Pages,
		Lines:    res.Lines,
		Dropped:  res.Dropped,
		Entries:  len(res.Entries),
		Files:    files,
		Duration: took,
	}
	if res.Quality != nil {
		s.Flagged = res.Quality.Flagged()
	}
	return s
}
