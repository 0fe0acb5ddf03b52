package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/pipeline"
)

const pageTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page.jpg" imageWidth="2000" imageHeight="3000">
    <TextRegion id="r0"><Coords points="0,0 10,0 10,10 0,10"/>
%s
    <TextEquiv><Unicode>summary</Unicode></TextEquiv></TextRegion>
  </Page>
</PcGts>`

func writePage(t *testing.T, path string, lines ...string) {
	t.Helper()
	var b strings.Builder
	for i, l := range lines {
		fmt.Fprintf(&b, `<TextLine id="l%d"><Coords points="0,0 1,1"/><TextEquiv><Unicode>%s</Unicode></TextEquiv></TextLine>`, i, l)
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf(pageTemplate, b.String())), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// workspace moves into an empty directory so no stray config file is read.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func TestExtractCommand(t *testing.T) {
	dir := workspace(t)
	vol := filepath.Join(dir, "bmc_1")
	if err := os.Mkdir(vol, 0755); err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	writePage(t, filepath.Join(vol, "p_1.xml"), "IA. 1", "ALPHA", "1490", "body one")
	writePage(t, filepath.Join(vol, "p_2.xml"), "IA. 2", "BETA", "1491", "body two")

	out := filepath.Join(dir, "out")
	if err := execute(t, "extract", vol, "--output", out, "--format", "csv,xml", "--reading-order", "document"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	for _, name := range []string{"bmc_1_entries.csv", "bmc_1_headings.xml", pipeline.ManifestFile} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}

	m, err := pipeline.LoadManifest(out)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Volumes) != 1 || m.Volumes[0].Entries != 2 {
		t.Errorf("Expected one volume with 2 entries, got %+v", m.Volumes)
	}
}

func TestExtractCommandReportsFailedVolumes(t *testing.T) {
	dir := workspace(t)
	err := execute(t, "extract", filepath.Join(dir, "missing"), "--output", filepath.Join(dir, "out"), "--retries", "1")
	if err == nil || !strings.Contains(err.Error(), "1 of 1 volumes failed") {
		t.Errorf("Expected failed volume error, got %v", err)
	}
}

func TestExtractCommandRejectsVolumeWithSeveralInputs(t *testing.T) {
	dir := workspace(t)
	err := execute(t, "extract", "a", "b", "--volume", "x", "--output", dir)
	if err == nil {
		t.Error("Expected error when --volume is combined with several inputs")
	}
}

func TestQualityCommand(t *testing.T) {
	dir := workspace(t)
	vol := filepath.Join(dir, "vol")
	if err := os.Mkdir(vol, 0755); err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}
	writePage(t, filepath.Join(vol, "p_1.xml"), "one two", "three four")

	out := filepath.Join(dir, "out")
	if err := execute(t, "quality", vol, "--output", out); err != nil {
		t.Fatalf("quality failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "poorlyscanned.txt")); err != nil {
		t.Errorf("Expected report to be written: %v", err)
	}
}

func TestInitConfigCommand(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "custom.yaml")

	if err := execute(t, "init-config", path); err != nil {
		t.Fatalf("init-config failed: %v", err)
	}
	if err := execute(t, "init-config", path); err == nil {
		t.Error("Expected error when the file exists")
	}
	if err := execute(t, "init-config", path, "--force"); err != nil {
		t.Errorf("Expected --force to overwrite, got %v", err)
	}

	if _, err := config.Load(path, nil); err != nil {
		t.Errorf("Expected written config to load, got %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("reading_order: diagonal\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if err := execute(t, "--config", path, "extract", dir); err == nil {
		t.Error("Expected invalid reading order to fail")
	}
}
