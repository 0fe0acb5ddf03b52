package discovery

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const pageXML = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page_1.jpg" imageWidth="100" imageHeight="200">
    <TextRegion id="r1">
      <Coords points="0,0 10,0 10,10 0,10"/>
      <TextLine id="l1">
        <Coords points="0,0 10,0"/>
        <TextEquiv><Unicode>IA. 1</Unicode></TextEquiv>
      </TextLine>
      <TextEquiv><Unicode>IA. 1</Unicode></TextEquiv>
    </TextRegion>
  </Page>
</PcGts>`

var errTransient = errors.New("transient")

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestLoadPageRetriesThreeTimes(t *testing.T) {
	calls := 0
	l := NewLoader(WithOpener(func(path string) (io.ReadCloser, error) {
		calls++
		return nil, errTransient
	}))

	_, err := l.LoadPage(context.Background(), "/data/page_7.xml")

	if calls != DefaultAttempts {
		t.Errorf("Expected %d attempts, got %d", DefaultAttempts, calls)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected LoadError, got %v", err)
	}
	if loadErr.Path != "/data/page_7.xml" {
		t.Errorf("Expected path in error, got %q", loadErr.Path)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Expected wrapped transient error, got %v", err)
	}
	if !strings.Contains(err.Error(), "page_7.xml") {
		t.Errorf("Expected error message to name the path, got %q", err.Error())
	}
}

func TestLoadPageRecovers(t *testing.T) {
	calls := 0
	l := NewLoader(WithOpener(func(path string) (io.ReadCloser, error) {
		calls++
		if calls < 3 {
			return nil, errTransient
		}
		return io.NopCloser(strings.NewReader(pageXML)), nil
	}))

	page, err := l.LoadPage(context.Background(), "page_1.xml")
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if page.ID != "page_1" {
		t.Errorf("Expected page ID page_1, got %q", page.ID)
	}
	if len(page.Regions) != 1 {
		t.Errorf("Expected 1 region, got %d", len(page.Regions))
	}
}

func TestLoadPageMalformedIsNotRetried(t *testing.T) {
	calls := 0
	l := NewLoader(WithOpener(func(path string) (io.ReadCloser, error) {
		calls++
		return io.NopCloser(strings.NewReader("<PcGts><Page></PcGts>")), nil
	}))

	_, err := l.LoadPage(context.Background(), "bad.xml")

	if err == nil {
		t.Fatal("Expected parse error")
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page_10.xml", "page_9.xml", "page_1.xml", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), pageXML)
	}

	l := NewLoader()

	paths, err := l.Discover(context.Background(), dir)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	var ids []string
	for _, p := range paths {
		ids = append(ids, PageID(p))
	}
	if !reflect.DeepEqual(ids, []string{"page_1", "page_9", "page_10"}) {
		t.Errorf("Expected natural page order, got %v", ids)
	}

	globbed, err := l.Discover(context.Background(), filepath.Join(dir, "page_1*.xml"))
	if err != nil {
		t.Fatalf("Discover with glob failed: %v", err)
	}
	if len(globbed) != 2 {
		t.Errorf("Expected 2 globbed pages, got %d", len(globbed))
	}

	pages, err := l.LoadVolume(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadVolume failed: %v", err)
	}
	if len(pages) != 3 || pages[2].ID != "page_10" {
		t.Errorf("Expected 3 pages ending with page_10, got %d", len(pages))
	}
}

func TestDiscoverSkipsHeadingsOutput(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page_1.xml", "page_2.xml", "vol_headings.xml", "headings.xml"} {
		writeFile(t, filepath.Join(dir, name), pageXML)
	}

	l := NewLoader()
	for _, input := range []string{dir, filepath.Join(dir, "*.xml")} {
		paths, err := l.Discover(context.Background(), input)
		if err != nil {
			t.Fatalf("Discover(%s) failed: %v", input, err)
		}
		if len(paths) != 2 {
			t.Errorf("Discover(%s): expected 2 pages, got %v", input, paths)
		}
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{path: "out/bmc_1_headings.xml", expected: true},
		{path: "headings.xml", expected: true},
		{path: "page_headings_1.xml", expected: false},
		{path: "page_1.xml", expected: false},
	}
	for _, tt := range tests {
		if got := IsHeadingsOutput(tt.path); got != tt.expected {
			t.Errorf("IsHeadingsOutput(%q): expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}

func TestDiscoverEmpty(t *testing.T) {
	_, err := NewLoader().Discover(context.Background(), t.TempDir())
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
}

func TestDiscoverMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, err := NewLoader().Discover(context.Background(), missing)

	var loadErr *LoadError
	if !errors.As(err, &loadErr) || loadErr.Path != missing {
		t.Fatalf("Expected LoadError naming %s, got %v", missing, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"page_9", "page_10", true},
		{"page_10", "page_9", false},
		{"a", "b", true},
		{"page_01", "page_1", false},
		{"page_1", "page_01", true},
		{"p2a", "p2b", true},
		{"p", "p1", true},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := NaturalLess(tt.a, tt.b); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
