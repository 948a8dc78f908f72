package htmlref

import (
	"fmt"
	"strings"
	"testing"
)

func TestExtract_SingleTag(t *testing.T) {
	content := []byte(`<p>before</p><img src="https://example.com/a.png"><p>after</p>`)

	matches := Extract(content, nil)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	m := matches[0]
	if m.URL != "https://example.com/a.png" {
		t.Errorf("URL = %q", m.URL)
	}
	if got := string(content[m.Start:m.End]); got != m.Tag {
		t.Errorf("range [%d,%d) yields %q, tag is %q", m.Start, m.End, got, m.Tag)
	}
}

func TestExtract_ExtraAttributes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantURL string
	}{
		{
			name:    "attributes before src",
			content: `<img class="pic" alt="x" src="http://h/i.gif">`,
			wantURL: "http://h/i.gif",
		},
		{
			name:    "attributes after src",
			content: `<img src="http://h/i.gif" width="10" height="20">`,
			wantURL: "http://h/i.gif",
		},
		{
			name:    "attributes on both sides",
			content: `<img id="a" src="http://h/deep/path/i.jpeg" loading="lazy">`,
			wantURL: "http://h/deep/path/i.jpeg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := Extract([]byte(tt.content), nil)
			if len(matches) != 1 {
				t.Fatalf("got %d matches, want 1", len(matches))
			}
			if matches[0].URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", matches[0].URL, tt.wantURL)
			}
		})
	}
}

func TestExtract_ScanOrderAndRanges(t *testing.T) {
	content := []byte(`<img src="http://h/1.png">middle<img src="http://h/2.png">`)

	matches := Extract(content, nil)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Start >= matches[1].Start {
		t.Errorf("matches not in left-to-right order: %d, %d", matches[0].Start, matches[1].Start)
	}
	if matches[0].End > matches[1].Start {
		t.Errorf("overlapping ranges: [%d,%d) and [%d,%d)",
			matches[0].Start, matches[0].End, matches[1].Start, matches[1].End)
	}
}

func TestExtract_SkipsDataURLs(t *testing.T) {
	content := []byte(`<img src="data:image/png;base64,AAAA"><img src="http://h/real.png">`)

	matches := Extract(content, nil)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].URL != "http://h/real.png" {
		t.Errorf("URL = %q", matches[0].URL)
	}
}

func TestExtract_SkipsNonUTF8TagKeepsOthers(t *testing.T) {
	bad := "<img alt=\"\xff\xfe\" src=\"http://h/bad.png\">"
	good := `<img src="http://h/good.png">`
	content := []byte(bad + "text" + good)

	var logged []string
	logf := func(format string, v ...any) {
		logged = append(logged, fmt.Sprintf(format, v...))
	}

	matches := Extract(content, logf)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].URL != "http://h/good.png" {
		t.Errorf("URL = %q", matches[0].URL)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "non-UTF8") {
		t.Errorf("expected one non-UTF8 diagnostic, got %q", logged)
	}
}

func TestExtract_NoReferences(t *testing.T) {
	if matches := Extract([]byte("<p>plain document, no images</p>"), nil); matches != nil {
		t.Errorf("got %v, want none", matches)
	}
}
