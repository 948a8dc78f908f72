// Package htmlref scans opaque HTML byte content for embedded image
// references and splices replacement bytes back into the original
// content by exact byte range.
package htmlref

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// The document body is treated as opaque markup text, not a parsed tree,
// so a single pattern over raw bytes does the extraction. Unrelated
// attributes may appear before and after src.
var imgTagRE = regexp.MustCompile(`<img( [^>]+)* src="(?P<url>[^"]+)"[^>]*>`)

var urlGroup = imgTagRE.SubexpIndex("url")

// Match is one image reference found in the content. Start and End are
// a half-open byte range over the original content.
type Match struct {
	Start int
	End   int
	Tag   string
	URL   string
}

// Extract returns all image references in content, in left-to-right scan
// order. References with an inline data: payload are dropped. A match
// whose bytes are not valid UTF-8 is logged via logf and skipped;
// extraction continues with the remaining matches.
func Extract(content []byte, logf func(format string, v ...any)) []Match {
	var matches []Match
	for _, idx := range imgTagRE.FindAllSubmatchIndex(content, -1) {
		tag := content[idx[0]:idx[1]]
		if !utf8.Valid(tag) {
			if logf != nil {
				logf("non-UTF8 image tag at byte %d; skipping", idx[0])
			}
			continue
		}
		url := string(content[idx[2*urlGroup]:idx[2*urlGroup+1]])
		if strings.HasPrefix(url, "data:") {
			continue
		}
		matches = append(matches, Match{
			Start: idx[0],
			End:   idx[1],
			Tag:   string(tag),
			URL:   url,
		})
	}
	return matches
}
