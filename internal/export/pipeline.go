// Package export drives the per-document pipeline: retrying download,
// reference extraction, concurrent image resolution, byte splicing, and
// an exclusive-create write, with per-document diagnostics buffered and
// flushed as one block.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"paperdump/internal/fetch"
	"paperdump/internal/htmlref"
	"paperdump/internal/imagecache"
	"paperdump/internal/journal"
	"paperdump/internal/paper"
	"paperdump/internal/pool"
	"paperdump/internal/registry"
)

const docURLPrefix = "https://paper.dropbox.com/doc/"

// DocURL is the canonical locator for a document ID; it keys the
// registry.
func DocURL(id string) string {
	return docURLPrefix + id
}

type Pipeline struct {
	Client   paper.Client
	Registry *registry.Registry
	Cache    *imagecache.Cache
	// Images is the single image pool shared by all document workers.
	Images  *pool.Pool
	Journal *journal.Journal // optional

	OutDir        string
	ExportContent bool
	Attempts      int
	RetryDelay    time.Duration

	// Out receives one flushed log block per document. Defaults to
	// os.Stdout.
	Out io.Writer
	// Now stamps the output wrapper. Defaults to time.Now.
	Now func() time.Time

	outMu sync.Mutex
}

// Run exports every document ID on a bounded pool of workers and blocks
// until all of them have finished. Per-document failures never abort the
// run.
func (p *Pipeline) Run(ids []string, workers int) {
	docs := pool.New(workers)
	for _, id := range ids {
		id := id
		docs.Submit(func() { p.exportDoc(id) })
	}
	docs.Wait()
}

// docLog buffers one document's diagnostics so concurrently processed
// documents never interleave on the shared output stream.
type docLog struct {
	buf bytes.Buffer
}

func (l *docLog) Printf(format string, v ...any) {
	fmt.Fprintf(&l.buf, format+"\n", v...)
}

func (p *Pipeline) flush(l *docLog) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	p.outMu.Lock()
	defer p.outMu.Unlock()
	out.Write(l.buf.Bytes())
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) exportDoc(id string) {
	start := time.Now()
	docURL := DocURL(id)

	lg := &docLog{}
	lg.Printf("%s", docURL)
	defer p.flush(lg)

	entry := journal.Entry{DocID: id, URL: docURL, Status: journal.StatusFailed}
	defer func() {
		entry.DurationMS = time.Since(start).Milliseconds()
		if p.Journal != nil {
			if err := p.Journal.Record(entry); err != nil {
				lg.Printf("journal write failed: %v", err)
			}
		}
	}()

	if p.Registry.Contains(docURL) {
		lg.Printf("already downloaded; skipping")
		entry.Status = journal.StatusSkippedRegistry
		return
	}

	fetcher := &fetch.Fetcher{Attempts: p.Attempts, Delay: p.RetryDelay, Logf: lg.Printf}
	var doc *paper.Doc
	err := fetcher.Do(func() error {
		entry.Attempts++
		var err error
		doc, err = p.Client.Download(id, p.ExportContent)
		return err
	})
	if err != nil {
		if errors.Is(err, fetch.ErrTooManyFailures) {
			lg.Printf("too many errors; skipping doc")
		}
		return
	}

	lg.Printf("title: %s", doc.Title)
	lg.Printf("owner: %s", doc.Owner)

	if !p.ExportContent {
		entry.Status = journal.StatusMetadataOnly
		return
	}

	name := docFilename(doc.Title, id)
	outPath := filepath.Join(p.OutDir, name)
	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			lg.Printf("file already downloaded; skipping")
			entry.Status = journal.StatusSkippedOnDisk
			return
		}
		lg.Printf("failed to create file %s: %v", outPath, err)
		return
	}
	defer file.Close()

	matches := htmlref.Extract(doc.Body, lg.Printf)
	spans := p.resolveImages(matches, lg)
	lg.Printf("downloaded %d of %d images", len(spans), len(matches))
	entry.ImagesResolved = len(spans)
	entry.ImagesTotal = len(matches)

	// Fan-out results arrive in arbitrary order; the splicer requires
	// ascending ranges.
	htmlref.SortSpans(spans)

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html><html><head><title>%s</title></head>"+
		"<body><p>downloaded on %s from <a href=%q>%s</a><br>owned by %s</p>\n",
		doc.Title, p.now().Format(time.RFC1123Z), docURL, docURL, doc.Owner)
	out.Write(htmlref.Splice(doc.Body, spans))
	out.WriteString("</body></html>\n")

	if _, err := file.Write(out.Bytes()); err != nil {
		lg.Printf("I/O error writing file %s: %v", outPath, err)
		return
	}

	// Only a fully written document earns a registry entry.
	p.Registry.Put(registry.Record{
		URL:   docURL,
		Name:  doc.Title,
		Owner: doc.Owner,
		Path:  name,
	})
	entry.Status = journal.StatusDone
}

// resolveImages fans each reference out to the shared image pool and
// blocks until every submission has reported back. Failed resolutions
// are logged and dropped; their original bytes stay in the output.
func (p *Pipeline) resolveImages(matches []htmlref.Match, lg *docLog) []htmlref.Span {
	if len(matches) == 0 {
		return nil
	}

	type result struct {
		span htmlref.Span
		err  error
	}
	results := make(chan result, len(matches))
	for _, m := range matches {
		m := m
		p.Images.Submit(func() {
			local, err := p.Cache.Resolve(m.URL)
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{span: htmlref.Span{
				Start:       m.Start,
				End:         m.End,
				Replacement: []byte(strings.ReplaceAll(m.Tag, m.URL, local)),
			}}
		})
	}

	var spans []htmlref.Span
	for range matches {
		r := <-results
		if r.err != nil {
			lg.Printf("failed to fetch image: %v", r.err)
			continue
		}
		spans = append(spans, r.span)
	}
	return spans
}

// docFilename derives the output filename from the document title and
// ID. Non-ASCII runes are dropped, filesystem separators become
// underscores, and an empty sanitized title gets a fixed placeholder.
func docFilename(title, id string) string {
	var b strings.Builder
	for _, c := range title {
		if c > unicode.MaxASCII {
			continue
		}
		switch c {
		case '/', '\\', ':':
			b.WriteRune('_')
		default:
			b.WriteRune(c)
		}
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		name = "(unprintable)"
	}
	return fmt.Sprintf("%s (%s).html", name, id)
}
