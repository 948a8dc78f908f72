// Package registry persists the run-spanning record of exported
// documents. Documents present in the registry at startup are skipped
// without any network traffic.
package registry

import (
	"encoding/json"
	"log"
	"os"
	"sort"
	"sync"
)

// Record is the export metadata kept for one document.
type Record struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Path  string `json:"path"`
}

type fileFormat struct {
	Docs []Record `json:"docs"`
}

// Registry is a mutex-guarded map from canonical document URL to its
// Record, loaded from and saved to a JSON file.
type Registry struct {
	path string
	mu   sync.Mutex
	docs map[string]Record
}

// Load reads the registry file at path. A missing file is normal on the
// first run; a malformed file is logged and treated as empty. Neither is
// fatal.
func Load(path string) *Registry {
	r := &Registry{path: path, docs: make(map[string]Record)}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("error opening %s: %v", path, err)
		}
		return r
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("error deserializing %s: %v", path, err)
		return r
	}
	for _, rec := range f.Docs {
		r.docs[rec.URL] = rec
	}
	return r
}

// Contains reports whether the document at url was already exported.
func (r *Registry) Contains(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[url]
	return ok
}

// Put records a completed export. At most one record exists per URL.
func (r *Registry) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[rec.URL] = rec
}

// Records returns all records sorted by display name, for deterministic
// serialization and index generation.
func (r *Registry) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := make([]Record, 0, len(r.docs))
	for _, rec := range r.docs {
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs
}

// Save writes the registry back to its file, sorted by display name.
func (r *Registry) Save() error {
	data, err := json.Marshal(fileFormat{Docs: r.Records()})
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0644)
}
