package matchinginfra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Abraxas-365/hireflow/pkg/fsx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// Catalog is the on-disk shape of a profile export.
type Catalog struct {
	Jobs       []matching.JobProfile       `json:"jobs"`
	Candidates []matching.CandidateProfile `json:"candidates"`
}

// FileDirectory serves jobs and candidates from a JSON catalog read through
// fsx, so the same export works from a local path or S3.
type FileDirectory struct {
	mu         sync.RWMutex
	jobs       map[kernel.JobID]matching.JobProfile
	candidates map[kernel.CandidateID]matching.CandidateProfile
}

var (
	_ matching.CandidateDirectory = (*FileDirectory)(nil)
	_ matching.JobDirectory       = (*FileDirectory)(nil)
)

// LoadCatalog reads and decodes a catalog file.
func LoadCatalog(ctx context.Context, fs fsx.FileReader, path string) (*Catalog, error) {
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return &c, nil
}

func NewFileDirectory(c *Catalog) *FileDirectory {
	d := &FileDirectory{
		jobs:       make(map[kernel.JobID]matching.JobProfile),
		candidates: make(map[kernel.CandidateID]matching.CandidateProfile),
	}
	if c != nil {
		d.Add(*c)
	}
	return d
}

// Add merges a catalog. Later entries replace earlier ones with the same id.
func (d *FileDirectory) Add(c Catalog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, j := range c.Jobs {
		d.jobs[j.ID] = j
	}
	for _, cand := range c.Candidates {
		d.candidates[cand.ID] = cand
	}
}

// GetCandidates returns the known candidates in request order. Unknown ids
// are skipped; the index may reference profiles removed from the export.
func (d *FileDirectory) GetCandidates(ctx context.Context, ids []kernel.CandidateID) ([]matching.CandidateProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]matching.CandidateProfile, 0, len(ids))
	for _, id := range ids {
		if c, ok := d.candidates[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *FileDirectory) GetJobs(ctx context.Context, ids []kernel.JobID) ([]matching.JobProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]matching.JobProfile, 0, len(ids))
	for _, id := range ids {
		if j, ok := d.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}
