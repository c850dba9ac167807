// Package journal persists terminal approval requests as an append-only set
// of JSON documents through the afs abstraction, so the audit trail can live
// on a local folder, mem:// in tests, or object storage.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	approval "github.com/scriptoria/gatekeeper/service/approval"
)

// Service writes one document per terminal request under baseURL.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.Mutex
}

// New creates a journal rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fs:      afs.New(),
	}
}

// Append uploads the request as {baseURL}/{id}.json.  Appending the same id
// twice overwrites with identical content, so duplicate appends are safe.
func (s *Service) Append(ctx context.Context, r *approval.Request) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("journal: invalid request")
	}
	if !r.Status.Terminal() {
		return fmt.Errorf("journal: refusing to append non-terminal request %s", r.ID)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("journal: failed to marshal request %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dest := url.Join(s.baseURL, r.ID+".json")
	if err = s.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("journal: failed to append request %s: %w", r.ID, err)
	}
	return nil
}

// Load reads a journaled request back, primarily for audit tooling and
// tests.
func (s *Service) Load(ctx context.Context, id string) (*approval.Request, error) {
	data, err := s.fs.DownloadWithURL(ctx, url.Join(s.baseURL, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("journal: failed to read request %s: %w", id, err)
	}
	ret := &approval.Request{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("journal: failed to unmarshal request %s: %w", id, err)
	}
	return ret, nil
}

var _ approval.Journal = (*Service)(nil)
