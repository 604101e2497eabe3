package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dripbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.deliveries.jsonl  (append-only JSON Lines journal)
//   - <prefix>.fired.json        (slot -> last-fired date snapshot)
//
// The fired snapshot is rewritten atomically on every update; with a handful
// of reminder slots per day that is a few tiny writes daily.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	journal   *os.File
	firedPath string
	fired     map[string]string // slot -> "2006-01-02"
}

type deliveryLine struct {
	At       time.Time `json:"at"`
	Slot     string    `json:"slot"`
	Preview  string    `json:"preview,omitempty"`
	OK       bool      `json:"ok"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	journalPath := prefix + ".deliveries.jsonl"
	firedPath := prefix + ".fired.json"

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	fired := map[string]string{}
	if err := loadFiredSnapshot(firedPath, fired); err != nil && !os.IsNotExist(err) {
		log.Warn("fired snapshot unreadable; starting empty", logx.String("path", firedPath), logx.Err(err))
	}

	return &fileStore{
		log:       log,
		journal:   jf,
		firedPath: firedPath,
		fired:     fired,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}

func (s *fileStore) AppendDelivery(ctx context.Context, r DeliveryRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return errors.New("delivery journal closed")
	}
	line := deliveryLine{At: r.At, Slot: r.Slot, Preview: r.Preview, OK: r.OK, Attempts: r.Attempts, Error: r.Error}
	return json.NewEncoder(s.journal).Encode(line)
}

func (s *fileStore) PutLastFired(ctx context.Context, slot string, day string) error {
	_ = ctx
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fired == nil {
		s.fired = map[string]string{}
	}
	s.fired[slot] = day
	return s.writeFiredLocked()
}

func (s *fileStore) LastFired(ctx context.Context) (map[string]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fired))
	for k, v := range s.fired {
		out[k] = v
	}
	return out, nil
}

func (s *fileStore) writeFiredLocked() error {
	tmp := s.firedPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.fired); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.firedPath)
}

func loadFiredSnapshot(path string, out map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]string
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}
