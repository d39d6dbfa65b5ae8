package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logx "tymeloop/pkg/logx"
)

// compactEvery is how many run summary writes go to the journal before it is
// folded into the snapshot.
const compactEvery = 200

// fileStore keeps the journal in plain files.
//
// Files:
//   - <prefix>.records.jsonl       (append-only JSON Lines)
//   - <prefix>.runs.snapshot.json  (all run summaries)
//   - <prefix>.runs.journal.jsonl  (summary upserts since the last snapshot)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	recordsPath string
	recordsFile *os.File

	runsSnapshotPath string
	runsJournalFile  *os.File
	runs             map[string]RunSummary

	runWrites int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("journal.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	recordsPath := prefix + ".records.jsonl"
	snapPath := prefix + ".runs.snapshot.json"
	journalPath := prefix + ".runs.journal.jsonl"

	rf, err := os.OpenFile(recordsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	runs := map[string]RunSummary{}
	if err := loadRunSnapshot(snapPath, runs); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("run snapshot unreadable", logx.String("path", snapPath), logx.Err(err))
	}
	if err := replayRunJournal(journalPath, runs); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("run journal unreadable", logx.String("path", journalPath), logx.Err(err))
	}

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = rf.Close()
		return nil, err
	}

	return &fileStore{
		log:              log,
		recordsPath:      recordsPath,
		recordsFile:      rf,
		runsSnapshotPath: snapPath,
		runsJournalFile:  jf,
		runs:             runs,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.recordsFile != nil {
		errs = append(errs, s.recordsFile.Close())
		s.recordsFile = nil
	}
	if s.runsJournalFile != nil {
		errs = append(errs, s.runsJournalFile.Close())
		s.runsJournalFile = nil
	}
	return errors.Join(errs...)
}

func (s *fileStore) AppendRecord(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordsFile == nil {
		return ErrClosed
	}
	return json.NewEncoder(s.recordsFile).Encode(r)
}

// Records scans the records file; runs are not indexed.
func (s *fileStore) Records(ctx context.Context, run string) ([]Record, error) {
	s.mu.Lock()
	closed := s.recordsFile == nil
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	f, err := os.Open(s.recordsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		if r.Run == run {
			out = append(out, r)
		}
	}
	return out, sc.Err()
}

func (s *fileStore) PutRun(_ context.Context, sum RunSummary) error {
	if strings.TrimSpace(sum.Run) == "" {
		return errors.New("run id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runsJournalFile == nil {
		return ErrClosed
	}
	s.runs[sum.Run] = sum
	if err := json.NewEncoder(s.runsJournalFile).Encode(sum); err != nil {
		return err
	}
	s.runWrites++
	if s.runWrites%compactEvery == 0 {
		if err := s.compactLocked(); err != nil {
			s.log.Debug("run journal compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) LastRun(_ context.Context) (RunSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runsJournalFile == nil {
		return RunSummary{}, false, ErrClosed
	}
	return latestRun(s.runs)
}

func latestRun(runs map[string]RunSummary) (RunSummary, bool, error) {
	if len(runs) == 0 {
		return RunSummary{}, false, nil
	}
	all := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Started.Equal(all[j].Started) {
			return all[i].Run < all[j].Run
		}
		return all[i].Started.Before(all[j].Started)
	})
	return all[len(all)-1], true, nil
}

// compactLocked writes every summary to the snapshot and truncates the
// journal. The snapshot is replaced atomically via rename.
func (s *fileStore) compactLocked() error {
	tmp := s.runsSnapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.runs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.runsSnapshotPath); err != nil {
		return err
	}
	if err := s.runsJournalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.runsJournalFile.Seek(0, io.SeekEnd)
	return err
}

func loadRunSnapshot(path string, out map[string]RunSummary) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]RunSummary
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

func replayRunJournal(path string, out map[string]RunSummary) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r RunSummary
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil || r.Run == "" {
			continue
		}
		out[r.Run] = r
	}
	return sc.Err()
}
