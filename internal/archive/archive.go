// Package archive provides the session-scoped file store. Each crawl run
// gets one immutable directory tree holding raw page captures, the
// structured export of new records, the analysis report, and a metadata
// descriptor written last as the clean-close marker.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

// Bucket directory names inside a session.
const (
	rawDataDir    = "raw_data"
	structuredDir = "structured_data"
	reportDir     = "analysis_report"
	metadataFile  = "session_metadata.json"
)

const (
	dayFormat       = "20060102"
	timestampFormat = "20060102_150405"
	dirPerm         = 0o755
	filePerm        = 0o644
)

// Store allocates session directories under a base data directory.
type Store struct {
	baseDir string
	logger  logger.Interface

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a session store rooted at baseDir.
func NewStore(baseDir string, log logger.Interface) *Store {
	return &Store{
		baseDir: baseDir,
		logger:  log,
		now:     time.Now,
	}
}

// Session is one run's directory tree. It is created once per run and never
// reused or mutated by any other run.
type Session struct {
	dir       string
	platform  domain.Platform
	timestamp string
	logger    logger.Interface
}

// Open allocates a new session directory for the given platform and keyword.
// The path is <base>/<YYYYMMDD>_<platform>/<YYYYMMDD_HHMMSS>_<platform>_<keyword>/
// with the timestamp component guaranteeing uniqueness at second resolution
// and the sanitized keyword disambiguating sessions started the same second.
func (s *Store) Open(platform domain.Platform, keyword string) (*Session, error) {
	now := s.now()
	timestamp := now.Format(timestampFormat)

	dayDir := fmt.Sprintf("%s_%s", now.Format(dayFormat), platform)
	sessionDir := fmt.Sprintf("%s_%s_%s", timestamp, platform, SanitizeKeyword(keyword))
	dir := filepath.Join(s.baseDir, dayDir, sessionDir)

	for _, bucket := range []string{rawDataDir, structuredDir, reportDir} {
		if err := os.MkdirAll(filepath.Join(dir, bucket), dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	s.logger.Info("Created session directory", "path", dir)

	return &Session{
		dir:       dir,
		platform:  platform,
		timestamp: timestamp,
		logger:    s.logger,
	}, nil
}

// Dir returns the session's root directory.
func (s *Session) Dir() string {
	return s.dir
}

// WriteRawPage writes one page's raw items, pre-dedup and pre-normalization,
// named deterministically by page number so pages can be replayed and
// audited independently.
func (s *Session) WriteRawPage(page int, items []map[string]any) error {
	name := fmt.Sprintf("%s_raw_page_%03d.json", s.platform, page)
	return s.writeJSON(filepath.Join(s.dir, rawDataDir, name), items)
}

// WriteStructured writes the full set of new, deduplicated records for the run.
func (s *Session) WriteStructured(records []*domain.Record) error {
	name := fmt.Sprintf("%s_structured_data_%s.json", s.platform, s.timestamp)
	return s.writeJSON(filepath.Join(s.dir, structuredDir, name), records)
}

// WriteReport writes the analysis report. Optional; written only when the
// aggregation engine produced one.
func (s *Session) WriteReport(report *domain.Report) error {
	name := fmt.Sprintf("%s_analysis_report_%s.json", s.platform, s.timestamp)
	return s.writeJSON(filepath.Join(s.dir, reportDir, name), report)
}

// Metadata describes a finished session. Its presence marks a run that
// closed cleanly from the archive's perspective.
type Metadata struct {
	SessionID  string         `json:"session_id"`
	SessionDir string         `json:"session_dir"`
	CreatedAt  time.Time      `json:"created_at"`
	Platform   string         `json:"platform"`
	Keyword    string         `json:"keyword"`
	Run        *domain.CrawlRun `json:"run,omitempty"`
}

// WriteMetadata writes the session descriptor. Always written last.
func (s *Session) WriteMetadata(meta *Metadata) error {
	meta.SessionID = s.timestamp
	meta.SessionDir = s.dir
	meta.Platform = s.platform.String()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	return s.writeJSON(filepath.Join(s.dir, metadataFile), meta)
}

func (s *Session) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	s.logger.Debug("Wrote archive artifact", "path", path, "bytes", len(data))
	return nil
}
