package store

import (
	"sync"

	"line-gateway/internal/logging"
	"line-gateway/pkg/models"

	"github.com/rs/zerolog"
)

// MaxActivityRecords bounds the activity log; the oldest entries are
// dropped first.
const MaxActivityRecords = 100

// ActivitySink persists activity records. Prune keeps only the newest
// `keep` rows.
type ActivitySink interface {
	AppendActivity(rec models.ActivityRecord) error
	PruneActivity(keep int) error
	LoadRecentActivity(limit int) ([]models.ActivityRecord, error)
}

// ActivityStore keeps the bounded in-memory activity log, newest first,
// mirrored through an ActivitySink. Sink failures are logged, not raised.
type ActivityStore struct {
	mu      sync.Mutex
	sink    ActivitySink
	logger  zerolog.Logger
	records []models.ActivityRecord // newest first
}

func NewActivityStore(sink ActivitySink) *ActivityStore {
	s := &ActivityStore{
		sink:   sink,
		logger: logging.GetLogger("activity"),
	}
	records, err := sink.LoadRecentActivity(MaxActivityRecords)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load activity log, starting empty")
		return s
	}
	s.records = records
	return s
}

// Append adds a record and trims the log to the newest MaxActivityRecords
func (s *ActivityStore) Append(rec models.ActivityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.ActivityRecord{rec}, s.records...)
	if len(s.records) > MaxActivityRecords {
		s.records = s.records[:MaxActivityRecords]
	}

	if err := s.sink.AppendActivity(rec); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist activity record")
		return
	}
	if err := s.sink.PruneActivity(MaxActivityRecords); err != nil {
		s.logger.Error().Err(err).Msg("Failed to prune activity log")
	}
}

// Recent returns up to limit records, newest first
func (s *ActivityStore) Recent(limit int) []models.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]models.ActivityRecord, limit)
	copy(out, s.records[:limit])
	return out
}
