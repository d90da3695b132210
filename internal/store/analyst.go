package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/5ys-5y5/getEvents/internal/analyst"
)

const (
	analystLogFile    = "analystLog.json"
	analystRatingFile = "analystRating.json"
)

// AnalystStore persists the analyst log and rating snapshots
type AnalystStore struct {
	files *FileStore
}

// NewAnalystStore creates an analyst store on the file store
func NewAnalystStore(files *FileStore) *AnalystStore {
	return &AnalystStore{files: files}
}

// LoadLog reads the analyst log, returning an empty log when none
// exists yet
func (s *AnalystStore) LoadLog() (*analyst.Log, error) {
	var log analyst.Log
	if err := s.files.LoadJSON(analystLogFile, &log); err != nil {
		if os.IsNotExist(err) {
			return analyst.NewLog(), nil
		}
		return nil, fmt.Errorf("analyst log: %w", err)
	}
	if log.Data == nil {
		log.Data = make(map[string][]analyst.LogRecord)
	}
	return &log, nil
}

// SaveLog persists the analyst log
func (s *AnalystStore) SaveLog(log *analyst.Log) error {
	return s.files.SaveJSON(analystLogFile, log)
}

// LogSnapshot returns a deep copy of the log. Ratings are generated
// from the copy so a refresh writing the live log cannot skew one in
// progress.
func (s *AnalystStore) LogSnapshot() (*analyst.Log, error) {
	log, err := s.LoadLog()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var snapshot analyst.Log
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Data == nil {
		snapshot.Data = make(map[string][]analyst.LogRecord)
	}
	return &snapshot, nil
}

// LoadRating reads the last generated rating, nil when none exists
func (s *AnalystStore) LoadRating() (*analyst.Rating, error) {
	var rating analyst.Rating
	if err := s.files.LoadJSON(analystRatingFile, &rating); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("analyst rating: %w", err)
	}
	return &rating, nil
}

// SaveRating persists a generated rating
func (s *AnalystStore) SaveRating(rating *analyst.Rating) error {
	return s.files.SaveJSON(analystRatingFile, rating)
}
