package analytics

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Interaction is one completed query, recorded for experiment tracking.
type Interaction struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Variant      string    `json:"variant"`
	ExperimentID string    `json:"experimentId,omitempty"`
	Query        string    `json:"query"`
	Response     string    `json:"response"`
	Sources      []string  `json:"sources,omitempty"`
	ResponseMs   int64     `json:"responseMs"`
	Rating       *int      `json:"rating,omitempty"`
}

// Experiment is an A/B test comparing two prompt or pipeline variants.
type Experiment struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name"`
	Hypothesis string    `json:"hypothesis,omitempty"`
	VariantA   string    `json:"variantA"`
	VariantB   string    `json:"variantB"`
	Status     string    `json:"status"`
}

// VariantStats aggregates one experiment arm.
type VariantStats struct {
	Variant       string  `json:"variant"`
	SampleSize    int     `json:"sampleSize"`
	AvgRating     float64 `json:"avgRating,omitempty"`
	RatingsCount  int     `json:"ratingsCount"`
	AvgResponseMs float64 `json:"avgResponseMs,omitempty"`
}

// Results compares both arms of an experiment.
type Results struct {
	Experiment string       `json:"experiment"`
	A          VariantStats `json:"variantA"`
	B          VariantStats `json:"variantB"`
	Winner     string       `json:"winner,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}

type logFile struct {
	Version      string        `json:"version"`
	CreatedAt    time.Time     `json:"createdAt"`
	Experiments  []Experiment  `json:"experiments"`
	Interactions []Interaction `json:"interactions"`
}

// Log is a flat append-only event log on disk. It is a best-effort sink:
// callers log failures and move on, a query must never fail because the
// analytics write did.
type Log struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewLog creates an event log backed by the given file.
func NewLog(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{path: path, logger: logger}
}

// Track appends a completed-query event, filling in ID and timestamp.
func (l *Log) Track(in Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return err
	}
	in.ID = uuid.NewString()
	in.Timestamp = time.Now().UTC()
	if in.Variant == "" {
		in.Variant = "A"
	}
	data.Interactions = append(data.Interactions, in)
	return l.write(data)
}

// TrackQuery records a completed query in the default variant. It is the
// hook the query pipeline calls after every answered request.
func (l *Log) TrackQuery(query, response string, sources []string, elapsed time.Duration) error {
	return l.Track(Interaction{
		Query:      query,
		Response:   response,
		Sources:    sources,
		ResponseMs: elapsed.Milliseconds(),
	})
}

// CreateExperiment registers a new running experiment and returns its ID.
func (l *Log) CreateExperiment(name, hypothesis, variantA, variantB string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return "", err
	}
	exp := Experiment{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Name:       name,
		Hypothesis: hypothesis,
		VariantA:   variantA,
		VariantB:   variantB,
		Status:     "running",
	}
	data.Experiments = append(data.Experiments, exp)
	if err := l.write(data); err != nil {
		return "", err
	}
	return exp.ID, nil
}

// ExperimentResults aggregates both arms of an experiment. The winner is
// decided by average rating when enough rated samples exist, otherwise by
// average response time; with fewer than 10 samples per arm there is no
// winner yet.
func (l *Log) ExperimentResults(experimentID string) (*Results, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		return nil, err
	}
	var exp *Experiment
	for i := range data.Experiments {
		if data.Experiments[i].ID == experimentID {
			exp = &data.Experiments[i]
			break
		}
	}
	if exp == nil {
		return nil, errors.Errorf("experiment not found: %s", experimentID)
	}

	res := &Results{
		Experiment: exp.Name,
		A:          variantStats(data.Interactions, experimentID, "A"),
		B:          variantStats(data.Interactions, experimentID, "B"),
	}
	decideWinner(res)
	return res, nil
}

// Count returns the total number of recorded interactions.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.read()
	if err != nil {
		l.logger.Warn("failed to read analytics log", "error", err)
		return 0
	}
	return len(data.Interactions)
}

func variantStats(interactions []Interaction, experimentID, variant string) VariantStats {
	stats := VariantStats{Variant: variant}
	var ratingSum, msSum float64
	for _, in := range interactions {
		if in.ExperimentID != experimentID || in.Variant != variant {
			continue
		}
		stats.SampleSize++
		msSum += float64(in.ResponseMs)
		if in.Rating != nil {
			stats.RatingsCount++
			ratingSum += float64(*in.Rating)
		}
	}
	if stats.RatingsCount > 0 {
		stats.AvgRating = ratingSum / float64(stats.RatingsCount)
	}
	if stats.SampleSize > 0 {
		stats.AvgResponseMs = msSum / float64(stats.SampleSize)
	}
	return stats
}

func decideWinner(res *Results) {
	if res.A.SampleSize < 10 || res.B.SampleSize < 10 {
		res.Reason = "not enough data (need 10 samples per variant)"
		return
	}
	if res.A.RatingsCount > 0 && res.B.RatingsCount > 0 {
		if res.A.AvgRating >= res.B.AvgRating {
			res.Winner = "A"
		} else {
			res.Winner = "B"
		}
		res.Reason = "higher average rating"
		return
	}
	if res.A.AvgResponseMs <= res.B.AvgResponseMs {
		res.Winner = "A"
	} else {
		res.Winner = "B"
	}
	res.Reason = "lower average response time"
}

func (l *Log) read() (*logFile, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &logFile{Version: "1.0", CreatedAt: time.Now().UTC()}, nil
		}
		return nil, errors.Wrap(err, "read analytics log")
	}
	var data logFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "parse analytics log")
	}
	return &data, nil
}

func (l *Log) write(data *logFile) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.Wrap(err, "create analytics dir")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal analytics log")
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".analytics-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp analytics log")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write analytics log")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close analytics log")
	}
	return errors.Wrap(os.Rename(tmp.Name(), l.path), "replace analytics log")
}
