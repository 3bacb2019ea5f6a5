package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/saramin-crawler/internal/domain/events"
	"github.com/maxaizer/saramin-crawler/internal/domain/models"
	"github.com/maxaizer/saramin-crawler/internal/logger"
	log "github.com/sirupsen/logrus"
)

const snapshotSource = "saramin"

type snapshot struct {
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Summary     models.CrawlRunSummary `json:"summary"`
}

// SnapshotWriter stores every completed run as a JSON file in dir.
type SnapshotWriter struct {
	dir string
	now func() time.Time
}

func NewSnapshotWriter(bus EventBus.Bus, dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	w := &SnapshotWriter{dir: dir, now: time.Now}
	if err := bus.Subscribe(events.CrawlCompletedTopic, w.onCrawlCompleted); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *SnapshotWriter) Write(summary models.CrawlRunSummary) (string, error) {
	data, err := json.MarshalIndent(snapshot{
		Source:      snapshotSource,
		GeneratedAt: w.now(),
		Summary:     summary,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("crawl_%s.json", summary.StartedAt.Format("20060102_150405")))
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (w *SnapshotWriter) onCrawlCompleted(event events.CrawlCompleted) {
	path, err := w.Write(event.Summary)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeFs).Errorf("failed to write crawl snapshot: %v", err)
		return
	}
	log.Infof("crawl snapshot saved to %v", path)
}
