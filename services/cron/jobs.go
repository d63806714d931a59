package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/manyagkarle13/syllabus-maker/model"
)

// PurgeTrashedDocuments hard-deletes documents trashed longer than the
// retention period, together with their stored bytes.
func (m *CronManager) PurgeTrashedDocuments() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	entry := m.logJobStart(JobPurgeTrash)

	report, err := m.purger.PurgeTrash(ctx, m.config.TrashRetention, false)
	if err != nil {
		m.logJobError(entry, fmt.Errorf("failed to purge trash: %w", err))
		return
	}

	msg := fmt.Sprintf("Purged %d of %d trashed documents", report.Purged, report.Candidates)
	if report.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", report.Failed)
	}
	m.logJobComplete(entry, msg, report)
}

// CleanupCronLogs removes job logs older than 90 days.
func (m *CronManager) CleanupCronLogs() {
	entry := m.logJobStart(JobCleanupLogs)

	cutoff := time.Now().Add(-cronLogRetention)
	result := m.db.Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(entry, fmt.Errorf("failed to clean cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(entry, fmt.Sprintf("Cleaned %d old cron logs", result.RowsAffected), nil)
}
