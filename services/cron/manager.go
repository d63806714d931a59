package cron

import (
	"context"
	"encoding/json"
	"time"

	"github.com/manyagkarle13/syllabus-maker/config"
	"github.com/manyagkarle13/syllabus-maker/model"
	"github.com/manyagkarle13/syllabus-maker/services"
	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobPurgeTrash     = "purge_trashed_documents"
	JobCleanupLogs    = "cleanup_cron_logs"
	cronLogRetention  = 90 * 24 * time.Hour
	cleanupLogsAtFour = "0 0 4 * * *"
)

// TrashPurger hard-deletes documents that have been in the trash too long
type TrashPurger interface {
	PurgeTrash(ctx context.Context, retention time.Duration, dryRun bool) (*services.PurgeReport, error)
}

// Config holds the schedules of the registered jobs
type Config struct {
	PurgeSchedule  string
	TrashRetention time.Duration
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	purger TrashPurger
	config Config
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, purger TrashPurger, cfg Config) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	if cfg.PurgeSchedule == "" {
		cfg.PurgeSchedule = "0 0 2 * * *"
	}
	if cfg.TrashRetention <= 0 {
		cfg.TrashRetention = 30 * 24 * time.Hour
	}

	return &CronManager{
		cron:   c,
		db:     db,
		purger: purger,
		config: cfg,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log := config.GetLogger()
	log.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.WithField("jobs", len(m.cron.Entries())).Info("cron jobs started")
	return nil
}

// Stop stops all cron jobs and waits for running ones
func (m *CronManager) Stop() {
	config.GetLogger().Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	config.GetLogger().Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Daily by default: purge the document trash
	_, err := m.cron.AddFunc(m.config.PurgeSchedule, m.PurgeTrashedDocuments)
	if err != nil {
		return err
	}

	// Daily at 4 AM: drop old job logs
	_, err = m.cron.AddFunc(cleanupLogsAtFour, m.CleanupCronLogs)
	if err != nil {
		return err
	}

	return nil
}

// logJobStart records a running job and returns its log entry
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	config.GetLogger().WithField("job", jobName).Info("cron job started")

	cronLog := &model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(cronLog).Error; err != nil {
		config.LogError(config.GetLogger(), "cron", "logJobStart", "create job log", jobName, err)
	}
	return cronLog
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string, metadata interface{}) {
	config.GetLogger().WithField("job", entry.JobName).Info(message)

	updates := map[string]interface{}{
		"status":       "completed",
		"completed_at": time.Now(),
		"duration":     int(time.Since(entry.StartedAt).Milliseconds()),
		"message":      message,
	}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			updates["metadata"] = datatypes.JSON(raw)
		}
	}
	m.finish(entry, updates)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	config.LogError(config.GetLogger(), "cron", entry.JobName, "job failed", nil, err)

	m.finish(entry, map[string]interface{}{
		"status":       "failed",
		"completed_at": time.Now(),
		"duration":     int(time.Since(entry.StartedAt).Milliseconds()),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		config.LogError(config.GetLogger(), "cron", "finish", "update job log", entry.ID, err)
	}
}
