package jobs

import (
	"context"
	"log"
	"time"

	"ehrm-server/config"
	"ehrm-server/database"
	"ehrm-server/services"
)

// ReminderJob periodically nags approvers about stale pending requests
// and sweeps expired refresh tokens.
type ReminderJob struct {
	engine     *services.ApprovalEngine
	jwtService *services.JWTService
	interval   time.Duration
	stopChan   chan bool
}

// NewReminderJob creates a new reminder job
func NewReminderJob(engine *services.ApprovalEngine) *ReminderJob {
	return &ReminderJob{
		engine:     engine,
		jwtService: services.NewJWTService(database.DB),
		interval:   time.Hour,
		stopChan:   make(chan bool),
	}
}

// Start begins the reminder job
func (j *ReminderJob) Start() {
	go j.run()
	log.Println("🚀 Approval reminder job started")
}

// Stop stops the reminder job
func (j *ReminderJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Approval reminder job stopped")
}

func (j *ReminderJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.remindStaleApprovals()
			j.cleanupExpiredTokens()
		case <-j.stopChan:
			return
		}
	}
}

// remindStaleApprovals re-notifies approvers whose step has sat pending
// longer than the configured threshold. Dedupe keys keep it to once a day.
func (j *ReminderJob) remindStaleApprovals() {
	olderThan := time.Duration(config.AppConfig.Notification.ReminderAfterHours) * time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := j.engine.RemindPending(ctx, olderThan)
	if err != nil {
		log.Printf("❌ Approval reminder sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("⏰ Sent %d approval reminders", count)
	}
}

func (j *ReminderJob) cleanupExpiredTokens() {
	if err := j.jwtService.CleanupExpiredTokens(); err != nil {
		log.Printf("❌ Failed to clean up expired refresh tokens: %v", err)
	}
}
