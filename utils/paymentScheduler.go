package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/database"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// InitializePaymentScheduler sets up the stale-payment sweep
func InitializePaymentScheduler() {
	log.Println("[PAYMENT-SCHEDULER] Initializing payment scheduler...")

	c := cron.New()

	// Run hourly to cancel gateway payments stuck in PENDING past the expiry window
	c.AddFunc("0 * * * *", func() {
		ExpireStalePayments()
	})

	c.Start()
	log.Println("[PAYMENT-SCHEDULER] Payment scheduler started - runs hourly")
}

// ExpireStalePayments cancels gateway payments that never left PENDING.
// The conditional update keeps it safe against a webhook landing mid-sweep.
func ExpireStalePayments() {
	db := database.Database.Db
	cutoff := time.Now().Add(-time.Duration(config.AppConfig.PaymentExpiryHours) * time.Hour)

	res := db.Model(&courseModels.Payment{}).
		Where("status = ? AND method = ? AND created_at < ? AND is_deleted = false",
			courseModels.PaymentPending, courseModels.MethodGateway, cutoff).
		Update("status", courseModels.PaymentCancel)
	if res.Error != nil {
		log.Printf("[PAYMENT-SCHEDULER] Error expiring stale payments: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("[PAYMENT-SCHEDULER] Cancelled %d stale pending payments", res.RowsAffected)
	}
}
