package batch

import (
	courseModels "lms/models/course"
	"lms/utils"

	"gorm.io/gorm"
)

// UpdateStatus moves a batch along its lifecycle. Transitions are restricted
// to the forward chain DRAFT -> UPCOMING -> RUNNING -> COMPLETED; reapplying
// the current status is a no-op.
func UpdateStatus(db *gorm.DB, batchID uint, newStatus string) (*courseModels.Batch, error) {
	var b courseModels.Batch
	if err := db.Where("id = ? AND is_deleted = false", batchID).First(&b).Error; err != nil {
		return nil, utils.NotFoundError("Batch not found!")
	}

	if b.Status == newStatus {
		return &b, nil
	}
	if !courseModels.ValidBatchTransition(b.Status, newStatus) {
		return nil, utils.ConflictError("Batch cannot move to this status from its current state!")
	}

	if err := db.Model(&b).Update("status", newStatus).Error; err != nil {
		return nil, err
	}
	b.Status = newStatus
	return &b, nil
}
