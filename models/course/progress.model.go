package course

import (
	"time"

	"gorm.io/gorm"
)

// ModuleProgressStatus enum values
const (
	ModuleLocked     = "LOCKED"
	ModuleUnlocked   = "UNLOCKED"
	ModuleInProgress = "IN_PROGRESS"
	ModuleCompleted  = "COMPLETED"
)

// ModuleProgress tracks a learner's completion state for one module.
// Modules unlock strictly in order; a module is never re-locked.
type ModuleProgress struct {
	gorm.Model
	EnrollmentID      uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_module"`
	ModuleID          uint       `json:"module_id" gorm:"not null;uniqueIndex:idx_enrollment_module"`
	Status            string     `json:"status" gorm:"type:varchar(20);default:'LOCKED'"`
	CompletionPercent int        `json:"completion_percent" gorm:"default:0"` // 0-100
	UnlockedAt        *time.Time `json:"unlocked_at"`
	StartedAt         *time.Time `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	IsDeleted         bool       `gorm:"default:false"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}

// LessonProgressStatus enum values
const (
	LessonNotStarted = "NOT_STARTED"
	LessonInProgress = "IN_PROGRESS"
	LessonCompleted  = "COMPLETED"
)

// LessonProgress tracks watch time and completion for one lesson.
// WatchSeconds is monotonic; updates never decrease it.
type LessonProgress struct {
	gorm.Model
	EnrollmentID uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	ModuleID     uint       `json:"module_id" gorm:"index;not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);default:'NOT_STARTED'"`
	WatchSeconds int        `json:"watch_seconds" gorm:"default:0"`
	LastPosition int        `json:"last_position" gorm:"default:0"`
	CompletedAt  *time.Time `json:"completed_at"`
	IsDeleted    bool       `gorm:"default:false"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
