package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage    string     `gorm:"default:''"`
	Name            string     `gorm:"default:''"`
	Email           string     `gorm:"unique;not null"`
	Mobile          string     `gorm:"default:''"`
	Role            string     `gorm:"default:'USER'"` // USER, ADMIN
	Password        string     `gorm:"not null"`
	IsEmailVerified bool       `gorm:"default:false"`
	LastLogin       *time.Time `json:"last_login"`
	IsDeleted       bool       `gorm:"default:false"`
}

// StudentProfile aggregates a learner's lifetime enrollment stats. Upserted
// best-effort after each activation; never part of the activation transaction.
type StudentProfile struct {
	gorm.Model
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalEnrollments int        `gorm:"default:0" json:"total_enrollments"`
	LastEnrolledAt   *time.Time `json:"last_enrolled_at"`
	IsDeleted        bool       `gorm:"default:false"`
}
