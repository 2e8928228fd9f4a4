package course

import "gorm.io/gorm"

// CourseStatus enum values
const (
	CourseDraft    = "DRAFT"
	CourseActive   = "ACTIVE"
	CourseArchived = "ARCHIVED"
)

// Course represents a course in the catalog
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code" gorm:"type:varchar(10);not null"` // Prefix for enrollment numbers (e.g. MA)
	Status      string `json:"status" gorm:"type:varchar(20);default:'DRAFT'"`
	IsDeleted   bool   `gorm:"default:false"`
}

// Module represents a section/module within a course
type Module struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // Module order in course
	IsDeleted   bool   `gorm:"default:false"`
}

// LessonType enum values
const (
	LessonVideo = "VIDEO"
	LessonText  = "TEXT"
)

// Lesson represents a single piece of content within a module
type Lesson struct {
	gorm.Model
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	ModuleID        uint   `json:"module_id" gorm:"index;not null"`
	Title           string `json:"title"`
	ContentType     string `json:"content_type" gorm:"type:varchar(20);default:'VIDEO'"`
	VideoURL        string `json:"video_url"`
	TextContent     string `json:"text_content" gorm:"type:text"`
	DurationSeconds int    `json:"duration_seconds" gorm:"default:0"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"` // Lesson order within module
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	IsDeleted       bool   `gorm:"default:false"`
}
