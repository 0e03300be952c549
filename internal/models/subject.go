package models

import "time"

// Subject is a course offering taught to one section.
type Subject struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:32;not null;index" json:"code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Section      string    `gorm:"size:32" json:"section"`
	Day          string    `gorm:"size:16" json:"day"`
	TimeSchedule string    `gorm:"size:64" json:"time_schedule"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Sessions     []Session `json:"sessions,omitempty"`
}

// Session is one class meeting within a subject.
type Session struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SubjectID     uint       `gorm:"not null;index" json:"subject_id"`
	SessionNumber int        `gorm:"not null" json:"session_number"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Subject       Subject    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject"`
	Activities    []Activity `json:"activities,omitempty"`
}
