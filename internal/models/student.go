package models

import "time"

// Student represents a learner that can enroll in subjects and submit work.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	StudentNumber string    `gorm:"size:32" json:"student_number"`
	Section       string    `gorm:"size:32" json:"section"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Enrollment links a student to a subject. One row per pair.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"student_id"`
	SubjectID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair" json:"subject_id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Subject    Subject   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject"`
}
