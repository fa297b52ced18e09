package models

import "github.com/google/uuid"

// Document is the part of a stored CV this service reads: who owns it and where the file lives.
// The table is owned and migrated by the upload service.
type Document struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:text"`
	FilePath string    `gorm:"type:text"`
}

func (Document) TableName() string {
	return "cv_documents"
}
