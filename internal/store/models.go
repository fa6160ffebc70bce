// Package store provides typed, idempotent operations against the
// relational store, and transactional per-paper ingestion.
package store

// Paper is one harvested paper. URL is globally unique; Body may be
// empty when PDF extraction fails, but the row is still created.
type Paper struct {
	ID          uint   `gorm:"primaryKey"`
	URL         string `gorm:"uniqueIndex;not null"`
	Title       string
	Description string
	Body        string

	Authors  []Author  `gorm:"many2many:paper_author;"`
	Subjects []Subject `gorm:"many2many:paper_subject;"`
}

// Author's Name is globally unique.
type Author struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// Subject's Name is globally unique.
type Subject struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// NewPaper is the input to InsertPaper/IngestPaperTx.
type NewPaper struct {
	URL         string
	Title       string
	Description string
	Body        string
}
