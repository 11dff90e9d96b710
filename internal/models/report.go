package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportType represents the kind of generated report.
type ReportType string

const (
	ReportDaily    ReportType = "daily"
	ReportWeekly   ReportType = "weekly"
	ReportResearch ReportType = "research"
)

// Report is the immutable artifact produced by one pipeline run.
// Persistence is keyed by (type, date) with idempotent overwrite.
type Report struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Date  string     `bson:"date" json:"date"`
	Type  ReportType `bson:"type" json:"type"`
	Title string     `bson:"title" json:"title"`

	Markdown   string      `bson:"markdown" json:"markdown"`
	Regime     RegimeLabel `bson:"regime" json:"regime"`
	Confidence float64     `bson:"confidence" json:"confidence"`
	Sources    []string    `bson:"sources" json:"sources"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
