package domain

import "github.com/shopspring/decimal"

// Section is a thematic grouping of checklist questions (e.g. "Food Safety").
// Static reference data, ordered by DisplayOrder.
type Section struct {
	ID           string `json:"id"            db:"id"`
	Name         string `json:"name"          db:"name"`
	Description  string `json:"description"   db:"description"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
}

// Question belongs to exactly one Section. PossiblePoints is the ceiling for
// any response score; IsCritical questions force the audit grade to F when
// answered with zero.
type Question struct {
	ID                       string          `json:"id"                         db:"id"`
	SectionID                string          `json:"section_id"                 db:"section_id"`
	Text                     string          `json:"text"                       db:"question_text"`
	PossiblePoints           decimal.Decimal `json:"possible_points"            db:"possible_points"`
	IsCritical               bool            `json:"is_critical"                db:"is_critical"`
	CriticalFailureCondition string          `json:"critical_failure_condition" db:"critical_failure_condition"`
	DisplayOrder             int             `json:"display_order"              db:"display_order"`
}
