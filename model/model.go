package model

import (
	"time"
)

type Survey struct {
	ID          int        `json:"id,omitempty"`
	Version     int        `json:"version,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Questions   []Question `json:"questions,omitempty"`
}

// SurveyListing is a survey as shown in the operator list, with row counts.
type SurveyListing struct {
	Survey
	QuestionCount int `json:"question_count"`
	ResponseCount int `json:"response_count"`
}

type QuestionType string

const (
	SingleChoice   QuestionType = "radio"
	MultiChoice    QuestionType = "multiselect"
	DropdownChoice QuestionType = "select"
	FreeText       QuestionType = "text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultiChoice, DropdownChoice, FreeText:
		return true
	}
	return false
}

// IsChoice reports whether answers must be picked from the question options.
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice || t == DropdownChoice
}

// ChartHints lists the accepted chart_type values.
var ChartHints = []string{"bar", "pie", "donut", "line", "area", "radar", "scatter"}

type Question struct {
	ID        int          `json:"id,omitempty"`
	SurveyID  int          `json:"survey_id,omitempty"`
	Text      string       `json:"question_text"`
	Type      QuestionType `json:"type"`
	Options   []string     `json:"options"`
	ChartHint string       `json:"chart_type,omitempty"`
}

// QuestionSpec is the operator input for a new question.
type QuestionSpec struct {
	Text      string       `json:"question_text"`
	Type      QuestionType `json:"type"`
	Options   []string     `json:"options"`
	ChartHint string       `json:"chart_type"`
}

type Response struct {
	ID         int       `json:"id"`
	SurveyID   int       `json:"survey_id"`
	Answers    AnswerSet `json:"answers"`
	Respondent string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

type Stats struct {
	SurveyID         int             `json:"survey_id"`
	Title            string          `json:"title"`
	TotalRespondents int             `json:"total_respondents"`
	Questions        []QuestionStats `json:"questions"`
}

type QuestionStats struct {
	ID        int               `json:"id"`
	Text      string            `json:"question_text"`
	Type      QuestionType      `json:"type"`
	ChartHint string            `json:"chart_type,omitempty"`
	Summary   map[string]int    `json:"summary,omitempty"`
	Colors    map[string]string `json:"colors,omitempty"`
	Answers   []string          `json:"answers,omitempty"`
}
