package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/survey-portal/model"
	"github.com/mbolis/survey-portal/survey"
)

// Store persists surveys, questions, answers and operator credentials.
type Store struct {
	db      *sql.DB
	dialect string
}

func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) q(query string) string {
	return rebind(s.dialect, query)
}

type scanner interface {
	Scan(dest ...any) error
}

const surveyColumns = `s.id, s.version, s.slug, s.title, s.description, s.start_at, s.end_at, s.created_at`

func scanSurvey(row scanner, extra ...any) (sv model.Survey, err error) {
	var start, end sql.NullTime
	dest := append([]any{
		&sv.ID, &sv.Version, &sv.Slug, &sv.Title, &sv.Description, &start, &end, &sv.CreatedAt,
	}, extra...)
	if err = row.Scan(dest...); err != nil {
		return
	}
	sv.StartAt = timePtr(start)
	sv.EndAt = timePtr(end)
	return
}

func (s *Store) ListSurveys(ctx context.Context) ([]model.SurveyListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+surveyColumns+`,
			(SELECT COUNT(*) FROM survey_question q WHERE q.survey_id = s.id),
			(SELECT COUNT(*) FROM survey_answer a WHERE a.survey_id = s.id)
		FROM survey s
		ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db.list_surveys: %w", err)
	}
	defer rows.Close()

	surveys := []model.SurveyListing{}
	for rows.Next() {
		var l model.SurveyListing
		l.Survey, err = scanSurvey(rows, &l.QuestionCount, &l.ResponseCount)
		if err != nil {
			return nil, fmt.Errorf("db.list_surveys.scan: %w", err)
		}
		surveys = append(surveys, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_surveys: %w", err)
	}
	return surveys, nil
}

// GetSurvey returns the survey with its questions.
func (s *Store) GetSurvey(ctx context.Context, id int) (model.Survey, error) {
	return s.getSurvey(ctx, "s.id = ?", id)
}

func (s *Store) GetSurveyBySlug(ctx context.Context, slug string) (model.Survey, error) {
	return s.getSurvey(ctx, "s.slug = ?", slug)
}

func (s *Store) getSurvey(ctx context.Context, where string, arg any) (model.Survey, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+surveyColumns+`
		FROM survey s
		WHERE `+where),
		arg,
	)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Survey{}, survey.ErrNotFound
	}
	if err != nil {
		return model.Survey{}, fmt.Errorf("db.get_survey: %w", err)
	}

	sv.Questions, err = s.ListQuestions(ctx, sv.ID)
	if err != nil {
		return model.Survey{}, err
	}
	return sv, nil
}

func (s *Store) InsertSurvey(ctx context.Context, sv model.Survey) (model.Survey, error) {
	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO survey (slug, title, description, start_at, end_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, version`),
		sv.Slug,
		sv.Title,
		sv.Description,
		nullTime(sv.StartAt),
		nullTime(sv.EndAt),
		sv.CreatedAt,
	).Scan(&sv.ID, &sv.Version)
	if err != nil {
		return model.Survey{}, fmt.Errorf("db.insert_survey: %w", err)
	}
	sv.Questions = []model.Question{}
	return sv, nil
}

// UpdateSurvey applies the change only if sv.Version is still current.
func (s *Store) UpdateSurvey(ctx context.Context, sv model.Survey) (model.Survey, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE survey
		SET
			title = ?,
			description = ?,
			start_at = ?,
			end_at = ?,
			version = version+1
		WHERE id = ?
			AND version = ?`),
		sv.Title,
		sv.Description,
		nullTime(sv.StartAt),
		nullTime(sv.EndAt),
		sv.ID,
		sv.Version,
	)
	if err != nil {
		return model.Survey{}, fmt.Errorf("db.update_survey: %w", err)
	}
	// optimistic lock
	n, err := res.RowsAffected()
	if err != nil {
		return model.Survey{}, fmt.Errorf("db.update_survey.verify: %w", err)
	}
	if n < 1 {
		if _, err := s.GetSurvey(ctx, sv.ID); err != nil {
			return model.Survey{}, err
		}
		return model.Survey{}, survey.ErrConflict
	}
	return s.GetSurvey(ctx, sv.ID)
}

// DeleteSurvey removes the survey; questions and answers go with it.
func (s *Store) DeleteSurvey(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM survey WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db.delete_survey: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db.delete_survey.verify: %w", err)
	}
	if n < 1 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, surveyID int) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, survey_id, question_text, type, options, chart_type
		FROM survey_question
		WHERE survey_id = ?
		ORDER BY id`),
		surveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("db.list_questions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		var opts, chart sql.NullString
		err = rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Type, &opts, &chart)
		if err != nil {
			return nil, fmt.Errorf("db.list_questions.scan: %w", err)
		}
		if opts.Valid && opts.String != "" {
			if err = json.Unmarshal([]byte(opts.String), &q.Options); err != nil {
				return nil, fmt.Errorf("db.list_questions.parse_options: question %d: %w", q.ID, err)
			}
		}
		q.ChartHint = chart.String
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_questions: %w", err)
	}
	return questions, nil
}

func (s *Store) InsertQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	var opts sql.NullString
	if q.Options != nil {
		b, err := json.Marshal(q.Options)
		if err != nil {
			return model.Question{}, fmt.Errorf("db.insert_question.options: %w", err)
		}
		opts = sql.NullString{String: string(b), Valid: true}
	}

	err := s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO survey_question (survey_id, question_text, type, options, chart_type)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		q.SurveyID,
		q.Text,
		string(q.Type),
		opts,
		sql.NullString{String: q.ChartHint, Valid: q.ChartHint != ""},
	).Scan(&q.ID)
	if err != nil {
		return model.Question{}, fmt.Errorf("db.insert_question: %w", err)
	}
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int) (surveyID int, err error) {
	err = s.db.QueryRowContext(ctx, s.q(`
		DELETE FROM survey_question
		WHERE id = ?
		RETURNING survey_id`),
		id,
	).Scan(&surveyID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, survey.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("db.delete_question: %w", err)
	}
	return surveyID, nil
}

func (s *Store) HasResponse(ctx context.Context, surveyID int, respondent string) (exists bool, err error) {
	err = s.db.QueryRowContext(ctx, s.q(`
		SELECT EXISTS (
			SELECT 1 FROM survey_answer
			WHERE survey_id = ?
				AND ip_address = ?
		)`),
		surveyID,
		respondent,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db.has_response: %w", err)
	}
	return exists, nil
}

// InsertResponse relies on the (survey_id, ip_address) unique constraint:
// whichever concurrent insert loses gets survey.ErrAlreadySubmitted.
func (s *Store) InsertResponse(ctx context.Context, r model.Response) (model.Response, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return model.Response{}, fmt.Errorf("db.insert_response.answers: %w", err)
	}

	err = s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO survey_answer (survey_id, answers, ip_address, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		r.SurveyID,
		string(answers),
		r.Respondent,
		r.CreatedAt,
	).Scan(&r.ID)
	if isUniqueViolation(err) {
		return model.Response{}, survey.ErrAlreadySubmitted
	}
	if err != nil {
		return model.Response{}, fmt.Errorf("db.insert_response: %w", err)
	}
	return r, nil
}

// ListResponses returns the survey responses in submission order.
func (s *Store) ListResponses(ctx context.Context, surveyID int) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, survey_id, answers, ip_address, created_at
		FROM survey_answer
		WHERE survey_id = ?
		ORDER BY id`),
		surveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("db.list_responses: %w", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var r model.Response
		var answers string
		err = rows.Scan(&r.ID, &r.SurveyID, &answers, &r.Respondent, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db.list_responses.scan: %w", err)
		}
		if err = json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("db.list_responses.parse_answers: response %d: %w", r.ID, err)
		}
		responses = append(responses, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db.list_responses: %w", err)
	}
	return responses, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
