package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// QuestionRepository reads the question set of a survey.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// ListBySurvey returns all questions of a survey with their options, ordered
// by position. Questions and options come from two queries, not one per
// question.
func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	const questionQuery = `SELECT id, survey_id, label, question_type, required, position
        FROM questions WHERE survey_id = $1 ORDER BY position ASC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, questionQuery, surveyID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return questions, nil
	}

	const optionQuery = `SELECT o.id, o.question_id, o.label, o.position
        FROM question_options o
        JOIN questions q ON q.id = o.question_id
        WHERE q.survey_id = $1 ORDER BY o.position ASC`
	var options []models.QuestionOption
	if err := r.db.SelectContext(ctx, &options, optionQuery, surveyID); err != nil {
		return nil, fmt.Errorf("list question options: %w", err)
	}

	byQuestion := make(map[string][]models.QuestionOption, len(questions))
	for _, opt := range options {
		byQuestion[opt.QuestionID] = append(byQuestion[opt.QuestionID], opt)
	}
	for i := range questions {
		questions[i].Options = byQuestion[questions[i].ID]
	}
	return questions, nil
}
