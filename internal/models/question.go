package models

// QuestionType enumerates the supported question kinds. The set is closed:
// answer coercion switches over it exhaustively and rejects unknown values
// instead of defaulting to text.
type QuestionType string

// Possible question types.
const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionDropdown     QuestionType = "dropdown"
	QuestionCheckbox     QuestionType = "checkbox"
	QuestionYesNo        QuestionType = "yes_no"
	QuestionRating       QuestionType = "rating"
	QuestionLikert       QuestionType = "likert"
	QuestionOpenText     QuestionType = "open_text"
)

// Valid reports whether the question type is a known variant.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionDropdown, QuestionCheckbox,
		QuestionYesNo, QuestionRating, QuestionLikert, QuestionOpenText:
		return true
	}
	return false
}

// Question is a single prompt within a survey.
type Question struct {
	ID       string           `db:"id" json:"id"`
	SurveyID string           `db:"survey_id" json:"survey_id"`
	Label    string           `db:"label" json:"label"`
	Type     QuestionType     `db:"question_type" json:"type"`
	Required bool             `db:"required" json:"required"`
	Position int              `db:"position" json:"position"`
	Options  []QuestionOption `json:"options"`
}

// QuestionOption is a selectable choice for choice-style questions.
type QuestionOption struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"question_id"`
	Label      string `db:"label" json:"label"`
	Position   int    `db:"position" json:"position"`
}
