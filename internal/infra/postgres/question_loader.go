package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"sat-quiz-runner/internal/domain"
)

// QuestionLoader reads the question bank from Postgres. Rows are ordered by
// their bank position so presentation order matches the CSV the table was
// seeded from.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) Load(ctx context.Context, quizName string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT question_id, quiz_name, question_text, image_url,
		       option_a, option_b, option_c, option_d, correct_answer
		FROM question_bank
		WHERE quiz_name = $1
		ORDER BY position`, quizName)
	if err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var imageURL, optA, optB, optC, optD *string
		if err := rows.Scan(&q.ID, &q.QuizName, &q.Prompt, &imageURL, &optA, &optB, &optC, &optD, &q.CorrectAnswer); err != nil {
			return nil, &domain.SourceError{Err: err}
		}
		if imageURL != nil {
			q.ImageURL = *imageURL
		}
		for _, opt := range []*string{optA, optB, optC, optD} {
			if opt != nil && *opt != "" {
				q.Options = append(q.Options, *opt)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return questions, nil
}
