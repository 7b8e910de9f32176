// Package csvsource loads the question bank from its canonical form: one
// CSV with a header row and one row per question across every quiz. The
// whole bank is read and then filtered by exact quiz name, so bank order
// is presentation order.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"sat-quiz-runner/internal/domain"
)

// Columns the core consumes. Extra columns (subject, domain, skill_tag,
// difficulty, explanation_original, ...) are ignored.
var requiredColumns = []string{"question_id", "quiz_name", "question_text", "correct_answer"}

var optionColumns = []string{"option_a", "option_b", "option_c", "option_d"}

// HTTPSource downloads the bank CSV from a fixed URL (typically a raw
// GitHub link) on every load.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Load(ctx context.Context, quizName string) ([]domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.SourceError{Err: fmt.Errorf("fetch question bank: status %d", resp.StatusCode)}
	}
	return load(resp.Body, quizName)
}

// FileSource reads the bank CSV from local disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Load(_ context.Context, quizName string) ([]domain.Question, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	defer f.Close()
	return load(f, quizName)
}

func load(r io.Reader, quizName string) ([]domain.Question, error) {
	bank, err := Parse(r)
	if err != nil {
		return nil, &domain.SourceError{Err: err}
	}
	questions := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		// Exact, case-sensitive match; no reordering, no deduplication.
		if q.QuizName == quizName {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return questions, nil
}

// Parse reads the full question bank from CSV. The header row maps columns
// by name; rows may carry any number of extra columns. Blank option cells
// shorten the option list (2-4 options per question).
func Parse(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("question bank missing column %q", name)
		}
	}

	var questions []domain.Question
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		q := domain.Question{
			ID:            cell("question_id"),
			QuizName:      cell("quiz_name"),
			Prompt:        cell("question_text"),
			ImageURL:      cell("image_url"),
			CorrectAnswer: cell("correct_answer"),
		}
		if q.ID == "" {
			continue // blank/trailing row
		}
		for _, name := range optionColumns {
			if text := cell(name); text != "" {
				q.Options = append(q.Options, text)
			}
		}
		questions = append(questions, q)
	}
	return questions, nil
}
