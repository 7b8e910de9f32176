package csvsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sat-quiz-runner/internal/domain"
)

const bankCSV = `question_id,quiz_name,subject,question_text,image_url,option_a,option_b,option_c,option_d,correct_answer
EOC-M-C1-AlgebraBasics-Q1,EOC-M-C1-AlgebraBasics,Math,If 5x - 7 = 28 what is the value of x?,,5,7,9,35,7
EOC-M-C1-AlgebraBasics-Q2,EOC-M-C1-AlgebraBasics,Math,Which number solves 3(y - 2) < 15?,,-2,7,8,10,-2
EOC-RW-C1-Vocab-Q1,EOC-RW-C1-Vocab,Reading,True or false?,https://example.com/fig1.png,True,False,,,True
`

func TestParseMapsColumnsAndTrimsOptions(t *testing.T) {
	questions, err := Parse(strings.NewReader(bankCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if questions[0].ID != "EOC-M-C1-AlgebraBasics-Q1" || questions[0].CorrectAnswer != "7" {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if len(questions[0].Options) != 4 {
		t.Fatalf("expected 4 options, got %v", questions[0].Options)
	}
	// Blank option_c/option_d cells shorten the list.
	if len(questions[2].Options) != 2 {
		t.Fatalf("expected 2 options for true/false, got %v", questions[2].Options)
	}
	if questions[2].ImageURL != "https://example.com/fig1.png" {
		t.Fatalf("expected image url preserved, got %q", questions[2].ImageURL)
	}
}

func TestParseRejectsMissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("question_id,quiz_name\nq1,quiz\n"))
	if err == nil {
		t.Fatalf("expected error for missing columns")
	}
}

func TestHTTPSourceFiltersExactQuizName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bankCSV))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, server.Client())
	questions, err := source.Load(context.Background(), "EOC-M-C1-AlgebraBasics")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 filtered questions, got %d", len(questions))
	}
	// Bank order is presentation order.
	if questions[0].ID != "EOC-M-C1-AlgebraBasics-Q1" || questions[1].ID != "EOC-M-C1-AlgebraBasics-Q2" {
		t.Fatalf("expected bank order preserved, got %v then %v", questions[0].ID, questions[1].ID)
	}

	_, err = source.Load(context.Background(), "eoc-m-c1-algebrabasics")
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("match must be case-sensitive, got %v", err)
	}
}

func TestHTTPSourceReportsUnavailableSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, server.Client())
	_, err := source.Load(context.Background(), "EOC-M-C1-AlgebraBasics")
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected SourceError, got %v", err)
	}
}
