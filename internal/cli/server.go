package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sat-quiz-runner/internal/app"
	"sat-quiz-runner/internal/config"
	"sat-quiz-runner/internal/domain"
	"sat-quiz-runner/internal/infra/csvsource"
	"sat-quiz-runner/internal/infra/memory"
	pgloader "sat-quiz-runner/internal/infra/postgres"
	redisinfra "sat-quiz-runner/internal/infra/redis"
	"sat-quiz-runner/internal/infra/webhook"
	transport "sat-quiz-runner/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz runner server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source memory.QuestionSource
	switch {
	case pool != nil:
		source = pgloader.NewQuestionLoader(pool)
	case cfg.Questions.CSVURL != "":
		source = csvsource.NewHTTPSource(cfg.Questions.CSVURL, nil)
	case cfg.Questions.CSVPath != "":
		source = csvsource.NewFileSource(cfg.Questions.CSVPath)
	default:
		source = memory.NewStaticQuestionSource(sampleQuestionBank())
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, source, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(source, questionTTL)
	}

	var identity app.IdentityStore
	if redisClient != nil {
		identity = redisinfra.NewIdentityStore(redisClient)
	} else {
		identity = memory.NewIdentityStore()
	}

	var dispatcher app.SubmissionDispatcher = webhook.LogDispatcher{}
	if cfg.Submission.Endpoint != "" {
		dispatcher = webhook.NewDispatcher(cfg.Submission.Endpoint, nil)
	}

	runner := app.NewQuizRunner(memory.NewSessionStore(), questions, identity, dispatcher, app.Options{
		SecondsPerQuestion: cfg.SecondsPerQuestion(),
		FallbackQuiz:       cfg.Quiz.FallbackName,
		OptimisticSubmit:   cfg.OptimisticSubmit(),
		DispatchTimeout:    config.TTLDuration(cfg.Submission.Timeout, 15*time.Second),
	})
	wsHandler := transport.NewWSHandler(runner)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz runner on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionBank provides a minimal bank for local runs without any
// configured source; swap in the CSV or Postgres source in production.
func sampleQuestionBank() map[string][]domain.Question {
	return map[string][]domain.Question{
		"EOC-M-C1-AlgebraBasics": {
			{
				ID:            "EOC-M-C1-AlgebraBasics-Q1",
				QuizName:      "EOC-M-C1-AlgebraBasics",
				Prompt:        "If 5x - 7 = 28, what is the value of x?",
				Options:       []string{"5", "7", "9", "35"},
				CorrectAnswer: "7",
			},
			{
				ID:            "EOC-M-C1-AlgebraBasics-Q2",
				QuizName:      "EOC-M-C1-AlgebraBasics",
				Prompt:        "Which of the following numbers is a solution to the inequality 3(y - 2) < 15?",
				Options:       []string{"-2", "7", "8", "10"},
				CorrectAnswer: "-2",
			},
		},
	}
}
