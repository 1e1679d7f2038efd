package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/1KHA/daralhikmajudge/internal/app"
	"github.com/1KHA/daralhikmajudge/internal/config"
	"github.com/1KHA/daralhikmajudge/internal/domain"
	"github.com/1KHA/daralhikmajudge/internal/infra/memory"
	infrapg "github.com/1KHA/daralhikmajudge/internal/infra/postgres"
	infraredis "github.com/1KHA/daralhikmajudge/internal/infra/redis"
	transport "github.com/1KHA/daralhikmajudge/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the judging server",
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

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 24*time.Hour)

	var sessionStore app.SessionStore
	var answerStore app.AnswerStore
	var resultStore app.ResultStore
	var judgeStore app.JudgeStore
	var teamRepo app.TeamRepository
	var bankLoader memory.BankLoader

	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}

		sessionStore = infrapg.NewSessionStore(db)
		answerStore = infrapg.NewAnswerStore(db)
		resultStore = infrapg.NewResultStore(db)
		judgeStore = infrapg.NewJudgeStore(db)
		teamRepo = infrapg.NewTeamRepository(db)
		bankLoader = infrapg.NewBankLoader(pool)
	} else {
		sessionStore = memory.NewSessionStore()
		answerStore = memory.NewAnswerStore()
		resultStore = memory.NewResultStore()
		judgeStore = memory.NewJudgeStore()
		teamRepo = memory.NewTeamRepository()
		bankLoader = memory.NewStaticBankLoader(sampleBanks())
	}

	bankTTL := config.Duration(cfg.Banks.TTL, 10*time.Minute)
	var bankRepo app.BankRepository
	if redisClient != nil {
		bankRepo = infraredis.NewBankRepository(redisClient, bankLoader, bankTTL)
	} else {
		bankRepo = memory.NewBankRepository(bankLoader, bankTTL)
	}

	var broadcaster app.Broadcaster
	var continuations transport.ContinuationStore
	if redisClient != nil {
		broadcaster = infraredis.NewBroadcaster(redisClient)
		continuations = infraredis.NewContinuationStore(redisClient, redisTTL)
	} else {
		broadcaster = memory.NewBroadcaster()
	}

	sessionService := app.NewSessionService(sessionStore, answerStore, resultStore, judgeStore, broadcaster)
	rosterService := app.NewRosterService(teamRepo, bankRepo)

	pollInterval := config.Duration(cfg.Judge.PollInterval, 3*time.Second)
	wsHandler := transport.NewWSHandler(sessionService, continuations, pollInterval)
	hostHandler := transport.NewHostHandler(sessionService, rosterService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	hostHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting judging service on :%s", finalPort)
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

// sampleBanks provides a minimal question bank for running without Postgres.
func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"bank-1": {
			ID:   "bank-1",
			Name: "Demo bank",
			Questions: []domain.Question{
				{
					ID:      "q1",
					Text:    "Clarity of presentation",
					Section: "Delivery",
					Weight:  10,
					Choices: []domain.Choice{
						{Text: "Needs work", Weight: 1},
						{Text: "Good", Weight: 2},
						{Text: "Excellent", Weight: 3},
					},
				},
				{
					ID:      "q2",
					Text:    "Did the team answer audience questions?",
					Section: "Delivery",
					Weight:  5,
					Choices: []domain.Choice{
						{Text: "Yes", Weight: 1},
						{Text: "No", Weight: 0},
					},
				},
			},
		},
	}
}
