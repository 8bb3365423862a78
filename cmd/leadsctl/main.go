// leadsctl is an operator CLI for the lead qualification service. It talks
// to the same database as the server, so seeding and batch qualification can
// run without the HTTP surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/chetansirohi/Leads-Agent/internal/config"
	"github.com/chetansirohi/Leads-Agent/internal/engine"
	"github.com/chetansirohi/Leads-Agent/internal/logging"
	"github.com/chetansirohi/Leads-Agent/internal/repository"
	"github.com/chetansirohi/Leads-Agent/internal/services"
	"github.com/chetansirohi/Leads-Agent/pkg/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliEnv struct {
	cfg    *config.Config
	logger *logging.Logger
	pool   *pgxpool.Pool
	store  *repository.PostgresStore
	engine *engine.Engine
}

func newRootCmd() *cobra.Command {
	var env cliEnv

	root := &cobra.Command{
		Use:           "leadsctl",
		Short:         "Operate the lead qualification service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.pool != nil {
				env.pool.Close()
			}
		},
	}

	root.AddCommand(newSeedCmd(&env))
	root.AddCommand(newQualifyCmd(&env))
	root.AddCommand(newResumeCmd(&env))
	root.AddCommand(newStatusCmd(&env))
	return root
}

func (env *cliEnv) init(ctx context.Context) error {
	env.logger = logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env.cfg = cfg

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	env.pool = pool

	env.store = repository.NewPostgresStore(pool)
	if err := env.store.EnsureSchema(ctx); err != nil {
		return err
	}

	fallback := services.NewRuleScorer()
	var primary, secondary services.Scorer
	if cfg.Scoring.PrimaryURL != "" {
		timeout := time.Duration(cfg.Scoring.TimeoutSeconds) * time.Second
		primary = services.NewHTTPScoringClient(cfg.Scoring.PrimaryURL, "primary", timeout)
		if cfg.Scoring.SecondaryURL != "" {
			secondary = services.NewHTTPScoringClient(cfg.Scoring.SecondaryURL, "secondary", timeout)
		}
	}
	scorer := services.NewTieredScorer(primary, secondary, fallback, services.TieredScorerOptions{
		MaxAttempts:   cfg.Scoring.MaxAttempts,
		BackoffBase:   time.Duration(cfg.Scoring.BackoffSeconds) * time.Second,
		RatePerSecond: cfg.Scoring.RatePerSecond,
		RateBurst:     cfg.Scoring.RateBurst,
	}, env.logger)

	env.engine = engine.New(env.store, scorer, engine.Config{
		AssignThreshold:  cfg.Routing.AssignThreshold,
		ReviewThreshold:  cfg.Routing.ReviewThreshold,
		ConfidenceMargin: cfg.Matcher.ConfidenceMargin,
	}, env.logger)
	return nil
}

func newSeedCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo reps and leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reps := []*models.SalesRep{
				{ID: "rep-001", Name: "Sarah Chen", Expertise: []string{"technology", "saas"}, MaxCapacity: 8, PerformanceScore: 4.6},
				{ID: "rep-002", Name: "Marcus Webb", Expertise: []string{"finance", "healthcare"}, MaxCapacity: 6, PerformanceScore: 4.2},
				{ID: "rep-003", Name: "Priya Nair", Expertise: []string{"technology", "manufacturing"}, MaxCapacity: 10, PerformanceScore: 3.9},
			}
			for _, rep := range reps {
				if err := env.store.CreateRep(ctx, rep); err != nil {
					env.logger.Warn("skipping rep %s: %v", rep.ID, err)
					continue
				}
				env.logger.Info("created rep %s (%s)", rep.ID, rep.Name)
			}

			contact := "Dana Ortiz"
			email := "dana@acmecloud.example"
			leads := []*models.LeadProfile{
				{ID: "lead-001", Company: "AcmeCloud", ContactName: &contact, Email: &email, Industry: "technology", Budget: 500_000, CompanySize: 1200},
				{ID: "lead-002", Company: "Brightline Health", Industry: "healthcare", Budget: 80_000, CompanySize: 300},
				{ID: "lead-003", Company: "Corner Bakery", Industry: "food service", Budget: 5_000, CompanySize: 12},
			}
			for _, lead := range leads {
				if err := env.store.CreateLead(ctx, lead); err != nil {
					env.logger.Warn("skipping lead %s: %v", lead.ID, err)
					continue
				}
				env.logger.Info("created lead %s (%s)", lead.ID, lead.Company)
			}
			return nil
		},
	}
}

func newQualifyCmd(env *cliEnv) *cobra.Command {
	var all bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "qualify [lead-id...]",
		Short: "Run the qualification workflow for one or more leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			leadIDs := args
			if all {
				leads, err := env.store.ListLeads(ctx)
				if err != nil {
					return err
				}
				for _, lead := range leads {
					if lead.Status == models.LeadStatusNew {
						leadIDs = append(leadIDs, lead.ID)
					}
				}
			}
			if len(leadIDs) == 0 {
				return fmt.Errorf("no leads to qualify; pass lead IDs or --all")
			}

			if concurrency <= 0 {
				concurrency = env.cfg.Engine.BatchConcurrency
			}
			results := env.engine.Batch(ctx, leadIDs, concurrency)
			for _, res := range results {
				if res.Err != nil {
					env.logger.Error("lead %s: %v", res.LeadID, res.Err)
					continue
				}
				printState(res.State)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "qualify every lead still in status 'new'")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent workflow runs (default from config)")
	return cmd
}

func newResumeCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <thread-id> <approve|reject>",
		Short: "Resume an interrupted workflow with a decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := env.engine.Resume(cmd.Context(), args[0], models.Decision(args[1]))
			if err != nil {
				return err
			}
			printState(state)
			return nil
		},
	}
}

func newStatusCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "status <thread-id>",
		Short: "Show the checkpointed state of a workflow thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := env.engine.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printState(state)
			return nil
		},
	}
}

func printState(state *models.WorkflowState) {
	score := "-"
	if state.Score != nil {
		score = fmt.Sprintf("%.1f", *state.Score)
	}
	rep := "-"
	if state.AssignedRepID != nil {
		rep = *state.AssignedRepID
	}
	log.Printf("thread=%s lead=%s node=%s status=%s score=%s rep=%s",
		state.ThreadID, state.LeadID, state.CurrentNode, state.Status, score, rep)
}
