package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/ai"
	"github.com/spigell/job-tailor/internal/generation"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
	"github.com/spigell/job-tailor/internal/orchestrator"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var scoreCmd = &cobra.Command{
	Use:   "score [job-id...]",
	Short: "Score saved jobs against the criteria file",
	Run: func(cmd *cobra.Command, args []string) {
		score(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolP("all", "a", false, "score every saved job")
	scoreCmd.Flags().BoolP("rescore", "r", false, "score jobs again even if they already have a score")
	scoreCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before generating documents")
	scoreCmd.Flags().Bool("no-generate", false, "never generate documents, only score")
	scoreCmd.Flags().Int("threshold", 0, "overall score (0-100) that starts document generation")

	viper.BindPFlag("scoring.generate-threshold", scoreCmd.Flags().Lookup("threshold"))
}

// score is the main command for the cli.
func score(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-tailor", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		logger.Fatal("nothing to score", zap.String("hint", "pass job ids or use --all"))
	}

	provider, err := newAIProvider(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating ai provider", zap.Error(err))
	}

	store := jobs.NewStore(config.DataDir)

	deps := orchestrator.Deps{
		Jobs:      store,
		Scores:    jobs.NewScoreStore(store),
		Generator: provider,
		Logger:    logger,
	}

	trigger, cleanup, err := prepareTrigger(ctx, cmd, config, provider, store, logger)
	if err != nil {
		logger.Fatal("preparing document generation", zap.Error(err))
	}
	defer cleanup()
	if trigger != nil {
		deps.Trigger = trigger
	}

	threshold := 80
	if config.Scoring != nil {
		threshold = config.Scoring.GenerateThreshold
	}

	o, err := orchestrator.Load(config.CriteriaFile, threshold, deps)
	if err != nil {
		logger.Fatal("loading criteria", zap.Error(err), zap.String("criteria_file", config.CriteriaFile))
	}

	if all {
		rescore, _ := cmd.Flags().GetBool("rescore")
		summary, err := o.ScoreAll(ctx, rescore)
		if err != nil {
			logger.Fatal("scoring saved jobs", zap.Error(err))
		}
		for _, s := range summary.Scores {
			report(logger, s)
		}
		return
	}

	for _, id := range args {
		s, err := o.Score(ctx, id)
		if err != nil {
			logger.Fatal("scoring job", zap.Error(err))
		}
		report(logger, s)
	}
}

func report(logger *zap.Logger, s *jobs.Score) {
	logger.Info("score",
		zap.String("job_id", s.JobID),
		zap.Int("overall", s.OverallScore),
		zap.Any("breakdown", s.Breakdown),
		zap.String("rationale", s.Rationale),
	)
}

// prepareTrigger returns nil when there is nothing to generate.
func prepareTrigger(ctx context.Context, cmd *cobra.Command, config *Config, provider ai.Generator, store *jobs.Store, logger *zap.Logger) (orchestrator.Trigger, func(), error) {
	noop := func() {}

	if skip, _ := cmd.Flags().GetBool("no-generate"); skip {
		return nil, noop, nil
	}

	sources := sourcePaths(config.Sources)
	if !hasSources(sources) {
		logger.Debug("document generation disabled", zap.String("reason", "no sources configured"))
		return nil, noop, nil
	}

	c, cleanup, err := newCache(ctx, config, logger)
	if err != nil {
		return nil, noop, err
	}

	generator := generation.New(c, provider, generation.FileSources{}, logger)
	trigger := generation.NewTrigger(generator, sources, store, logger)

	approved, _ := cmd.Flags().GetBool("auto-approve")
	if approved || (config.Scoring != nil && config.Scoring.AutoGenerate) {
		return trigger, cleanup, nil
	}

	return &confirmingTrigger{next: trigger, logger: logger}, cleanup, nil
}

// confirmingTrigger asks before generating documents for a job.
type confirmingTrigger struct {
	next   orchestrator.Trigger
	logger *zap.Logger
}

func (c *confirmingTrigger) Trigger(ctx context.Context, job *jobs.Listing, s *jobs.Score) error {
	prompt := promptui.Select{
		Label: fmt.Sprintf("%s at %s scored %d. Generate documents?", job.Title, job.Company, s.OverallScore),
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return err
	}

	if action != PromptYes {
		c.logger.Info("skipping document generation", zap.String("job_id", job.ID), zap.String("reason", "got no from prompt"))
		return nil
	}

	return c.next.Trigger(ctx, job, s)
}
