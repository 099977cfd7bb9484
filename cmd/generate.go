package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/generation"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate <job-id>",
	Short: "Generate a tailored resume or cover letter for a saved job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		generate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("kind", "k", "all", "document kind: resume, cover-letter or all")
	generateCmd.Flags().Bool("regenerate", false, "ignore the cache and generate again")
	generateCmd.Flags().StringP("source", "s", "", "source document, overrides the sources section of the config")
	generateCmd.Flags().Bool("stdout", false, "print the document instead of saving it next to the job")
	generateCmd.Flags().StringToString("option", nil, "extra generation option, changes the cache fingerprint (key=value)")
}

func generate(cmd *cobra.Command, jobID string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	kinds, err := selectedKinds(cmd)
	if err != nil {
		logger.Fatal("parsing kind", zap.Error(err))
	}

	sources := sourcePaths(config.Sources)
	if source, _ := cmd.Flags().GetString("source"); strings.TrimSpace(source) != "" {
		if len(kinds) != 1 {
			logger.Fatal("--source needs a single --kind")
		}
		sources[kinds[0]] = source
	}

	store := jobs.NewStore(config.DataDir)
	job, err := store.Get(jobID)
	if err != nil {
		logger.Fatal("loading job", zap.Error(err))
	}

	provider, err := newAIProvider(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating ai provider", zap.Error(err))
	}

	c, cleanup, err := newCache(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating cache", zap.Error(err))
	}
	defer cleanup()

	regenerate, _ := cmd.Flags().GetBool("regenerate")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	options, _ := cmd.Flags().GetStringToString("option")

	generator := generation.New(c, provider, generation.FileSources{}, logger)

	for _, kind := range kinds {
		path := sources[kind]
		if path == "" {
			logger.Warn("skipping document", zap.String("kind", string(kind)), zap.String("reason", "no source configured"))
			continue
		}

		doc, err := generator.Generate(ctx, generation.Request{
			Kind:       kind,
			Job:        job,
			SourcePath: path,
			Options:    stringOptions(options),
			Regenerate: regenerate,
		})
		if err != nil {
			logger.Fatal("generating document", zap.Error(err))
		}

		if toStdout {
			fmt.Print(doc.Content)
			continue
		}

		written, err := store.PutDocument(job.ID, kind.FileName(), []byte(doc.Content))
		if err != nil {
			logger.Fatal("saving document", zap.Error(err))
		}

		logger.Info("document saved",
			zap.String("path", written),
			zap.Bool("from_cache", doc.FromCache),
			zap.Strings("changes", doc.Changes),
		)
	}
}

func selectedKinds(cmd *cobra.Command) ([]generation.Kind, error) {
	raw, _ := cmd.Flags().GetString("kind")
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return generation.Kinds(), nil
	}

	kind, err := generation.ParseKind(raw)
	if err != nil {
		return nil, err
	}
	return []generation.Kind{kind}, nil
}

func stringOptions(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
