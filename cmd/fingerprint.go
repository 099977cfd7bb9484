package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/generation"
	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <job-id> <source-file>",
	Short: "Print the cache fingerprint a generation request would use",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		fingerprint(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringP("kind", "k", string(generation.KindResume), "document kind: resume or cover-letter")
	fingerprintCmd.Flags().StringToString("option", nil, "extra generation option (key=value)")
}

func fingerprint(cmd *cobra.Command, jobID, source string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	raw, _ := cmd.Flags().GetString("kind")
	kind, err := generation.ParseKind(raw)
	if err != nil {
		logger.Fatal("parsing kind", zap.Error(err))
	}

	job, err := jobs.NewStore(config.DataDir).Get(jobID)
	if err != nil {
		logger.Fatal("loading job", zap.Error(err))
	}

	options, _ := cmd.Flags().GetStringToString("option")

	fp, err := generation.Fingerprint(context.Background(), generation.FileSources{}, generation.Request{
		Kind:       kind,
		Job:        job,
		SourcePath: source,
		Options:    stringOptions(options),
	})
	if err != nil {
		logger.Fatal("computing fingerprint", zap.Error(err))
	}

	fmt.Println(fp)
}
