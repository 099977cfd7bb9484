package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-tailor/internal/jobs"
	"github.com/spigell/job-tailor/internal/logger"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage saved job postings",
}

var jobsImportCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Save extracted job postings so they can be scored",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importJobs(args)
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved jobs with their scores",
	Run: func(_ *cobra.Command, _ []string) {
		listJobs()
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsImportCmd, jobsListCmd)
}

func importJobs(files []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := jobs.NewStore(config.DataDir)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("reading job file", zap.Error(err))
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			logger.Fatal("parsing job file", zap.String("file", file), zap.Error(err))
		}

		listing, err := jobs.Decode(raw)
		if err != nil {
			logger.Fatal("decoding job file", zap.String("file", file), zap.Error(err))
		}

		if err := listing.Validate(); err != nil {
			logger.Fatal("validating job file", zap.String("file", file), zap.Error(err))
		}

		if err := store.Put(listing); err != nil {
			logger.Fatal("saving job", zap.String("file", file), zap.Error(err))
		}

		logger.Info("job imported",
			zap.String("job_id", listing.ID),
			zap.String("title", listing.Title),
			zap.String("company", listing.Company),
		)
	}
}

func listJobs() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store := jobs.NewStore(config.DataDir)
	scores := jobs.NewScoreStore(store)

	ids, err := store.List()
	if err != nil {
		logger.Fatal("listing jobs", zap.Error(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOMPANY\tSCORE")

	for _, id := range ids {
		job, err := store.Get(id)
		if err != nil {
			logger.Warn("skipping unreadable job", zap.String("job_id", id), zap.Error(err))
			continue
		}

		overall := "-"
		s, err := scores.Get(id)
		switch {
		case err == nil:
			overall = fmt.Sprintf("%d", s.OverallScore)
		case !errors.Is(err, jobs.ErrNotFound):
			logger.Warn("reading score", zap.String("job_id", id), zap.Error(err))
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, job.Title, job.Company, overall)
	}

	w.Flush()
}
