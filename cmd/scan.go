package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ossrange/repoaudit/pkg/agent"
	"github.com/ossrange/repoaudit/pkg/config"
	"github.com/ossrange/repoaudit/pkg/gitrepo"
	"github.com/ossrange/repoaudit/pkg/registry"
	"github.com/ossrange/repoaudit/pkg/summarize"
	"github.com/ossrange/repoaudit/pkg/vulnscan"
)

var (
	scanReposFile   string
	scanLocalPath   string
	scanOutputDir   string
	scanConfigPath  string
	scanNoSummarize bool
	scanNoCleanup   bool
	scanVerbose     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [repository-url...]",
	Short: "Scan one or more repositories and write reports",
	Long: `Scan clones each repository, reads its composer.json, classifies every
tracked contrib dependency against the package registry, runs static checks
and a composer advisory lookup, and writes one report per repository plus a
batch summary. Repository URLs given as arguments take precedence over the
repos file.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanReposFile, "repos", "r", "", "file listing repository URLs, one per line")
	scanCmd.Flags().StringVarP(&scanLocalPath, "path", "p", "", "scan a local project directory instead of cloning")
	scanCmd.Flags().StringVarP(&scanOutputDir, "output", "o", "", "directory for rendered reports")
	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "c", "", "path to config file")
	scanCmd.Flags().BoolVar(&scanNoSummarize, "no-summarize", false, "skip the AI narrative summary")
	scanCmd.Flags().BoolVar(&scanNoCleanup, "no-cleanup", false, "keep cloned working copies after scanning")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if scanVerbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(scanConfigPath)
	if err != nil {
		return err
	}
	if scanReposFile != "" {
		cfg.ReposFile = scanReposFile
	}
	if scanOutputDir != "" {
		cfg.OutputDir = scanOutputDir
	}

	subjects := args
	var repos agent.WorkingCopies = gitrepo.NewManager(cfg.TempDir, nil, logger)
	if scanLocalPath != "" {
		subjects = []string{scanLocalPath}
		repos = localCopies{}
	} else if len(subjects) == 0 {
		subjects, err = gitrepo.ReadList(cfg.ReposFile)
		if err != nil {
			return fmt.Errorf("reading repository list: %w", err)
		}
	}
	if len(subjects) == 0 {
		return fmt.Errorf("no repositories to scan: pass URLs as arguments or list them in %s", cfg.ReposFile)
	}

	var summarizer agent.Summarizer
	if cfg.Summarizer.Enabled && !scanNoSummarize {
		if cfg.Summarizer.APIKey == "" {
			logger.Warn("OPENAI_API_KEY not set; skipping narrative summaries")
		} else {
			summarizer = summarize.NewClient(cfg.Summarizer.APIKey, cfg.Summarizer.Model, cfg.Summarizer.BaseURL, logger)
		}
	}

	timeout := time.Duration(cfg.Registry.TimeoutSeconds) * time.Second
	runner := agent.New(agent.Options{
		Registry:   registry.NewClient(cfg.Registry.BaseURL, timeout, logger),
		Repos:      repos,
		Static:     vulnscan.NewStaticScanner(logger),
		Advisories: vulnscan.NewAuditor(nil, logger),
		Summarizer: summarizer,
		OutputDir:  cfg.OutputDir,
		KeepCopies: scanNoCleanup,
		Logger:     logger,
	})

	_, summaryText, err := runner.Run(cmd.Context(), subjects)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summaryText)
	return nil
}

// localCopies serves a pre-existing project directory in place of a clone.
type localCopies struct{}

func (localCopies) Clone(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("opening project directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return path, nil
}

func (localCopies) Cleanup(string) {}
