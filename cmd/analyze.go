package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/batch"
	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

var (
	analyzeVacancyFile string
	analyzeConcurrency int
	analyzeSave        bool
	analyzeSkipDeep    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files or directories...]",
	Short: "Analyze a batch of CV files against a vacancy",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		vacancy, err := processor.LoadVacancyFile(analyzeVacancyFile)
		if err != nil {
			return err
		}
		if vacancy.ID == "" {
			vacancy.ID = strings.TrimSuffix(filepath.Base(analyzeVacancyFile), filepath.Ext(analyzeVacancyFile))
		}

		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return eris.New("no CV files found in the given paths")
		}

		env, err := initBatch(ctx, analyzeSave)
		if err != nil {
			return err
		}
		defer env.Close()

		session := env.newSession(analyzeConcurrency)
		session.RegisterVacancy(*vacancy)
		session.SetGlobalVacancy(vacancy.ID)

		res := session.AddFiles(ctx, files)
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %s\n", e)
		}
		if res.Added == 0 {
			return eris.New("no files admitted")
		}

		session.WaitPrefetch()
		for _, item := range session.Items() {
			if item.Contact == nil || item.Contact.Name == "" {
				zap.L().Warn("no contact name parsed, using file name",
					zap.String("file", item.FileName))
			}
		}

		if err := session.Start(ctx); err != nil {
			return err
		}
		if !analyzeSkipDeep {
			session.WaitDeep()
		}

		printResults(cmd, session.Items())

		stats := session.Stats()
		fmt.Fprintf(cmd.OutOrStdout(),
			"\n%d CVs: %d analizados, %d con error | score promedio %d | %d high match\n",
			stats.Total, stats.SuccessCount, stats.ErrorCount, stats.AvgScore, stats.HighMatch)

		if analyzeSave {
			candidates := session.Candidates(time.Now())
			for _, c := range candidates {
				if err := env.Store.AppendCandidate(ctx, c); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d candidatos guardados\n", len(candidates))
		}

		return nil
	},
}

// collectFiles expands the given paths: directories are scanned one level
// deep for CV files, regular files are taken as-is.
func collectFiles(paths []string) ([]processor.FileUpload, error) {
	var out []processor.FileUpload
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", path)
		}

		if !info.IsDir() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, eris.Wrapf(err, "read %s", path)
			}
			out = append(out, processor.FileUpload{Name: filepath.Base(path), Data: data})
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read dir %s", path)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".pdf", ".doc", ".docx":
			default:
				continue
			}
			data, err := os.ReadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, eris.Wrapf(err, "read %s", entry.Name())
			}
			out = append(out, processor.FileUpload{Name: entry.Name(), Data: data})
		}
	}
	return out, nil
}

func printResults(cmd *cobra.Command, items []model.CVItem) {
	sorted := make([]model.CVItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scoreOf(sorted[i]) > scoreOf(sorted[j])
	})

	w := cmd.OutOrStdout()
	for _, item := range sorted {
		if item.Status == model.StatusError {
			fmt.Fprintf(w, "ERROR  %-40s %s\n", item.FileName, item.Error)
			continue
		}
		name := item.FileName
		if item.Contact != nil && item.Contact.Name != "" {
			name = item.Contact.Name
		}
		deep := ""
		if item.Deep != nil {
			deep = " [deep]"
		}
		fmt.Fprintf(w, "%3d    %-40s %s%s\n", scoreOf(item), name, item.FileName, deep)
	}
}

func scoreOf(item model.CVItem) int {
	return batch.ScoreFromAnalysis(item.Analysis)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeVacancyFile, "vacancy", "", "vacancy YAML file (required)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "parallel analyses (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save resulting candidates to the store")
	analyzeCmd.Flags().BoolVar(&analyzeSkipDeep, "skip-deep", false, "skip the deep analysis second pass")
	_ = analyzeCmd.MarkFlagRequired("vacancy")
	rootCmd.AddCommand(analyzeCmd)
}
