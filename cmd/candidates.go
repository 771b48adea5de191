package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reclutahub/recluta-cli/internal/store"
)

var (
	candidatesVacancy string
	candidatesLimit   int
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List saved candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initBatch(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		candidates, err := env.Store.ListCandidates(ctx, store.Filter{
			VacancyID: candidatesVacancy,
			Limit:     candidatesLimit,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, c := range candidates {
			fmt.Fprintf(w, "%3d  %-14s %-30s %-30s %s\n",
				c.Score, c.Recommendation, c.Name, c.Email, strings.Join(c.Skills, ", "))
		}
		fmt.Fprintf(w, "\n%d candidatos\n", len(candidates))

		return nil
	},
}

func init() {
	candidatesCmd.Flags().StringVar(&candidatesVacancy, "vacancy", "", "filter by vacancy id")
	candidatesCmd.Flags().IntVar(&candidatesLimit, "limit", 0, "limit the number of rows")
	rootCmd.AddCommand(candidatesCmd)
}
