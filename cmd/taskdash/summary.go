// file: cmd/taskdash/summary.go
package main

import (
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/dkoosis/taskdash/internal/summary"
	"github.com/spf13/cobra"
)

func newSummaryCmd(a *app) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "summary [id...]",
		Short: "Latest note and tracked hours per project",
		Long:  "Summarizes the given projects, or every open project in the list when no id is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			ids := args
			if len(ids) == 0 {
				tasks, err := c.GetProjects(cmd.Context(), false)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					ids = append(ids, t.ID)
				}
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.Summary.Concurrency
			}
			sums, err := summary.Summarize(cmd.Context(), c, ids,
				summary.WithConcurrency(concurrency),
				summary.WithLogger(logging.GetLogger("summary")))
			if err != nil {
				return err
			}
			return a.render.Summaries(sums)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", summary.DefaultConcurrency, "Projects fetched in parallel")
	return cmd
}
