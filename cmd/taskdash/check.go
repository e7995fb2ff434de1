// file: cmd/taskdash/check.go
package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/render"
	"github.com/spf13/cobra"
)

// errCheckFailed makes the process exit non-zero after the report is printed.
var errCheckFailed = errors.New("connection check failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configuration and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.api()
			if err != nil {
				return err
			}
			report := runCheck(cmd, c)
			report.TokenSource = a.cfg.TokenSource
			if err := a.render.Check(report); err != nil {
				return err
			}
			if !report.Passed() {
				return errCheckFailed
			}
			return nil
		},
	}
}

// runCheck walks configuration, list access and member access, stopping at
// the first failure that makes later steps meaningless.
func runCheck(cmd *cobra.Command, c *clickup.Client) render.CheckReport {
	ctx := cmd.Context()
	var report render.CheckReport
	finish := func() render.CheckReport {
		report.Health = c.Health()
		report.Metrics = c.Metrics()
		report.Cache = c.CacheStats()
		return report
	}

	if !c.Configured() {
		var cfgErr *clickup.ConfigurationError
		detail := "missing settings"
		if _, err := c.GetList(ctx); errors.As(err, &cfgErr) {
			detail = "missing " + strings.Join(cfgErr.Missing, ", ")
		}
		report.Steps = append(report.Steps, render.CheckStep{Name: "configuration", Detail: detail})
		return finish()
	}
	report.Steps = append(report.Steps, render.CheckStep{
		Name: "configuration", OK: true,
		Detail: fmt.Sprintf("list %s, team %s", c.ListID(), c.TeamID()),
	})

	list, err := c.GetList(ctx)
	if err != nil {
		report.Steps = append(report.Steps, render.CheckStep{Name: "list access", Detail: err.Error()})
		return finish()
	}
	report.Steps = append(report.Steps, render.CheckStep{Name: "list access", OK: true, Detail: list.Name})

	users, err := c.GetUsers(ctx)
	step := render.CheckStep{Name: "team members", OK: err == nil}
	if err != nil {
		step.Detail = err.Error()
	} else {
		step.Detail = fmt.Sprintf("%d users", len(users))
	}
	report.Steps = append(report.Steps, step)
	return finish()
}
