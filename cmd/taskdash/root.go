// file: cmd/taskdash/root.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/config"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/dkoosis/taskdash/internal/render"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. It is populated in the root
// command's PersistentPreRunE.
type app struct {
	out        io.Writer
	configPath string
	logLevel   string
	output     string
	noColor    bool

	cfg    *config.Config
	tokens config.TokenStore
	logger logging.Logger
	render *render.Renderer
	client *clickup.Client

	// clientOpts are appended when the client is built; tests inject transports here.
	clientOpts []clickup.Option
}

func newRootCmd(out io.Writer, clientOpts ...clickup.Option) *cobra.Command {
	a := &app{out: out, clientOpts: clientOpts}

	root := &cobra.Command{
		Use:           "taskdash",
		Short:         "Browse and update projects tracked in a ClickUp list.",
		Long:          `taskdash reads the tasks of one ClickUp list as projects: notes, tracked time, custom fields, checklists and team members.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commitHash, buildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.client != nil {
				return a.client.Close()
			}
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to configuration file (default "+config.DefaultConfigPath+")")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.StringVarP(&a.output, "output", "o", string(render.FormatTable), "Output format: table or json")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newProjectsCmd(a),
		newProjectCmd(a),
		newStatusCmd(a),
		newRenameCmd(a),
		newAssignCmd(a),
		newDatesCmd(a),
		newNotesCmd(a),
		newNoteCmd(a),
		newTimeCmd(a),
		newUsersCmd(a),
		newUserCmd(a),
		newListCmd(a),
		newFieldCmd(a),
		newChecklistCmd(a),
		newSummaryCmd(a),
		newCheckCmd(a),
		newTokenCmd(a),
	)
	return root
}

// setup loads configuration, configures logging and output, and resolves the token.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	// Logs go to stderr so JSON output stays parseable.
	logging.InitLogging(logging.ParseLevel(cfg.Logging.Level), os.Stderr)
	a.logger = logging.GetLogger("cli")

	format, err := render.ParseFormat(a.output)
	if err != nil {
		return err
	}
	if a.noColor || format == render.FormatJSON {
		color.NoColor = true
	}
	a.render = render.New(a.out, format)

	tokens, err := config.NewTokenStore(cfg.Auth.TokenPath, a.logger)
	if err != nil {
		a.logger.Warn("Token storage unavailable.", "error", err)
	} else {
		a.tokens = tokens
		cfg.ResolveToken(tokens, a.logger)
	}
	a.cfg = cfg
	a.logger.Debug("Command starting.", "command", cmd.CommandPath(), "tokenSource", cfg.TokenSource)
	return nil
}

// api returns the lazily built API client.
func (a *app) api() (*clickup.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	opts := []clickup.Option{clickup.WithLogger(logging.GetLogger("clickup_client"))}
	if a.cfg.ClickUp.Cooldown > 0 {
		opts = append(opts, clickup.WithCooldown(a.cfg.ClickUp.Cooldown))
	}
	opts = append(opts, a.clientOpts...)
	c, err := clickup.NewClient(a.cfg.ClientConfig(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ClickUp client")
	}
	a.client = c
	return c, nil
}
