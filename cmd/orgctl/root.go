package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"orgdash/client"
	"orgdash/config"
	"orgdash/dashboard"
)

type globalOptions struct {
	APIURL  string
	Token   string
	OrgID   uint
	Verbose bool
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadClient()
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "orgctl",
		Short:         "Manage organization rosters, teams and supervisors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", cfg.APIURL, "backend base URL (ORGDASH_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", cfg.Token, "bearer token (ORGDASH_TOKEN)")
	cmd.PersistentFlags().UintVar(&opts.OrgID, "org", 0, "organization id; defaults to the first visible organization")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log requests")

	env := &cliEnv{cfg: cfg, opts: opts}
	cmd.AddCommand(newLoginCmd(env))
	cmd.AddCommand(newRosterCmd(env))
	cmd.AddCommand(newEligibleCmd(env))
	cmd.AddCommand(newAssignCmd(env))
	cmd.AddCommand(newTeamsCmd(env))
	cmd.AddCommand(newLevelsCmd(env))
	cmd.AddCommand(newSummaryCmd(env))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// cliEnv builds clients and sessions from the resolved flags.
type cliEnv struct {
	cfg  *config.ClientConfig
	opts *globalOptions
}

func (e *cliEnv) logger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if e.opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(log)
}

func (e *cliEnv) client() (*client.Client, error) {
	return client.New(e.opts.APIURL, e.opts.Token,
		client.WithTimeout(e.cfg.Timeout),
		client.WithLogger(e.logger()),
	)
}

func (e *cliEnv) orgID(ctx context.Context, c *client.Client) (uint, error) {
	if e.opts.OrgID != 0 {
		return e.opts.OrgID, nil
	}
	orgs, err := c.ListOrganizations(ctx)
	if err != nil {
		return 0, err
	}
	if len(orgs) == 0 {
		return 0, errors.New("no organization visible to this account; pass --org")
	}
	return orgs[0].ID, nil
}

// session opens a dashboard session and loads the roster and teams.
func (e *cliEnv) session(ctx context.Context) (*dashboard.Session, error) {
	c, err := e.client()
	if err != nil {
		return nil, err
	}
	orgID, err := e.orgID(ctx, c)
	if err != nil {
		return nil, err
	}
	s := dashboard.NewSession(c, orgID, dashboard.Options{Timeout: e.cfg.Timeout, Logger: e.logger()})
	if err := s.Refresh(ctx); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "load roster")
	}
	return s, nil
}
