package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"orgdash/assignment"
	"orgdash/dashboard"
	"orgdash/models"
	"orgdash/pagination"
)

func newLoginCmd(env *cliEnv) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login --username <name> --password <secret>",
		Short: "Obtain a token; export it as ORGDASH_TOKEN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			c, err := env.client()
			if err != nil {
				return err
			}
			resp, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\nexport ORGDASH_TOKEN=%s\n",
				resp.User.DisplayName(), resp.User.Role, resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account name")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

type pageFlags struct {
	Search   string
	Role     string
	SortKey  string
	Desc     bool
	Page     int
	PageSize int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Search, "search", "", "filter by name or username")
	cmd.Flags().StringVar(&p.Role, "role", "", "filter by role")
	cmd.Flags().StringVar(&p.SortKey, "sort", "", "sort key: id, name, role, level")
	cmd.Flags().BoolVar(&p.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&p.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 10, "rows per page")
}

func (p *pageFlags) query() (dashboard.RosterQuery, error) {
	q := dashboard.RosterQuery{
		Search:   p.Search,
		Role:     models.Role(p.Role),
		PageSize: p.PageSize,
		Page:     p.Page,
	}
	if p.SortKey != "" {
		if _, ok := dashboard.RosterComparators[p.SortKey]; !ok {
			return q, errors.Errorf("unknown sort key %q", p.SortKey)
		}
		q.Sort = pagination.Sort{Key: p.SortKey, Direction: pagination.Asc}
		if p.Desc {
			q.Sort.Direction = pagination.Desc
		}
	}
	return q, nil
}

func printUsers(out io.Writer, w pagination.Window[models.User]) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tLEVEL\tTEAM")
	for _, u := range w.Items {
		team := "-"
		if u.TeamID != nil {
			team = fmt.Sprint(*u.TeamID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Role, u.SupervisoryLevel, team)
	}
	_ = tw.Flush()
	if w.Total == 0 {
		fmt.Fprintln(out, "no users")
		return
	}
	fmt.Fprintf(out, "page %d/%d, showing %d-%d of %d\n", w.Page, w.TotalPages, w.FirstIndex+1, w.LastIndex, w.Total)
}

func newRosterCmd(env *cliEnv) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List the organization roster, paged and sorted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := pf.query()
			if err != nil {
				return err
			}
			s, err := env.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			printUsers(cmd.OutOrStdout(), s.RosterPage(q))
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newEligibleCmd(env *cliEnv) *cobra.Command {
	var pf pageFlags
	var supervisorID uint
	cmd := &cobra.Command{
		Use:   "eligible --supervisor <id>",
		Short: "List the users a supervisor may manage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if supervisorID == 0 {
				return errors.New("--supervisor is required")
			}
			q, err := pf.query()
			if err != nil {
				return err
			}
			s, err := env.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			printUsers(cmd.OutOrStdout(), s.EligiblePage(supervisorID, q))
			return nil
		},
	}
	cmd.Flags().UintVar(&supervisorID, "supervisor", 0, "supervisor user id")
	pf.register(cmd)
	return cmd
}

type assignOptions struct {
	Target   uint
	IDs      []uint
	Override bool
}

func newAssignCmd(env *cliEnv) *cobra.Command {
	var opts assignOptions
	cmd := &cobra.Command{
		Use:       "assign team|supervisor --target <id> --ids 1,2,3",
		Short:     "Assign users to a team or under a supervisor",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"team", "supervisor"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var wf *assignment.Workflow
			if args[0] == "team" {
				wf = s.TeamAssignment(opts.Target)
			} else {
				wf = s.SupervisorAssignment(opts.Target)
			}
			for _, id := range opts.IDs {
				if !wf.IsSelected(id) {
					wf.Toggle(id)
				}
			}
			wf.SetOverride(opts.Override)

			res, err := wf.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			if res.Partial() {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped: %v\n", res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&opts.Target, "target", 0, "team id or supervisor user id")
	cmd.Flags().UintSliceVar(&opts.IDs, "ids", nil, "user ids to assign")
	cmd.Flags().BoolVar(&opts.Override, "override", false, "reassign users that already have a team or supervisor")
	return cmd
}

func newTeamsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List teams with their supervisor and member count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := env.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			st := s.Store().Snapshot()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSUPERVISOR\tMEMBERS")
			for _, t := range st.Teams {
				supervisor := fmt.Sprint(t.SupervisorID)
				if u, ok := st.UserByID(t.SupervisorID); ok {
					supervisor = u.DisplayName()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", t.ID, t.Name, supervisor, len(t.MemberIDs))
			}
			return tw.Flush()
		},
	}
}

func newLevelsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List the supervisory levels, lowest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := env.client()
			if err != nil {
				return err
			}
			lv, err := c.ListLevels(cmd.Context())
			if err != nil {
				return err
			}
			for _, l := range lv {
				fmt.Fprintln(cmd.OutOrStdout(), l.Name)
			}
			return nil
		},
	}
}

func newSummaryCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the organization dashboard summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := env.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			sum, err := s.LoadSummary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "users: %d (%d active)\nteams: %d\nunassigned: %d\n",
				sum.Users, sum.ActiveUsers, sum.Teams, sum.Unassigned)
			for _, role := range slices.Sorted(maps.Keys(sum.ByRole)) {
				fmt.Fprintf(out, "role %s: %d\n", role, sum.ByRole[role])
			}
			for _, level := range slices.Sorted(maps.Keys(sum.ByLevel)) {
				fmt.Fprintf(out, "level %s: %d\n", level, sum.ByLevel[level])
			}
			for _, status := range slices.Sorted(maps.Keys(sum.TasksByStatus)) {
				fmt.Fprintf(out, "tasks %s: %d\n", status, sum.TasksByStatus[status])
			}
			return nil
		},
	}
}
