package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgdash/config"
	"orgdash/database"
	"orgdash/handlers"
	"orgdash/middleware"
	"orgdash/models"
)

type backend struct {
	url   string
	repo  database.Repository
	users map[string]*models.User
	team  *models.Team
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      "cli-secret",
		JWTExpiration:  time.Hour,
		AllowedOrigins: []string{"*"},
		MetricsPath:    "/metrics",
		LevelCount:     2,
	}
	middleware.SetJWTSecret(cfg.JWTSecret)
	log := logrus.New()
	log.SetOutput(io.Discard)

	repo := database.NewMemoryRepository()
	org := &models.Organization{Name: "Acme"}
	require.NoError(t, repo.CreateOrganization(org))

	b := &backend{repo: repo, users: map[string]*models.User{}}
	add := func(name string, role models.Role, level string) {
		hash, err := bcrypt.GenerateFromPassword([]byte(name+"-pw"), bcrypt.MinCost)
		require.NoError(t, err)
		u := &models.User{OrganizationID: org.ID, Username: name, PasswordHash: string(hash), Role: role, SupervisoryLevel: level, Active: true}
		require.NoError(t, repo.CreateUser(u))
		b.users[name] = u
	}
	add("admin", models.RoleAdmin, "Overall")
	add("sup", models.RoleSupervisor, "Level 2")
	add("alice", models.RoleEmployee, "Level 1")
	add("bob", models.RoleEmployee, "None")

	b.team = &models.Team{OrganizationID: org.ID, Name: "Core", SupervisorID: b.users["sup"].ID}
	require.NoError(t, repo.CreateTeam(b.team))

	srv := httptest.NewServer(handlers.NewRouter(cfg, repo, log))
	t.Cleanup(srv.Close)
	b.url = srv.URL
	return b
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_LoginRosterAssign(t *testing.T) {
	b := newBackend(t)

	out, err := run(t, "login", "--api-url", b.url, "--username", "admin", "--password", "admin-pw")
	require.NoError(t, err)
	m := regexp.MustCompile(`ORGDASH_TOKEN=(\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2)
	token := m[1]
	common := []string{"--api-url", b.url, "--token", token}

	out, err = run(t, append([]string{"roster", "--page-size", "3", "--page", "9", "--sort", "name"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "page 2/2, showing 4-4 of 4")
	require.Contains(t, out, "sup")

	out, err = run(t, append([]string{"eligible", "--supervisor", strconv.Itoa(int(b.users["sup"].ID))}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.NotContains(t, out, "admin")

	ids := strconv.Itoa(int(b.users["alice"].ID)) + "," + strconv.Itoa(int(b.users["sup"].ID))
	out, err = run(t, append([]string{"assign", "team", "--target", strconv.Itoa(int(b.team.ID)), "--ids", ids}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "1 assigned, 1 skipped")

	alice, err := b.repo.GetUser(b.users["alice"].ID)
	require.NoError(t, err)
	require.Equal(t, b.team.ID, *alice.TeamID)

	out, err = run(t, append([]string{"teams"}, common...)...)
	require.NoError(t, err)
	require.Regexp(t, `Core\s+sup\s+1`, out)

	out, err = run(t, append([]string{"levels"}, common...)...)
	require.NoError(t, err)
	require.Equal(t, "None\nLevel 1\nLevel 2\nOverall\n", out)

	out, err = run(t, append([]string{"summary"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "teams: 1")
}

func TestCLI_Errors(t *testing.T) {
	b := newBackend(t)

	_, err := run(t, "roster", "--api-url", b.url, "--token", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "UNAUTHORIZED")

	_, err = run(t, "assign", "nowhere", "--api-url", b.url)
	require.Error(t, err)

	_, err = run(t, "login", "--api-url", b.url, "--username", "admin", "--password", "nope")
	require.Error(t, err)

	_, err = run(t, "roster", "--api-url", b.url, "--token", "x", "--sort", "shoe-size")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown sort key")
}
