package cli

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

var tokenLine = regexp.MustCompile(`Token: ([0-9a-f]{64})`)

func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	cmd := NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-username", "alice", "-grant", "can_mark_returned, catalog.can_create_update_destroy"}))
	assert.Equal(t, "alice", cmd.Username)
	assert.Equal(t, []permissions.Permission{permissions.CanMarkReturned, permissions.CanCreateUpdateDestroy}, cmd.Grants)

	assert.Error(t, NewCreateUserCommand().ParseFlags(nil), "username is required")
	assert.Error(t, NewCreateUserCommand().ParseFlags([]string{"-username", "bob", "-grant", "superuser"}))
}

func TestCreateUserCommand_Run(t *testing.T) {
	dbPath := testDBPath(t)
	var out bytes.Buffer

	cmd := NewCreateUserCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-username", "alice", "-grant", "can_mark_returned"}))
	cmd.Out = &out
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), `Created user "alice"`)
	assert.Contains(t, out.String(), "catalog.can_mark_returned")
	match := tokenLine.FindStringSubmatch(out.String())
	require.Len(t, match, 2)

	env, err := openEnvironment(dbPath)
	require.NoError(t, err)
	defer env.Close()

	user, err := env.auth.ValidateToken(match[1])
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.CanMarkReturned)
	assert.False(t, user.CanCreateUpdateDestroy)
}

func TestPermissionCommands(t *testing.T) {
	dbPath := testDBPath(t)

	create := NewCreateUserCommand()
	require.NoError(t, create.ParseFlags([]string{"-db", dbPath, "-username", "bob", "-no-token"}))
	create.Out = &bytes.Buffer{}
	require.NoError(t, create.Run())

	var out bytes.Buffer
	grant := NewGrantCommand()
	require.NoError(t, grant.ParseFlags([]string{"-db", dbPath, "-username", "bob", "-permission", "can_create_update_destroy"}))
	grant.Out = &out
	require.NoError(t, grant.Run())
	assert.Contains(t, out.String(), "Granted catalog.can_create_update_destroy")

	revoke := NewRevokeCommand()
	require.NoError(t, revoke.ParseFlags([]string{"-db", dbPath, "-username", "bob", "-permission", "can_create_update_destroy"}))
	revoke.Out = &out
	require.NoError(t, revoke.Run())

	env, err := openEnvironment(dbPath)
	require.NoError(t, err)
	defer env.Close()
	user, err := env.auth.GetUserByUsername("bob")
	require.NoError(t, err)
	assert.False(t, user.CanCreateUpdateDestroy)
	assert.Empty(t, user.TokenHash, "-no-token issues nothing")

	missing := NewGrantCommand()
	require.NoError(t, missing.ParseFlags([]string{"-db", dbPath, "-username", "nobody", "-permission", "can_mark_returned"}))
	missing.Out = &out
	assert.Error(t, missing.Run())

	assert.Error(t, NewGrantCommand().ParseFlags([]string{"-username", "bob"}), "permission is required")
}

func TestRotateTokenCommand(t *testing.T) {
	dbPath := testDBPath(t)

	var out bytes.Buffer
	create := NewCreateUserCommand()
	require.NoError(t, create.ParseFlags([]string{"-db", dbPath, "-username", "carol"}))
	create.Out = &out
	require.NoError(t, create.Run())
	first := tokenLine.FindStringSubmatch(out.String())[1]

	out.Reset()
	rotate := NewRotateTokenCommand()
	require.NoError(t, rotate.ParseFlags([]string{"-db", dbPath, "-username", "carol"}))
	rotate.Out = &out
	require.NoError(t, rotate.Run())
	second := tokenLine.FindStringSubmatch(out.String())[1]
	assert.NotEqual(t, first, second)

	env, err := openEnvironment(dbPath)
	require.NoError(t, err)
	_, err = env.auth.ValidateToken(first)
	assert.Error(t, err, "old token no longer works")
	_, err = env.auth.ValidateToken(second)
	assert.NoError(t, err)
	require.NoError(t, env.Close())

	revoke := NewRotateTokenCommand()
	require.NoError(t, revoke.ParseFlags([]string{"-db", dbPath, "-username", "carol", "-revoke"}))
	revoke.Out = &out
	require.NoError(t, revoke.Run())

	list := NewListUsersCommand()
	require.NoError(t, list.ParseFlags([]string{"-db", dbPath}))
	out.Reset()
	list.Out = &out
	require.NoError(t, list.Run())
	assert.Regexp(t, `carol\s+no\s+-`, out.String())
}

func TestMaintenanceCommand(t *testing.T) {
	dbPath := testDBPath(t)

	db, err := database.NewDatabase(dbPath, "silent")
	require.NoError(t, err)
	borrower := &entities.User{Username: "dave"}
	require.NoError(t, db.DB.Create(borrower).Error)
	book := &entities.Book{Title: "Emma", ISBN: "9780141439587", Released: entities.DefaultReleased}
	require.NoError(t, db.DB.Create(book).Error)
	due := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.DB.Create(&entities.BookInstance{
		BookID: book.ID, Imprint: "Penguin", Status: entities.LoanStatusOnLoan, DueBack: &due, BorrowerID: &borrower.ID,
	}).Error)
	require.NoError(t, db.Close())

	assert.Error(t, NewMaintenanceCommand().ParseFlags([]string{"-as-of", "January"}))
	assert.Error(t, NewMaintenanceCommand().ParseFlags([]string{"-retention-days", "0"}))

	var out bytes.Buffer
	dry := NewMaintenanceCommand()
	require.NoError(t, dry.ParseFlags([]string{"-db", dbPath, "-as-of", "2024-01-10", "-dry-run"}))
	dry.Out = &out
	require.NoError(t, dry.Run())
	assert.Contains(t, out.String(), "Overdue copies as of 2024-01-10: 1")
	assert.Contains(t, out.String(), "due 2024-01-05")

	run := NewMaintenanceCommand()
	require.NoError(t, run.ParseFlags([]string{"-db", dbPath, "-as-of", "2024-01-10"}))
	run.Out = &out
	require.NoError(t, run.Run())

	env, err := openEnvironment(dbPath)
	require.NoError(t, err)
	defer env.Close()
	events, total, err := env.audit.GetEvents(0, entities.AuditEventOverdue, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, borrower.ID, events[0].UserID)
}
