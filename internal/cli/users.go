package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

// CreateUserCommand creates a user and prints its first API token.
type CreateUserCommand struct {
	DatabasePath string
	Username     string
	Email        string
	Grants       []permissions.Permission
	NoToken      bool
	Out          io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	var grants string
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Contact email")
	fs.StringVar(&grants, "grant", "", "Comma-separated permissions: "+permissionList())
	fs.BoolVar(&cmd.NoToken, "no-token", false, "Create the user without issuing a token (proxy mode)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a library user and print its API token.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username alice\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -username bob -grant can_mark_returned,can_create_update_destroy\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}

	perms, err := parsePermissions(grants)
	if err != nil {
		return err
	}
	cmd.Grants = perms
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	out := output(cmd.Out)

	env, err := openEnvironment(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := env.auth.CreateUser(cmd.Username, cmd.Email, cmd.Grants...)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	fmt.Fprintf(out, "Created user %q (id %d)\n", user.Username, user.ID)
	if len(cmd.Grants) > 0 {
		fmt.Fprintf(out, "Permissions: %s\n", joinPermissions(cmd.Grants))
	}

	if cmd.NoToken {
		return nil
	}

	token, err := env.auth.GenerateToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Fprintf(out, "Token: %s\n", token)
	fmt.Fprintln(out, "Store this token now, it cannot be shown again.")
	return nil
}

// PermissionCommand grants or revokes one permission.
type PermissionCommand struct {
	Name         string // "grant" or "revoke"
	DatabasePath string
	Username     string
	Permission   permissions.Permission
	Out          io.Writer
}

func NewGrantCommand() *PermissionCommand {
	return &PermissionCommand{Name: "grant"}
}

func NewRevokeCommand() *PermissionCommand {
	return &PermissionCommand{Name: "revoke"}
}

func (cmd *PermissionCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)

	var perm string
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&perm, "permission", "", "Permission (required): "+permissionList())

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s -username <name> -permission <permission>\n\n", os.Args[0], cmd.Name)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if perm == "" {
		return fmt.Errorf("required flag -permission not provided")
	}

	p, err := permissions.Parse(perm)
	if err != nil {
		return err
	}
	cmd.Permission = p
	return nil
}

func (cmd *PermissionCommand) Run() error {
	out := output(cmd.Out)

	env, err := openEnvironment(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer env.Close()

	if cmd.Name == "revoke" {
		if err := env.auth.Revoke(cmd.Username, cmd.Permission); err != nil {
			return fmt.Errorf("failed to revoke %s: %w", cmd.Permission, err)
		}
		fmt.Fprintf(out, "Revoked %s from %q\n", cmd.Permission, cmd.Username)
		return nil
	}

	if err := env.auth.Grant(cmd.Username, cmd.Permission); err != nil {
		return fmt.Errorf("failed to grant %s: %w", cmd.Permission, err)
	}
	fmt.Fprintf(out, "Granted %s to %q\n", cmd.Permission, cmd.Username)
	return nil
}

// RotateTokenCommand replaces a user's API token, or revokes it.
type RotateTokenCommand struct {
	DatabasePath string
	Username     string
	RevokeOnly   bool
	Out          io.Writer
}

func NewRotateTokenCommand() *RotateTokenCommand {
	return &RotateTokenCommand{}
}

func (cmd *RotateTokenCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("rotate-token", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.BoolVar(&cmd.RevokeOnly, "revoke", false, "Revoke the current token without issuing a new one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s rotate-token -username <name> [-revoke]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	return nil
}

func (cmd *RotateTokenCommand) Run() error {
	out := output(cmd.Out)

	env, err := openEnvironment(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer env.Close()

	user, err := env.auth.GetUserByUsername(cmd.Username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if cmd.RevokeOnly {
		if err := env.auth.RevokeToken(user.ID); err != nil {
			return fmt.Errorf("failed to revoke token: %w", err)
		}
		fmt.Fprintf(out, "Revoked token for %q\n", user.Username)
		return nil
	}

	token, err := env.auth.GenerateToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Fprintf(out, "Token: %s\n", token)
	return nil
}

// ListUsersCommand prints every user with its permissions.
type ListUsersCommand struct {
	DatabasePath string
	Out          io.Writer
}

func NewListUsersCommand() *ListUsersCommand {
	return &ListUsersCommand{}
}

func (cmd *ListUsersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database")
	return fs.Parse(args)
}

func (cmd *ListUsersCommand) Run() error {
	env, err := openEnvironment(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer env.Close()

	all, err := env.auth.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	tw := tabwriter.NewWriter(output(cmd.Out), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tTOKEN\tPERMISSIONS")
	for i := range all {
		view := auth.NewUserView(&all[i])
		hasToken := "no"
		if all[i].TokenHash != "" {
			hasToken = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", view.ID, view.Username, hasToken, joinPermissions(view.Permissions))
	}
	return tw.Flush()
}

func parsePermissions(raw string) ([]permissions.Permission, error) {
	var perms []permissions.Permission
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := permissions.Parse(part)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func joinPermissions(perms []permissions.Permission) string {
	if len(perms) == 0 {
		return "-"
	}
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}

func permissionList() string {
	return joinPermissions(permissions.All)
}
