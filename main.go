package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/locallibrary/internal/cli"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is an admin subcommand run against the catalog database.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "create-user":
		cmd = cli.NewCreateUserCommand()
	case "grant":
		cmd = cli.NewGrantCommand()
	case "revoke":
		cmd = cli.NewRevokeCommand()
	case "rotate-token":
		cmd = cli.NewRotateTokenCommand()
	case "list-users":
		cmd = cli.NewListUsersCommand()
	case "maintenance":
		cmd = cli.NewMaintenanceCommand()
	case "version":
		fmt.Printf("locallibrary %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve         Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  create-user   Create a user and print its API token\n")
	fmt.Fprintf(os.Stderr, "  grant         Grant a permission to a user\n")
	fmt.Fprintf(os.Stderr, "  revoke        Revoke a permission from a user\n")
	fmt.Fprintf(os.Stderr, "  rotate-token  Replace or revoke a user's API token\n")
	fmt.Fprintf(os.Stderr, "  list-users    List users and their permissions\n")
	fmt.Fprintf(os.Stderr, "  maintenance   Record overdue loans and apply audit retention\n")
	fmt.Fprintf(os.Stderr, "  version       Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
