package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/darasa/core/lesson"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db  *sql.DB
	svc lesson.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [COMMAND] [ARGS...] - run database migrations (default command: up)")
	fmt.Println("  regenerate -id ID - re-run content generation for a failed lesson")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	regenerateCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
	regenerateID := regenerateCmd.Int("id", 0, "The failed lesson's ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			return cli.migrate([]string{"up"})
		}
		return cli.migrate(args[2:])
	case "regenerate":
		if err := regenerateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *regenerateID <= 0 {
			regenerateCmd.Usage()
			return errHelp
		}
		return cli.regenerate(*regenerateID)
	default:
		cli.printUsage()
		return errHelp
	}
}
