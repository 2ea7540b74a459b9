package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/schoolwerk/auditlog/internal/cli"
)

func main() {
	// A local .env may carry AUDIT_MONGO_URI so credentials stay out of
	// the config file. Absence is fine.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
