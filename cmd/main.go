package main

import (
	"fmt"
	"os"

	"github.com/ctrsuite/ctrimage/cmd/cmd"
	"github.com/ctrsuite/ctrimage/internal/env"
)

func main() {
	fmt.Printf("%s %s (commit %s, built %s)\n\n",
		env.AppName, env.Version, env.CommitHash, env.BuildTime)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
