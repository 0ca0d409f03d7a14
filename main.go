package main

import (
	"fmt"
	"os"

	"fjacquet/bank-movements/cmd/concepts"
	"fjacquet/bank-movements/cmd/export"
	"fjacquet/bank-movements/cmd/ingest"
	"fjacquet/bank-movements/cmd/review"
	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/cmd/serve"
	"fjacquet/bank-movements/internal/config"
)

func init() {
	// Environment from .env must be in place before viper reads it.
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	root.Init()

	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(review.Cmd)
	root.Cmd.AddCommand(concepts.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
