package main

import (
	"fmt"
	"os"

	// Register the application's migrations.
	_ "github.com/shashiranjanraj/demoapp/database/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
