package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aquarian247/aquasim/cmd/aquasim/commands"
	"github.com/aquarian247/aquasim/internal/orchestrator"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, orchestrator.ErrInfeasible) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
