package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/phillip-england/cineadmin/internal/cineadmincli"
)

func main() {
	if err := cineadmincli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, cineadmincli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			cineadmincli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
