package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "%s %v\n", newStyles().errorLabel.Sprint("sour:"), err)
		}
		os.Exit(1)
	}
}
