// Package main is the command-line front end of the diffusion coefficient
// calculator. It evaluates compositions without any server or window.
package main

import (
	"fmt"
	"os"
)

func main() {
	a := &app{}
	err := a.command().Execute()
	_ = a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
