package main

import (
	"fmt"
	"os"
)

func main() {
	a := newApp()

	rootCmd := newRootCmd(a)
	rootCmd.SetOut(os.Stdout)

	err := rootCmd.Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
