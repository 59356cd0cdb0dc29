package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "xp3flare: %v\n", err)
		os.Exit(1)
	}
}
