package main

import "os"

var version = "0.1.0-dev"

func main() {
	if err := newRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
