// Command converteasy converts documents between office formats, either one
// file at a time or as an HTTP service.
package main

import "converteasy/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
