// Command sitegen pre-assembles a static site for hosting without the page
// server, and inspects the article catalogue.
package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
