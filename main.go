// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"

	"specmon/cmd"
	applog "specmon/internal/log"
	"specmon/pkg/build"
)

// main stamps the build information, then hands over to the command line.
// Every command owns its own startup and shutdown: the live view and the
// headless server both stop the analyzer and close their outputs before
// returning here.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v, using development build info", err)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", build.GetBuildFlags().Name, err)
		os.Exit(1)
	}
}
