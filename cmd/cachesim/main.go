// cachesim replays a memory-access trace through a configurable cache
// hierarchy and reports per-cache statistics.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		atexit.Exit(1)
	}

	// Statistics reports and trace flushes are atexit registrations.
	atexit.Exit(0)
}
