// studyroom is a terminal client for study-group chat rooms.
package main

import (
	"os"

	"github.com/wethinkt/go-studyroom/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
