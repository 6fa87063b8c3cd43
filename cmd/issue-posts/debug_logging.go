package main

import (
	"fmt"
	"log"
	"os"
)

func debugLog(format string, a ...any) {
	if Debug {
		msg := fmt.Sprintf(format, a...)
		fmt.Fprintf(os.Stderr, "[issue-posts] %s", msg)
	}
}

// newLogger is what the pipeline and publisher report progress on.
func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}
