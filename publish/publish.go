// Package publish delivers generated post data into the site's hosting repository.
package publish

import (
	"context"
	"fmt"
	"strings"
)

// Publisher takes a directory laid out like the hosting repo (src/_data/posts,
// src/assets/posts) and gets it live.  It returns a reference to what was published.
type Publisher interface {
	Publish(ctx context.Context, localOutputDir string) (string, error)
}

// Error reports which step of publishing failed.  Secrets are scrubbed from the message.
type Error struct {
	Step string
	Err  error

	secrets []string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("publish: %s failed: %v", e.Step, e.Err)
	for _, s := range e.secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, "[redacted]")
		}
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
