package jbosscli

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jbmon/internal/domain"
)

// Runner executes one management command against one controller.
// Implementations never return Go errors: every failure is described by
// the returned Result.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// Request addresses a single controller.
type Request struct {
	Host        string
	Port        int
	Command     string
	Credentials domain.Credentials
}

// Controller returns "host:port".
func (r Request) Controller() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Args returns the CLI arguments (without the executable).
func (r Request) Args() []string {
	args := []string{
		"-c",
		"--controller=" + r.Controller(),
		"--command=" + r.Command,
	}
	if r.Credentials.IsSet() {
		args = append(args,
			"--user="+r.Credentials.Username,
			"--password="+r.Credentials.Password,
		)
	}
	return args
}

// redactedArgs is Args with the password masked, for debug logs.
func (r Request) redactedArgs() string {
	args := r.Args()
	for i, a := range args {
		if strings.HasPrefix(a, "--password=") {
			args[i] = "--password=***REDACTED***"
		}
	}
	return strings.Join(args, " ")
}
