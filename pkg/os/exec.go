package os

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Cmd is a model of the OS command.
type Cmd struct {
	Name    string
	Args    []string
	Env     []string
	Dir     string
	Timeout time.Duration
}

// String renders the command for the logs.
func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Exec a system command and get the combined output.
func Exec(ctx context.Context, cmd Cmd) (string, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}
	osCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	osCmd.Dir = cmd.Dir
	osCmd.Env = append(os.Environ(), cmd.Env...)
	osCmd.WaitDelay = 5 * time.Second
	var out bytes.Buffer
	osCmd.Stdout = &out
	osCmd.Stderr = &out
	err := osCmd.Run()
	res := strings.TrimSpace(out.String())
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", err, ctx.Err())
		}
		return res, fmt.Errorf("%w; output: %s", err, res)
	}
	return res, nil
}
