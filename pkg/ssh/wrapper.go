// Package ssh scopes a private key to the lifetime of a git command.
package ssh

import (
	"fmt"
	"golang.org/x/crypto/ssh"
	"os"
	"strings"
)

// NoPromptEnv stops git from asking for credentials interactively.
const NoPromptEnv = "GIT_TERMINAL_PROMPT=0"

// Validate checks that the key is an unencrypted private key.
func Validate(privateKey string) error {
	_, err := ssh.ParsePrivateKey([]byte(privateKey))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	return nil
}

// With writes the private key to a temporary file and calls fn with the git environment that uses it.
// The file is removed when fn returns. An empty key runs fn without GIT_SSH_COMMAND.
func With(privateKey string, fn func(env []string) error) error {
	if strings.TrimSpace(privateKey) == "" {
		return fn([]string{NoPromptEnv})
	}
	if err := Validate(privateKey); err != nil {
		return err
	}
	f, err := os.CreateTemp("", "deploy-key-*")
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	defer os.Remove(f.Name())
	if err = f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("chmod key file: %w", err)
	}
	key := privateKey
	if !strings.HasSuffix(key, "\n") {
		key += "\n"
	}
	if _, err = f.WriteString(key); err != nil {
		f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	return fn([]string{NoPromptEnv, "GIT_SSH_COMMAND=" + Command(f.Name())})
}

// Command returns the ssh invocation that authenticates with the key file only.
func Command(keyFile string) string {
	return fmt.Sprintf(
		"ssh -i '%s' -o IdentitiesOnly=yes -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -o BatchMode=yes",
		strings.ReplaceAll(keyFile, "'", `'\''`),
	)
}
