package config

import (
	"fmt"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/pkg/ssh"
	"os"
	"strings"
)

// ReadKey returns the private key held by the value, which is either the PEM content or a path to the key file.
// An empty value gives an empty key.
func ReadKey(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	key := v
	if !strings.Contains(v, "-----BEGIN") {
		b, err := os.ReadFile(v)
		if err != nil {
			return "", fmt.Errorf("%w: read key file: %v", errtype.ErrConfiguration, err)
		}
		key = string(b)
	}
	// keys pasted into a single-line variable carry literal \n
	key = strings.ReplaceAll(key, `\n`, "\n")
	if err := ssh.Validate(key); err != nil {
		return "", fmt.Errorf("%w: %v", errtype.ErrConfiguration, err)
	}
	return key, nil
}
