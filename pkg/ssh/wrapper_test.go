package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"golang.org/x/crypto/ssh"
	"os"
	"strings"
	"testing"
)

func newKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "test")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return string(pem.EncodeToMemory(block))
}

func keyFile(t *testing.T, env []string) string {
	t.Helper()
	for _, e := range env {
		if !strings.HasPrefix(e, "GIT_SSH_COMMAND=") {
			continue
		}
		start := strings.Index(e, "-i '") + len("-i '")
		end := strings.Index(e[start:], "'")
		return e[start : start+end]
	}
	t.Fatalf("GIT_SSH_COMMAND is missing in %v", env)
	return ""
}

func TestWithScopesKeyFile(t *testing.T) {
	key := newKey(t)
	var path string

	err := With(key, func(env []string) error {
		path = keyFile(t, env)
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected key file to exist: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read key file: %v", err)
		}
		if string(data) != key {
			t.Fatalf("key file content mismatch")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected key file to be removed, stat err=%v", err)
	}
}

func TestWithRemovesKeyFileOnError(t *testing.T) {
	boom := errors.New("boom")
	var path string

	err := With(newKey(t), func(env []string) error {
		path = keyFile(t, env)
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected key file to be removed, stat err=%v", err)
	}
}

func TestWithEmptyKey(t *testing.T) {
	called := false
	err := With("", func(env []string) error {
		called = true
		for _, e := range env {
			if strings.HasPrefix(e, "GIT_SSH_COMMAND=") {
				t.Fatalf("unexpected ssh command %q", e)
			}
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected callback to run without error, called=%v err=%v", called, err)
	}
}

func TestWithRejectsInvalidKey(t *testing.T) {
	err := With("not a key", func(env []string) error {
		t.Fatalf("callback must not run for invalid keys")
		return nil
	})
	if err == nil {
		t.Fatalf("expected error for invalid key")
	}
}
