// Package git builds the git commands used by the mirrors.
// Every value is passed as a separate argument; nothing is interpolated into a shell string.
package git

import (
	"fmt"
	appOs "github.com/maroux/heroku-deployer/pkg/os"
	"strings"
)

// Binary is the git executable.
const Binary = "git"

// ValidateBranch checks that the name is safe to be used as a branch argument.
func ValidateBranch(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is empty")
	}
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("branch name %q is invalid", name)
	}
	if strings.HasSuffix(name, ".lock") || strings.Contains(name, "..") || strings.Contains(name, "@{") {
		return fmt.Errorf("branch name %q is invalid", name)
	}
	for _, c := range name {
		if c <= ' ' || c == 0x7f || strings.ContainsRune(":~^?*[\\", c) {
			return fmt.Errorf("branch name %q contains forbidden character %q", name, c)
		}
	}
	return nil
}

// ValidateURL checks that the remote URL can't be confused with an option.
func ValidateURL(url string) error {
	if url == "" {
		return fmt.Errorf("remote url is empty")
	}
	if strings.HasPrefix(url, "-") || strings.ContainsAny(url, " \t\r\n") {
		return fmt.Errorf("remote url %q is invalid", url)
	}
	return nil
}

// Clone builds `git clone -b <branch> -- <url> <dir>`.
func Clone(url, dir, branch string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"clone", "-b", branch, "--", url, dir}}
}

// RemoteList builds `git remote`.
func RemoteList(dir string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"remote"}, Dir: dir}
}

// RemoteAdd builds `git remote add <name> <url>`.
func RemoteAdd(dir, name, url string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"remote", "add", "--", name, url}, Dir: dir}
}

// Fetch builds `git fetch <remote>`.
func Fetch(dir, remote string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"fetch", remote}, Dir: dir}
}

// Checkout builds `git checkout <branch>`.
func Checkout(dir, branch string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"checkout", branch}, Dir: dir}
}

// ResetHard builds `git reset --hard <remote>/<branch>`.
func ResetHard(dir, remote, branch string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"reset", "--hard", remote + "/" + branch}, Dir: dir}
}

// Merge builds `git merge --no-ff -m <message> <branch>`.
func Merge(dir, branch, message string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"merge", "--no-ff", "-m", message, branch}, Dir: dir}
}

// MergeAbort builds `git merge --abort`.
func MergeAbort(dir string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"merge", "--abort"}, Dir: dir}
}

// Head builds `git rev-parse --verify HEAD`.
func Head(dir string) appOs.Cmd {
	return appOs.Cmd{Name: Binary, Args: []string{"rev-parse", "--verify", "HEAD"}, Dir: dir}
}

// Push builds `git push [-f] <remote> <local>:<remoteBranch>`.
func Push(dir, remote, local, remoteBranch string, force bool) appOs.Cmd {
	args := []string{"push"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, remote, local+":"+remoteBranch)
	return appOs.Cmd{Name: Binary, Args: args, Dir: dir}
}
