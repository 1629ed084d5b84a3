package config

import (
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/pkg/git"
	"gopkg.in/yaml.v3"
	"os"
	"sort"
	"strings"
)

// FileTarget is an entry of the targets file. Every field may be overridden by the environment.
type FileTarget struct {
	Name      string `yaml:"name"`
	Variant   string `yaml:"variant"`
	SourceURL string `yaml:"sourceUrl"`
	SSHKey    string `yaml:"sshKey"`
	DeployURL string `yaml:"deployUrl"`
	StageURL  string `yaml:"stageUrl"`
	MasterURL string `yaml:"masterUrl"`
	Branches  struct {
		Deploy  string `yaml:"deploy"`
		Next    string `yaml:"next"`
		Staging string `yaml:"staging"`
		Master  string `yaml:"master"`
	} `yaml:"branches"`
}

type targetsFile struct {
	Targets []FileTarget `yaml:"targets"`
}

// ParseTargets decodes the targets file content.
func ParseTargets(b []byte) ([]FileTarget, error) {
	var f targetsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: parse targets: %v", errtype.ErrConfiguration, err)
	}
	for i, t := range f.Targets {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: target #%d has no name", errtype.ErrConfiguration, i)
		}
	}
	return f.Targets, nil
}

// NewTargets creates the target lookup over the environment and the optional targets file.
func NewTargets(lookup Lookup, file string, apps []string) (app.TargetRepo, error) {
	s := Targets{env: env{lookup: lookup}, file: make(map[string]FileTarget), apps: apps}
	if file == "" {
		return s, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrConfiguration, err), errors.Context{
			Path:   "config.NewTargets.read",
			Params: errors.Params{"file": file},
		})
	}
	entries, err := ParseTargets(b)
	if err != nil {
		return nil, errors.WrapContext(err, errors.Context{
			Path:   "config.NewTargets.parse",
			Params: errors.Params{"file": file},
		})
	}
	for _, t := range entries {
		s.file[t.Name] = t
	}
	return s, nil
}

// Targets resolves the targets on every lookup, so the key files and the environment may change at runtime.
type Targets struct {
	env  env
	file map[string]FileTarget
	apps []string
}

// FindByName returns the validated target.
// A target without the source repository is reported as errtype.ErrNotFound,
// a target missing any other required value as errtype.ErrConfiguration.
func (s Targets) FindByName(_ context.Context, name string) (app.Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return app.Target{}, errors.WrapContext(fmt.Errorf("%w: target name is empty", errtype.ErrNotFound), errors.Context{
			Path: "config.Targets.FindByName",
		})
	}
	t, err := s.build(name)
	if err != nil {
		return app.Target{}, errors.WrapContext(err, errors.Context{
			Path:   "config.Targets.FindByName",
			Params: errors.Params{"target": name},
		})
	}
	return t, nil
}

// FindAll returns the complete targets listed by the apps setting and the targets file, sorted by name.
func (s Targets) FindAll(_ context.Context) ([]app.Target, error) {
	names := make(map[string]bool)
	for _, n := range s.apps {
		names[n] = true
	}
	for n := range s.file {
		names[n] = true
	}
	res := make([]app.Target, 0, len(names))
	for n := range names {
		t, err := s.build(n)
		if err != nil {
			continue
		}
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})
	return res, nil
}

// value returns the variable <APP>_<suffix>, trying the name as is and in the upper snake case,
// and falls back to the file value.
func (s Targets) value(name, suffix, fileValue string) string {
	for _, prefix := range envPrefixes(name) {
		if v := s.env.get(prefix+"_"+suffix, ""); v != "" {
			return v
		}
	}
	return strings.TrimSpace(fileValue)
}

func envPrefixes(name string) []string {
	upper := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if upper == name {
		return []string{name}
	}
	return []string{name, upper}
}

func (s Targets) build(name string) (app.Target, error) {
	f := s.file[name]
	t := app.Target{
		Name:      name,
		SourceURL: s.value(name, "GIT_REPO", f.SourceURL),
		DeployURL: s.value(name, "HEROKU_REPO", f.DeployURL),
		StageURL:  s.value(name, "HEROKU_STAGE_REPO", f.StageURL),
		MasterURL: s.value(name, "HEROKU_MASTER_REPO", f.MasterURL),
	}
	if t.SourceURL == "" {
		return t, fmt.Errorf("%w: target %s is not configured", errtype.ErrNotFound, name)
	}
	t.Variant = strings.ToLower(strings.TrimSpace(f.Variant))
	if t.Variant == "" {
		t.Variant = app.TargetVariantSingle
		if t.StageURL != "" || t.MasterURL != "" {
			t.Variant = app.TargetVariantPipeline
		}
	}
	var required map[string]string
	switch t.Variant {
	case app.TargetVariantSingle:
		t.Branches.Deploy = orDefault(s.value(name, "GIT_BRANCH", f.Branches.Deploy), app.DefaultDeployBranch)
		required = map[string]string{"deploy url": t.DeployURL}
	case app.TargetVariantPipeline:
		t.Branches.Next = orDefault(s.value(name, "NEXT_BRANCH", f.Branches.Next), app.DefaultNextBranch)
		t.Branches.Staging = orDefault(s.value(name, "STAGING_BRANCH", f.Branches.Staging), app.DefaultStagingBranch)
		t.Branches.Master = orDefault(s.value(name, "MASTER_BRANCH", f.Branches.Master), app.DefaultMasterBranch)
		required = map[string]string{"stage url": t.StageURL, "master url": t.MasterURL}
	default:
		return t, fmt.Errorf("%w: target %s has unknown variant %q", errtype.ErrConfiguration, name, t.Variant)
	}
	keyValue := s.value(name, "SSH_KEY", f.SSHKey)
	required["ssh key"] = keyValue
	for field, v := range required {
		if v == "" {
			return t, fmt.Errorf("%w: target %s has no %s", errtype.ErrConfiguration, name, field)
		}
	}
	for _, u := range []string{t.SourceURL, t.DeployURL, t.StageURL, t.MasterURL} {
		if u == "" {
			continue
		}
		if err := git.ValidateURL(u); err != nil {
			return t, fmt.Errorf("%w: target %s: %v", errtype.ErrConfiguration, name, err)
		}
	}
	for _, b := range []string{t.Branches.Deploy, t.Branches.Next, t.Branches.Staging, t.Branches.Master} {
		if b == "" {
			continue
		}
		if err := git.ValidateBranch(b); err != nil {
			return t, fmt.Errorf("%w: target %s: %v", errtype.ErrConfiguration, name, err)
		}
	}
	key, err := ReadKey(keyValue)
	if err != nil {
		return t, fmt.Errorf("target %s ssh key: %w", name, err)
	}
	t.SourceKey = app.Credential{Name: name, PrivateKey: key}
	return t, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
