package svc

import (
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"testing"
)

func remoteNames(rs app.Remotes) []string {
	res := make([]string, len(rs))
	for i, r := range rs {
		res[i] = r.Name
	}
	return res
}

func TestResolveOrdersOriginFirst(t *testing.T) {
	s := NewRemotes("deploy-key")
	tests := []struct {
		name   string
		target app.Target
		stage  string
		want   []string
	}{
		{name: "direct", target: singleTarget(), stage: app.StageDirect, want: []string{"origin", "deploy"}},
		{name: "staging", target: pipelineTarget(), stage: app.StageStaging, want: []string{"origin", "deploy-stage"}},
		{name: "master", target: pipelineTarget(), stage: app.StageMaster, want: []string{"origin", "deploy-master", "deploy-stage"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := s.Resolve(tt.target, tt.stage)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			got := remoteNames(rs)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestResolveSeparatesCredentials(t *testing.T) {
	rs, err := NewRemotes("deploy-key").Resolve(pipelineTarget(), app.StageMaster)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	origin, _ := rs.ByName(app.RemoteOrigin)
	if origin.Credential.Name != "web" {
		t.Fatalf("expected origin to use the source key, got %q", origin.Credential.Name)
	}
	for _, name := range []string{app.RemoteDeployMaster, app.RemoteDeployStage} {
		r, ok := rs.ByName(name)
		if !ok {
			t.Fatalf("remote %s is missing", name)
		}
		if r.Credential.Name != DeployCredentialName || r.Credential.PrivateKey != "deploy-key" {
			t.Fatalf("expected %s to use the deploy key, got %+v", name, r.Credential)
		}
	}
}

func TestResolveMissingConfiguration(t *testing.T) {
	noStage := pipelineTarget()
	noStage.StageURL = ""
	tests := []struct {
		name   string
		key    app.DeployKey
		target app.Target
		stage  string
	}{
		{name: "deploy key", key: "", target: singleTarget(), stage: app.StageDirect},
		{name: "stage remote", key: "k", target: noStage, stage: app.StageStaging},
		{name: "stage remote for master", key: "k", target: noStage, stage: app.StageMaster},
		{name: "variant mismatch", key: "k", target: singleTarget(), stage: app.StageMaster},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRemotes(tt.key).Resolve(tt.target, tt.stage)
			if !errors.Is(err, errtype.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
