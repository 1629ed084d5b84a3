package app

import "context"

const (
	// TargetVariantSingle defines a target that deploys one branch to one deployment remote.
	TargetVariantSingle = "single"
	// TargetVariantPipeline defines a target that promotes next -> staging -> master across two deployment remotes.
	TargetVariantPipeline = "pipeline"

	// DefaultDeployBranch is the branch deployed by single targets unless overridden.
	DefaultDeployBranch = "master"
	// DefaultNextBranch is the integration branch of pipeline targets.
	DefaultNextBranch = "next"
	// DefaultStagingBranch is the staging branch of pipeline targets.
	DefaultStagingBranch = "staging"
	// DefaultMasterBranch is the production branch of pipeline targets.
	DefaultMasterBranch = "master"
)

// ApiAccessKey is a data type for storing the webhook access key, used for DI.
type ApiAccessKey string

// WebhookSecret is a data type for storing the HMAC secret of the webhook payloads, used for DI.
type WebhookSecret string

// DeployKey is a data type for storing the private key used for every push to a deployment remote, used for DI.
type DeployKey string

// Credential is a named SSH private key.
type Credential struct {
	Name       string `json:"name"`
	PrivateKey string `json:"-"`
}

// Branches holds the branch names of a target.
// Single targets use Deploy only, pipeline targets use Next, Staging and Master.
type Branches struct {
	Deploy  string `json:"deploy,omitempty"`
	Next    string `json:"next,omitempty"`
	Staging string `json:"staging,omitempty"`
	Master  string `json:"master,omitempty"`
}

// Target is a validated deployment target (one logical application).
type Target struct {
	Name      string     `json:"name"`
	Variant   string     `json:"variant"`
	SourceURL string     `json:"-"`
	SourceKey Credential `json:"-"`
	DeployURL string     `json:"-"`
	StageURL  string     `json:"-"`
	MasterURL string     `json:"-"`
	Branches  Branches   `json:"branches"`
}

// CloneBranch returns the branch that is checked out right after cloning the source repository.
func (t Target) CloneBranch() string {
	if t.Variant == TargetVariantSingle {
		return t.Branches.Deploy
	}
	return t.Branches.Master
}

// TargetRepo describes the lookup of the configured targets.
type TargetRepo interface {
	FindByName(ctx context.Context, name string) (Target, error)
	FindAll(ctx context.Context) ([]Target, error)
}
