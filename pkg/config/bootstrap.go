package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/branchd/pkg/controller"
)

type bootstrapFile struct {
	Branches []bootstrapBranch `yaml:"branches"`
}

type bootstrapBranch struct {
	RepoURL    string `yaml:"repo_url"`
	BranchName string `yaml:"branch_name"`
}

// LoadBootstrapList reads the YAML file at path and returns the
// (repo, branch) pairs ReconcileStartup must converge even with an empty
// database and empty workspace disk. An empty path is not an error: it
// means the deployment relies on metric self-healing and the DB's own
// agent rows to recover instead of a bootstrap list.
func LoadBootstrapList(path string) ([]controller.BootstrapEntry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bootstrap file: %w", err)
	}

	var parsed bootstrapFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing bootstrap file: %w", err)
	}

	entries := make([]controller.BootstrapEntry, 0, len(parsed.Branches))
	for _, b := range parsed.Branches {
		if b.RepoURL == "" || b.BranchName == "" {
			return nil, fmt.Errorf("bootstrap entry missing repo_url or branch_name: %+v", b)
		}
		entries = append(entries, controller.BootstrapEntry{
			RepoURL:    b.RepoURL,
			BranchName: b.BranchName,
		})
	}
	return entries, nil
}
