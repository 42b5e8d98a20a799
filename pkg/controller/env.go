package controller

import "github.com/cuemby/branchd/pkg/types"

// buildEnv assembles the environment a worker process is started with:
// identity/wiring values the controller derives itself, overlaid with
// the agent's decrypted secrets. Secrets win on key collision so an
// operator can override any derived value via a secret of the same
// name.
func (c *Controller) buildEnv(a *types.Agent, secrets map[string]string) map[string]string {
	env := map[string]string{
		"AGENT_CONTRACT_ADDRESS": a.ContractAddress,
		"REPO_URL":               a.RepoURL,
		"BRANCH_NAME":            a.BranchName,
		"BACKEND_URL":            c.Config.BackendURL,
		"RPC_URL":                c.Config.RPCURL,
	}
	for k, v := range secrets {
		env[k] = v
	}
	return env
}
