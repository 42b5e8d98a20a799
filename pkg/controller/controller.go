package controller

import (
	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/crypto"
	"github.com/cuemby/branchd/pkg/log"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/supervisor"
	"github.com/cuemby/branchd/pkg/workspace"
)

// Config carries everything the Controller needs beyond its component
// dependencies: values that end up in every worker's environment.
type Config struct {
	BackendURL string
	RPCURL     string
}

// Controller wires the Store, Crypto, Chain, Workspace, and Supervisor
// components together and is the only component with cross-cutting
// knowledge of all five.
type Controller struct {
	Store      store.Store
	Crypto     *crypto.Box
	Chain      *chain.Client
	Workspace  *workspace.Manager
	Supervisor *supervisor.Manager
	Config     Config

	locks *branchLocks
}

// New builds a Controller over already-constructed components.
func New(s store.Store, box *crypto.Box, ch *chain.Client, ws *workspace.Manager, sup *supervisor.Manager, cfg Config) *Controller {
	return &Controller{
		Store:      s,
		Crypto:     box,
		Chain:      ch,
		Workspace:  ws,
		Supervisor: sup,
		Config:     cfg,
		locks:      newBranchLocks(),
	}
}

var logger = log.WithComponent("controller")
