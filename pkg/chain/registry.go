package chain

// registryABI is the Registry contract's interface: a single mapping
// from branch_hash to the contract address deployed for that branch.
// lookup is a view call; register is a state-changing call that reverts
// if branch_hash is already present.
const registryABI = `[
	{
		"type": "function",
		"name": "lookup",
		"stateMutability": "view",
		"inputs": [{"name": "branchHash", "type": "bytes32"}],
		"outputs": [{"name": "", "type": "address"}]
	},
	{
		"type": "function",
		"name": "register",
		"stateMutability": "nonpayable",
		"inputs": [{"name": "branchHash", "type": "bytes32"}],
		"outputs": [{"name": "", "type": "address"}]
	},
	{
		"type": "error",
		"name": "AlreadyRegistered",
		"inputs": [{"name": "branchHash", "type": "bytes32"}]
	}
]`
