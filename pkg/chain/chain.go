package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cuemby/branchd/pkg/log"
)

// Config supplies everything Client needs to dial the chain and sign
// transactions. It may be constructed with zero values; in that case
// every chain-dependent call fails with UnavailableError rather than
// blocking controller startup.
type Config struct {
	RPCURL          string
	RegistryAddress string
	PrivateKeyHex   string
	TxTimeout       time.Duration
}

// Client is the on-chain Registry client. Dialing, ABI parsing, and
// signer derivation happen lazily on first use.
type Client struct {
	cfg Config

	initOnce sync.Once
	initErr  error

	ethClient   *ethclient.Client
	chainID     *big.Int
	registryABI abi.ABI
	registry    common.Address
	privateKey  *ecdsa.PrivateKey
	fromAddr    common.Address
}

// New constructs a Client. No network I/O happens here.
func New(cfg Config) *Client {
	if cfg.TxTimeout == 0 {
		cfg.TxTimeout = 30 * time.Second
	}
	return &Client{cfg: cfg}
}

// BranchHash derives the stable cross-restart identity for a branch:
// keccak256(repo_url + "/" + branch_name), hex-encoded without the 0x
// prefix so it is directly usable as a map key and a supervisor-name
// source.
func BranchHash(repoURL, branchName string) string {
	h := gethcrypto.Keccak256Hash([]byte(repoURL + "/" + branchName))
	return h.Hex()[2:]
}

// SupervisorName returns the first 16 hex characters of a branch hash,
// used as the process name by the supervisor.
func SupervisorName(branchHash string) string {
	if len(branchHash) < 16 {
		return branchHash
	}
	return branchHash[:16]
}

func (c *Client) ensureInit() error {
	c.initOnce.Do(func() {
		if c.cfg.RPCURL == "" || c.cfg.RegistryAddress == "" || c.cfg.PrivateKeyHex == "" {
			c.initErr = &UnavailableError{Reason: "RPC_URL, REGISTRY_ADDRESS, or CHAIN_PRIVATE_KEY not configured"}
			return
		}

		cli, err := ethclient.Dial(c.cfg.RPCURL)
		if err != nil {
			c.initErr = &TransientError{Op: "dial", Err: err}
			return
		}

		parsed, err := abi.JSON(strings.NewReader(registryABI))
		if err != nil {
			c.initErr = fmt.Errorf("parse registry abi: %w", err)
			return
		}

		pk, err := gethcrypto.HexToECDSA(strings.TrimPrefix(c.cfg.PrivateKeyHex, "0x"))
		if err != nil {
			c.initErr = fmt.Errorf("parse chain private key: %w", err)
			return
		}

		chainID, err := cli.ChainID(context.Background())
		if err != nil {
			c.initErr = &TransientError{Op: "chain_id", Err: err}
			return
		}

		c.ethClient = cli
		c.chainID = chainID
		c.registryABI = parsed
		c.registry = common.HexToAddress(c.cfg.RegistryAddress)
		c.privateKey = pk
		c.fromAddr = gethcrypto.PubkeyToAddress(pk.PublicKey)
	})
	return c.initErr
}

// Lookup resolves a branch_hash to its registered contract address. The
// zero address (and no error) means unregistered.
func (c *Client) Lookup(ctx context.Context, branchHash string) (common.Address, error) {
	if err := c.ensureInit(); err != nil {
		return common.Address{}, err
	}

	contract := bind.NewBoundContract(c.registry, c.registryABI, c.ethClient, c.ethClient, c.ethClient)
	var out []interface{}
	hashBytes, err := hashToBytes32(branchHash)
	if err != nil {
		return common.Address{}, err
	}

	callOpts := &bind.CallOpts{Context: ctx}
	err = contract.Call(callOpts, &out, "lookup", hashBytes)
	if err != nil {
		return common.Address{}, &TransientError{Op: "lookup", Err: err}
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("lookup: unexpected return shape")
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("lookup: unexpected return type")
	}
	return addr, nil
}

// Register sends a register(branch_hash) transaction, waits for it to
// be mined, then re-reads Lookup. A revert whose message signals the
// branch is already registered is treated as success; any other revert
// is fatal.
func (c *Client) Register(ctx context.Context, branchHash string) (common.Address, error) {
	if err := c.ensureInit(); err != nil {
		return common.Address{}, err
	}

	hashBytes, err := hashToBytes32(branchHash)
	if err != nil {
		return common.Address{}, err
	}

	log.WithComponent("chain").Debug().Str("branch_hash", branchHash).Msg("registering branch on-chain")

	nonce, err := c.ethClient.PendingNonceAt(ctx, c.fromAddr)
	if err != nil {
		return common.Address{}, &TransientError{Op: "nonce", Err: err}
	}
	gasPrice, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return common.Address{}, &TransientError{Op: "gas_price", Err: err}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return common.Address{}, fmt.Errorf("build transactor: %w", err)
	}
	auth.Nonce = big.NewInt(int64(nonce))
	auth.Value = big.NewInt(0)
	auth.GasPrice = gasPrice
	auth.GasLimit = 300000

	contract := bind.NewBoundContract(c.registry, c.registryABI, c.ethClient, c.ethClient, c.ethClient)
	tx, err := contract.Transact(auth, "register", hashBytes)
	if err != nil {
		if isAlreadyRegistered(err) {
			return c.Lookup(ctx, branchHash)
		}
		return common.Address{}, &RegisterError{Op: "register", Err: err}
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.TxTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.ethClient, tx)
	if err != nil {
		// A timed-out wait does not tell us whether the transaction
		// landed; re-reading the registry resolves the ambiguity
		// before the caller retries and double-registers.
		if addr, lookupErr := c.Lookup(ctx, branchHash); lookupErr == nil && addr != (common.Address{}) {
			return addr, nil
		}
		return common.Address{}, &TransientError{Op: "wait_mined", Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		if addr, lookupErr := c.Lookup(ctx, branchHash); lookupErr == nil && addr != (common.Address{}) {
			return addr, nil
		}
		return common.Address{}, &RegisterError{Op: "register", Err: fmt.Errorf("transaction reverted")}
	}

	return c.Lookup(ctx, branchHash)
}

func hashToBytes32(hexHash string) ([32]byte, error) {
	var out [32]byte
	h := common.HexToHash(hexHash)
	copy(out[:], h.Bytes())
	return out, nil
}

// isAlreadyRegistered recognizes the domain revert signal a branch_hash
// that is already present produces. The Registry ABI declares a custom
// AlreadyRegistered error; go-ethereum surfaces unmatched custom errors
// as a plain revert string, so this also matches on substring as a
// fallback for registries that revert with a require() message instead.
func isAlreadyRegistered(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "alreadyregistered") || strings.Contains(msg, "already registered")
}
