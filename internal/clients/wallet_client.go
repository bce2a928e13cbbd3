package clients

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/metacrafters/atmgate/internal/domain"
)

// EIP-1193: the wallet owner rejected the request.
const userRejectedCode = 4001

const dialTimeout = 10 * time.Second

// RPCWallet talks JSON-RPC to a wallet-managed endpoint (a MetaMask-style
// bridge or a node with managed accounts). It implements the wallet
// capability consumed by the connector: presence probing, account access
// requests, silent account listing and transaction signing.
type RPCWallet struct {
	rpc *rpc.Client
	eth *ethclient.Client
	url string
}

// DialWallet connects to the wallet RPC endpoint. Dialing alone does not
// prompt the user for anything.
func DialWallet(ctx context.Context, url string) (*RPCWallet, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrWalletUnavailable, "dial %s: %v", url, err)
	}
	return &RPCWallet{rpc: c, eth: ethclient.NewClient(c), url: url}, nil
}

// Eth exposes the typed read client sharing the same connection. Contract
// reads and receipt polling go through it.
func (w *RPCWallet) Eth() *ethclient.Client { return w.eth }

// URL returns the endpoint this wallet was dialed on.
func (w *RPCWallet) URL() string { return w.url }

// Close tears down the underlying connection.
func (w *RPCWallet) Close() {
	if w != nil && w.rpc != nil {
		w.rpc.Close()
	}
}

// IsPresent probes the endpoint with a chain id call. It never returns an
// error; an unreachable wallet is simply not present.
func (w *RPCWallet) IsPresent(ctx context.Context) bool {
	if w == nil || w.rpc == nil {
		return false
	}
	var id hexutil.Big
	return w.rpc.CallContext(ctx, &id, "eth_chainId") == nil
}

// RequestAccess asks the wallet to grant account access. The wallet may show
// a permission prompt to its owner; rejection surfaces as ErrUserRejected.
func (w *RPCWallet) RequestAccess(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, ClassifyRPCError(err)
	}
	return accounts, nil
}

// ListGrantedAccounts passively queries already-granted accounts without
// prompting. Used for silent reconnection on startup.
func (w *RPCWallet) ListGrantedAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := w.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, ClassifyRPCError(err)
	}
	return accounts, nil
}

// SignAndSend hands the prepared call to the wallet for signing and
// broadcast, returning the transaction hash. The wallet decides gas terms.
func (w *RPCWallet) SignAndSend(ctx context.Context, call domain.TxCall) (common.Hash, error) {
	arg := map[string]any{
		"from": call.From,
		"to":   call.To,
	}
	if call.Value != "" {
		arg["value"] = call.Value
	}
	if len(call.Data) > 0 {
		arg["data"] = hexutil.Bytes(call.Data)
	}

	var hash common.Hash
	if err := w.rpc.CallContext(ctx, &hash, "eth_sendTransaction", arg); err != nil {
		return common.Hash{}, ClassifyRPCError(err)
	}
	return hash, nil
}

// EncodeValue renders a base-unit value in the hex form wallets expect.
func EncodeValue(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return ""
	}
	return hexutil.EncodeBig(v)
}

// ClassifyRPCError sorts JSON-RPC failures into the domain taxonomy:
// EIP-1193 code 4001 is a user denial, typed rpc errors are contract-level
// rejections, everything else is transport loss.
func ClassifyRPCError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.ErrorCode() == userRejectedCode {
			return errors.Wrap(domain.ErrUserRejected, rpcErr.Error())
		}
		return errors.Wrap(domain.ErrRemoteCallRejected, rpcErr.Error())
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return errors.Wrap(domain.ErrRemoteCallRejected, err.Error())
	}
	return errors.Wrap(domain.ErrNetwork, err.Error())
}
