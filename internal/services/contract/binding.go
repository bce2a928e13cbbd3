// Package contract binds a wallet session to the deployed ledger contract
// and exposes its remote methods with responses decoded at the boundary.
package contract

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/metacrafters/atmgate/internal/clients"
	"github.com/metacrafters/atmgate/internal/domain"
)

// EthCaller is the read half of the ledger network connection. Satisfied by
// *ethclient.Client.
type EthCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Binding is a callable proxy to the ledger contract, bound to the signing
// identity of exactly one wallet session. It must be recreated whenever the
// session changes.
type Binding struct {
	address common.Address
	abi     abi.ABI
	session *domain.WalletSession
	caller  EthCaller
}

// Bind constructs the proxy. Pure given a valid session and the fixed
// contract address; fails with ErrBinding when the session is absent or
// revoked.
func Bind(session *domain.WalletSession, address common.Address, caller EthCaller) (*Binding, error) {
	if !session.Valid() {
		return nil, errors.Wrap(domain.ErrBinding, "no valid wallet session")
	}
	if caller == nil {
		return nil, errors.Wrap(domain.ErrBinding, "no ledger connection")
	}

	parsed, err := abi.JSON(strings.NewReader(ledgerABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse ledger ABI")
	}

	return &Binding{
		address: address,
		abi:     parsed,
		session: session,
		caller:  caller,
	}, nil
}

// Session returns the wallet session this binding was constructed with.
func (b *Binding) Session() *domain.WalletSession { return b.session }

// Address returns the bound contract address.
func (b *Binding) Address() common.Address { return b.address }

// BoundTo reports whether the binding still belongs to the given session.
// The app tears the binding down and rebinds when this turns false.
func (b *Binding) BoundTo(session *domain.WalletSession) bool {
	return b != nil && session != nil && b.session.Account == session.Account
}

// GetBalance reads the account's contract balance in base units.
func (b *Binding) GetBalance(ctx context.Context) (*big.Int, error) {
	out, err := b.call(ctx, "getBalance")
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	if err := b.abi.UnpackIntoInterface(&balance, "getBalance", out); err != nil {
		return nil, errors.Wrap(domain.ErrDecode, err.Error())
	}
	if balance == nil || balance.Sign() < 0 {
		return nil, errors.Wrap(domain.ErrDecode, "balance out of range")
	}
	return balance, nil
}

// activityTuple mirrors the on-chain record layout.
type activityTuple struct {
	Action    uint8
	Amount    *big.Int
	Recipient common.Address
	Timestamp *big.Int
}

// GetRecentActivity reads the transaction history, most recent first as
// returned by the contract, decoded into typed records. Malformed tuples
// fail the whole read with ErrDecode rather than surfacing ambiguous values.
func (b *Binding) GetRecentActivity(ctx context.Context) ([]domain.ActivityRecord, error) {
	out, err := b.call(ctx, "getRecentActivity")
	if err != nil {
		return nil, err
	}

	var raw []activityTuple
	if err := b.abi.UnpackIntoInterface(&raw, "getRecentActivity", out); err != nil {
		return nil, errors.Wrap(domain.ErrDecode, err.Error())
	}

	records := make([]domain.ActivityRecord, 0, len(raw))
	for _, t := range raw {
		record, err := decodeActivity(t)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeActivity(t activityTuple) (domain.ActivityRecord, error) {
	action := domain.Action(t.Action)
	switch action {
	case domain.ActionDeposit, domain.ActionWithdraw, domain.ActionTransfer:
	default:
		return domain.ActivityRecord{}, errors.Wrapf(domain.ErrDecode, "unknown action code %d", t.Action)
	}
	if t.Amount == nil || t.Amount.Sign() < 0 {
		return domain.ActivityRecord{}, errors.Wrap(domain.ErrDecode, "activity amount out of range")
	}
	if t.Timestamp == nil || !t.Timestamp.IsInt64() {
		return domain.ActivityRecord{}, errors.Wrap(domain.ErrDecode, "activity timestamp out of range")
	}

	record := domain.ActivityRecord{
		Action:    action,
		Amount:    domain.FromBaseUnits(t.Amount),
		Timestamp: time.Unix(t.Timestamp.Int64(), 0).UTC(),
	}
	if action == domain.ActionTransfer {
		recipient := t.Recipient
		record.Recipient = &recipient
	}
	return record, nil
}

// Deposit submits a deposit of amount base units. Returns the transaction
// hash; confirmation is a separate wait.
func (b *Binding) Deposit(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return b.submit(ctx, "deposit", nil, amount)
}

// Withdraw submits a withdrawal of amount base units.
func (b *Binding) Withdraw(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return b.submit(ctx, "withdraw", nil, amount)
}

// Transfer submits a transfer of amount base units to recipient.
func (b *Binding) Transfer(ctx context.Context, recipient common.Address, amount *big.Int) (common.Hash, error) {
	return b.submit(ctx, "transfer", nil, recipient, amount)
}

func (b *Binding) call(ctx context.Context, method string, args ...any) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	out, err := b.caller.CallContract(ctx, ethereum.CallMsg{
		From: b.session.Account,
		To:   &b.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, clients.ClassifyRPCError(err)
	}
	return out, nil
}

func (b *Binding) submit(ctx context.Context, method string, value *big.Int, args ...any) (common.Hash, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "pack %s", method)
	}

	return b.session.Signer.SignAndSend(ctx, domain.TxCall{
		From:  b.session.Account,
		To:    b.address,
		Value: clients.EncodeValue(value),
		Data:  data,
	})
}
