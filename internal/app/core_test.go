package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
	"github.com/metacrafters/atmgate/internal/services/executor"
	"github.com/metacrafters/atmgate/internal/services/refresher"
	"github.com/metacrafters/atmgate/internal/services/wallet"
	"github.com/metacrafters/atmgate/internal/storage/activitylog"
	"github.com/metacrafters/atmgate/internal/viewstate"
)

var testAccount = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")

type fakeCapability struct {
	present bool
	granted []common.Address
	reqErr  error
}

func (f *fakeCapability) IsPresent(context.Context) bool { return f.present }

func (f *fakeCapability) RequestAccess(context.Context) ([]common.Address, error) {
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return f.granted, nil
}

func (f *fakeCapability) ListGrantedAccounts(context.Context) ([]common.Address, error) {
	return f.granted, nil
}

func (f *fakeCapability) SignAndSend(context.Context, domain.TxCall) (common.Hash, error) {
	return common.HexToHash("0xbeef"), nil
}

type fakeLedger struct {
	balance *big.Int
	records []domain.ActivityRecord
}

func (f *fakeLedger) GetBalance(context.Context) (*big.Int, error) { return f.balance, nil }

func (f *fakeLedger) GetRecentActivity(context.Context) ([]domain.ActivityRecord, error) {
	return f.records, nil
}

func (f *fakeLedger) Deposit(context.Context, *big.Int) (common.Hash, error) {
	return common.HexToHash("0xbeef"), nil
}

func (f *fakeLedger) Withdraw(context.Context, *big.Int) (common.Hash, error) {
	return common.HexToHash("0xbeef"), nil
}

func (f *fakeLedger) Transfer(context.Context, common.Address, *big.Int) (common.Hash, error) {
	return common.HexToHash("0xbeef"), nil
}

type instantConfirmer struct{}

func (instantConfirmer) WaitConfirmed(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)}, nil
}

func newTestCore(t *testing.T, capability wallet.Capability, ledger executor.Ledger) (*Core, *viewstate.Store, *activitylog.WALStore) {
	t.Helper()

	view := viewstate.NewStore(nil)
	refresh := refresher.New(view, zap.NewNop())
	exec := executor.New(instantConfirmer{}, refresh, view, zap.NewNop())
	connector := wallet.NewConnector(capability, zap.NewNop())

	log, err := activitylog.NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	binder := func(session *domain.WalletSession) (executor.Ledger, error) {
		if ledger == nil {
			return nil, errors.Wrap(domain.ErrBinding, "no ledger")
		}
		return ledger, nil
	}

	return NewCore(connector, binder, exec, refresh, view, log, zap.NewNop()), view, log
}

func TestConnect(t *testing.T) {
	ledger := &fakeLedger{
		balance: big.NewInt(5e17),
		records: []domain.ActivityRecord{
			{Action: domain.ActionDeposit, Amount: decimal.NewFromInt(1), Timestamp: time.Now().UTC().Truncate(time.Second)},
		},
	}
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	core, view, log := newTestCore(t, capability, ledger)

	require.NoError(t, core.Connect(context.Background()))

	snap := view.Snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, testAccount.Hex(), snap.Account)
	assert.Equal(t, "0.5", snap.Balance)
	require.Len(t, snap.Activities, 1)

	// the refreshed history was persisted for replay
	entries, err := log.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionDeposit, entries[0].Record.Action)
}

func TestConnectRejected(t *testing.T) {
	capability := &fakeCapability{present: true, reqErr: domain.ErrUserRejected}
	core, view, _ := newTestCore(t, capability, &fakeLedger{balance: big.NewInt(0)})

	err := core.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUserRejected))
	assert.False(t, view.Snapshot().Connected)
	assert.NotEmpty(t, view.Snapshot().LastError)
}

func TestConnectBinderFailure(t *testing.T) {
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	core, view, _ := newTestCore(t, capability, nil)

	err := core.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBinding))
	assert.False(t, view.Snapshot().Connected)
}

func TestTryReconnect(t *testing.T) {
	ledger := &fakeLedger{balance: big.NewInt(1e18)}

	t.Run("Granted session restored silently", func(t *testing.T) {
		capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
		core, view, _ := newTestCore(t, capability, ledger)

		require.NoError(t, core.TryReconnect(context.Background()))
		assert.True(t, view.Snapshot().Connected)
	})

	t.Run("Nothing granted stays disconnected", func(t *testing.T) {
		capability := &fakeCapability{present: true}
		core, view, _ := newTestCore(t, capability, ledger)

		require.NoError(t, core.TryReconnect(context.Background()))
		assert.False(t, view.Snapshot().Connected)
	})

	t.Run("Wallet absent is an error", func(t *testing.T) {
		core, _, _ := newTestCore(t, &fakeCapability{}, ledger)

		err := core.TryReconnect(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrWalletUnavailable))
	})
}

func TestDisconnect(t *testing.T) {
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	core, view, _ := newTestCore(t, capability, &fakeLedger{balance: big.NewInt(1e18)})

	require.NoError(t, core.Connect(context.Background()))
	core.Disconnect()

	assert.Nil(t, core.Binding())
	snap := view.Snapshot()
	assert.False(t, snap.Connected)
	assert.Empty(t, snap.Balance)
}

func TestExecuteWithoutSession(t *testing.T) {
	core, view, _ := newTestCore(t, &fakeCapability{present: true}, &fakeLedger{})

	err := core.Deposit(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBinding))
	assert.NotEmpty(t, view.Snapshot().LastError)
}

func TestDepositPersistsActivity(t *testing.T) {
	base := time.Now().UTC().Truncate(time.Second)
	ledger := &fakeLedger{
		balance: big.NewInt(1e18),
		records: []domain.ActivityRecord{
			{Action: domain.ActionDeposit, Amount: decimal.NewFromInt(1), Timestamp: base},
		},
	}
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	core, view, log := newTestCore(t, capability, ledger)

	require.NoError(t, core.Connect(context.Background()))

	// a second deposit confirms and surfaces a new record
	ledger.balance = big.NewInt(2e18)
	ledger.records = append([]domain.ActivityRecord{
		{Action: domain.ActionDeposit, Amount: decimal.NewFromInt(1), Timestamp: base.Add(time.Minute)},
	}, ledger.records...)

	require.NoError(t, core.Deposit(context.Background(), "1"))

	assert.Equal(t, "2", view.Snapshot().Balance)

	entries, err := log.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "only the unseen record is appended on the second refresh")
	assert.True(t, entries[0].Record.Timestamp.Before(entries[1].Record.Timestamp), "replay order matches ledger order")
}

func TestSameBlockActivityPersisted(t *testing.T) {
	base := time.Now().UTC().Truncate(time.Second)
	ledger := &fakeLedger{
		balance: big.NewInt(1e18),
		records: []domain.ActivityRecord{
			{Action: domain.ActionDeposit, Amount: decimal.NewFromInt(1), Timestamp: base},
		},
	}
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	core, _, log := newTestCore(t, capability, ledger)

	require.NoError(t, core.Connect(context.Background()))

	// the second deposit mines into the same block as the first, so both
	// records carry the same timestamp
	ledger.balance = big.NewInt(2e18)
	ledger.records = append([]domain.ActivityRecord{
		{Action: domain.ActionDeposit, Amount: decimal.NewFromInt(2), Timestamp: base},
	}, ledger.records...)

	require.NoError(t, core.Deposit(context.Background(), "1"))

	entries, err := log.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "a sibling sharing the newest timestamp is not skipped")
	assert.True(t, decimal.NewFromInt(1).Equal(entries[0].Record.Amount))
	assert.True(t, decimal.NewFromInt(2).Equal(entries[1].Record.Amount))

	// re-running the refresh appends nothing
	require.NoError(t, core.Deposit(context.Background(), "1"))
	entries, err = log.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "already-persisted records are not duplicated")
}
