package contract

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacrafters/atmgate/internal/domain"
)

type sequenceCaller struct {
	mu       sync.Mutex
	receipts []receiptStep
	calls    int
}

type receiptStep struct {
	receipt *types.Receipt
	err     error
}

func (s *sequenceCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (s *sequenceCaller) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.receipts[len(s.receipts)-1]
	if s.calls < len(s.receipts) {
		step = s.receipts[s.calls]
	}
	s.calls++
	return step.receipt, step.err
}

func TestWaitConfirmed(t *testing.T) {
	mined := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42)}
	caller := &sequenceCaller{receipts: []receiptStep{
		{err: ethereum.NotFound},
		{err: errors.New("connection reset")}, // transient, keeps polling
		{receipt: mined},
	}}

	confirmer := NewConfirmer(caller, time.Millisecond, time.Second)
	receipt, err := confirmer.WaitConfirmed(context.Background(), common.HexToHash("0xbeef"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), receipt.BlockNumber.Uint64())
	assert.GreaterOrEqual(t, caller.calls, 3)
}

func TestWaitConfirmedRevert(t *testing.T) {
	caller := &sequenceCaller{receipts: []receiptStep{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}},
	}}

	confirmer := NewConfirmer(caller, time.Millisecond, time.Second)
	_, err := confirmer.WaitConfirmed(context.Background(), common.HexToHash("0xbeef"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteCallRejected))
}

func TestWaitConfirmedTimeout(t *testing.T) {
	caller := &sequenceCaller{receipts: []receiptStep{{err: ethereum.NotFound}}}

	confirmer := NewConfirmer(caller, time.Millisecond, 20*time.Millisecond)
	_, err := confirmer.WaitConfirmed(context.Background(), common.HexToHash("0xbeef"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfirmationTimeout))
}

func TestWaitConfirmedCancelled(t *testing.T) {
	caller := &sequenceCaller{receipts: []receiptStep{{err: ethereum.NotFound}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	confirmer := NewConfirmer(caller, time.Millisecond, time.Second)
	_, err := confirmer.WaitConfirmed(ctx, common.HexToHash("0xbeef"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, domain.ErrConfirmationTimeout), "caller cancellation is not a confirmation timeout")
}