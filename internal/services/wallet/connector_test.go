package wallet

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metacrafters/atmgate/internal/domain"
)

type fakeCapability struct {
	present        bool
	granted        []common.Address
	requestErr     error
	listErr        error
	requestPrompts int
}

func (f *fakeCapability) IsPresent(context.Context) bool { return f.present }

func (f *fakeCapability) RequestAccess(context.Context) ([]common.Address, error) {
	f.requestPrompts++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.granted, nil
}

func (f *fakeCapability) ListGrantedAccounts(context.Context) ([]common.Address, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.granted, nil
}

func (f *fakeCapability) SignAndSend(context.Context, domain.TxCall) (common.Hash, error) {
	return common.Hash{}, nil
}

var testAccount = common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")

func TestDetect(t *testing.T) {
	ctx := context.Background()

	assert.True(t, NewConnector(&fakeCapability{present: true}, zap.NewNop()).Detect(ctx))
	assert.False(t, NewConnector(&fakeCapability{}, zap.NewNop()).Detect(ctx))
	assert.False(t, NewConnector(nil, zap.NewNop()).Detect(ctx))
}

func TestRequestSession(t *testing.T) {
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	connector := NewConnector(capability, zap.NewNop())

	session, err := connector.RequestSession(context.Background())
	require.NoError(t, err)
	require.True(t, session.Valid())
	assert.Equal(t, testAccount, session.Account)
	assert.Equal(t, 1, capability.requestPrompts, "at most one prompt per call")
}

func TestRequestSessionWalletAbsent(t *testing.T) {
	connector := NewConnector(&fakeCapability{}, zap.NewNop())

	session, err := connector.RequestSession(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWalletUnavailable))
	assert.Nil(t, session)
}

func TestRequestSessionRejected(t *testing.T) {
	tests := []struct {
		name       string
		capability *fakeCapability
	}{
		{name: "Explicit rejection", capability: &fakeCapability{present: true, requestErr: domain.ErrUserRejected}},
		{name: "No accounts granted", capability: &fakeCapability{present: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			connector := NewConnector(tc.capability, zap.NewNop())
			_, err := connector.RequestSession(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUserRejected))
		})
	}
}

func TestCurrentAccountsSilentReconnect(t *testing.T) {
	capability := &fakeCapability{present: true, granted: []common.Address{testAccount}}
	connector := NewConnector(capability, zap.NewNop())

	session, err := connector.CurrentAccounts(context.Background())
	require.NoError(t, err)
	require.True(t, session.Valid())
	assert.Equal(t, testAccount, session.Account)
	assert.Zero(t, capability.requestPrompts, "silent reconnect must never prompt")
}

func TestCurrentAccountsNothingGranted(t *testing.T) {
	connector := NewConnector(&fakeCapability{present: true}, zap.NewNop())

	session, err := connector.CurrentAccounts(context.Background())
	require.NoError(t, err, "no granted accounts is an answer, not an error")
	assert.Nil(t, session)
}
