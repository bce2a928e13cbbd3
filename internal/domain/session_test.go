package domain

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

type nopSigner struct{}

func (nopSigner) SignAndSend(context.Context, TxCall) (common.Hash, error) {
	return common.Hash{}, nil
}

func TestWalletSessionValid(t *testing.T) {
	account := common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")

	var nilSession *WalletSession
	assert.False(t, nilSession.Valid())
	assert.False(t, (&WalletSession{Account: account}).Valid())
	assert.False(t, (&WalletSession{Signer: nopSigner{}}).Valid())
	assert.True(t, (&WalletSession{Account: account, Signer: nopSigner{}}).Valid())
}

func TestShortAccount(t *testing.T) {
	session := &WalletSession{Account: common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")}
	assert.Equal(t, "0x5B38…ddC4", session.ShortAccount())

	var nilSession *WalletSession
	assert.Equal(t, "", nilSession.ShortAccount())
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"))
	assert.True(t, ValidAddress(" 0x5B38Da6a701c568545dCfcB03FcB875f56beddC4 "))
	assert.False(t, ValidAddress("0x5B38"))
	assert.False(t, ValidAddress("not-an-address"))
	assert.False(t, ValidAddress(""))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrNetwork))
	assert.True(t, Retryable(ErrConfirmationTimeout))
	assert.False(t, Retryable(ErrUserRejected))
	assert.False(t, Retryable(ErrInvalidAmount))
	assert.False(t, Retryable(nil))
}
