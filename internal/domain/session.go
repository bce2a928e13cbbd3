package domain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// WalletSession is an authorized binding between this application and a
// signing identity held by the wallet. It is created by the wallet connector
// once account access is granted and is read-only for everyone else.
type WalletSession struct {
	Account common.Address
	// Signer is the opaque signing capability granted by the wallet.
	// Mutating calls go through it; the session never holds key material.
	Signer TxSender
}

// TxSender is the signing half of the wallet capability: it signs the given
// call with the session's account and broadcasts it, returning the
// transaction hash.
type TxSender interface {
	SignAndSend(ctx context.Context, call TxCall) (common.Hash, error)
}

// TxCall is a mutating call prepared for the wallet to sign. Value and Data
// follow the usual transaction layout; Value is in base units.
type TxCall struct {
	From  common.Address
	To    common.Address
	Value string // hex-encoded base units, empty for zero
	Data  []byte
}

// Valid reports whether the session carries a usable account and signer.
func (s *WalletSession) Valid() bool {
	return s != nil && s.Signer != nil && s.Account != (common.Address{})
}

// ShortAccount renders the account in the familiar 0xabcd…ef01 display form.
func (s *WalletSession) ShortAccount() string {
	if s == nil {
		return ""
	}
	hex := s.Account.Hex()
	if len(hex) <= 10 {
		return hex
	}
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// ValidAddress reports whether raw is a well-formed hex address.
func ValidAddress(raw string) bool {
	return common.IsHexAddress(strings.TrimSpace(raw))
}
