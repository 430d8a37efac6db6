package provider

import (
	"context"
	"fmt"
)

// Wallet RPC methods and events, per the injected-provider contract.
const (
	// MethodAccounts lists already-authorized accounts without prompting.
	MethodAccounts = "eth_accounts"
	// MethodRequestAccounts prompts the user to authorize the connection.
	MethodRequestAccounts = "eth_requestAccounts"
)

// CodeRequestPending is the provider error code for an overlapping connection
// prompt.
const CodeRequestPending = -32002

// RPCError is a structured error reported by the wallet provider itself.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider rpc error %d: %s", e.Code, e.Message)
}

// WalletProvider is the injected wallet capability. A context without a wallet
// simply has no implementation (the adapter treats nil as absence). The first
// element of a returned account list is the primary account.
type WalletProvider interface {
	Request(ctx context.Context, method string) ([]string, error)
	// OnAccountsChanged registers a listener for account-change
	// notifications; an empty list means the user disconnected all accounts.
	// The returned action removes the listener and is always safe to call.
	OnAccountsChanged(fn func(accounts []string)) (remove func())
}
