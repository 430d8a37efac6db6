package fields

import "strings"

// Account is a normalized (lowercase) wallet address. The empty string is the
// null identity: no account is connected.
type Account string

const Null Account = ""

// Normalize canonicalizes a raw address value. Non-string inputs map to the
// null identity; normalization is idempotent.
func Normalize(raw any) Account {
	s, ok := raw.(string)
	if !ok {
		return Null
	}
	return NormalizeAddress(s)
}

// NormalizeAddress lowercases an address string. Whitespace-only input is the
// null identity.
func NormalizeAddress(s string) Account {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null
	}
	return Account(strings.ToLower(s))
}

func (a Account) IsNull() bool {
	return a == Null
}

func (a Account) String() string {
	return string(a)
}

// Label returns a short display form of the account, e.g. "0xab12…89ef".
func (a Account) Label() string {
	if len(a) <= 10 {
		return string(a)
	}
	return string(a[:6]) + "…" + string(a[len(a)-4:])
}
