// Package address validates the textual format of Kaspa addresses.
//
// Validation is a fixed sequence of format checks on the network prefix and
// the bech32-style payload. It never touches the network and holds no state,
// so Validate is safe to call from any goroutine.
package address

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kaspanet/kaspad/util"
)

// Payload length bounds, inclusive.
const (
	MinPayloadLen = 50
	MaxPayloadLen = 70
)

// Reason names why an address was rejected.
type Reason string

const (
	MissingPrefix       Reason = "missing_prefix"
	UnknownPrefix       Reason = "unknown_prefix"
	InvalidLength       Reason = "invalid_length"
	InvalidCharacters   Reason = "invalid_characters"
	ForbiddenCharacters Reason = "forbidden_characters"
)

// prefixes lists the recognised network prefixes in display order.
var prefixes = []struct {
	prefix  string
	network string
}{
	{"kaspa", "mainnet"},
	{"kaspatest", "testnet"},
	{"kaspasim", "simnet"},
	{"kaspadev", "devnet"},
}

// forbidden are alphanumerics excluded from the bech32 alphabet.
const forbidden = "1bio"

// Result is the outcome of Validate. On failure only Valid, Reason and Error
// are set.
type Result struct {
	Valid       bool   `json:"valid"`
	Network     string `json:"network,omitempty"`
	Prefix      string `json:"prefix,omitempty"`
	Payload     string `json:"payload,omitempty"`
	FullAddress string `json:"fullAddress,omitempty"`

	// ChecksumValid reports whether kaspad can decode the address, checksum
	// included. It is informational and never affects Valid.
	ChecksumValid bool   `json:"checksumValid,omitempty"`
	AddressType   string `json:"addressType,omitempty"`

	Reason Reason `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Error is a rejected address as a Go error.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string { return e.Message }

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Reason: r.Reason, Message: r.Error}
}

// IsReason reports whether err is an address rejection with the given reason.
func IsReason(err error, reason Reason) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Reason == reason
}

// Prefixes returns the recognised network prefixes.
func Prefixes() []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p.prefix
	}
	return out
}

// NetworkFor maps a prefix to its network name.
func NetworkFor(prefix string) (string, bool) {
	for _, p := range prefixes {
		if p.prefix == prefix {
			return p.network, true
		}
	}
	return "", false
}

// Validate checks address against the Kaspa address format. Checks run in a
// fixed order and the first failure wins.
func Validate(address string) Result {
	if !strings.Contains(address, ":") {
		return reject(MissingPrefix, "Missing network prefix (should start with 'kaspa:', 'kaspatest:', etc.)")
	}

	prefix, payload, _ := strings.Cut(address, ":")

	network, ok := NetworkFor(prefix)
	if !ok {
		return reject(UnknownPrefix, fmt.Sprintf("Invalid network prefix '%s'. Valid prefixes: %s",
			prefix, strings.Join(Prefixes(), ", ")))
	}

	if n := utf8.RuneCountInString(payload); n < MinPayloadLen || n > MaxPayloadLen {
		return reject(InvalidLength, "Address length is invalid for Kaspa format")
	}

	if !isLowerAlnum(payload) {
		return reject(InvalidCharacters, "Address contains invalid characters for bech32 format")
	}

	// Overlaps with the stricter bech32 charset but keeps its own message.
	if strings.ContainsAny(payload, forbidden) {
		return reject(ForbiddenCharacters, "Address contains forbidden bech32 characters (1, b, i, o)")
	}

	res := Result{
		Valid:       true,
		Network:     network,
		Prefix:      prefix,
		Payload:     payload,
		FullAddress: address,
	}
	res.AddressType, res.ChecksumValid = decode(address, prefix)
	return res
}

func reject(reason Reason, msg string) Result {
	return Result{Valid: false, Reason: reason, Error: msg}
}

func isLowerAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// decode runs the full kaspad decoder to report checksum validity and the
// address kind.
func decode(address, prefix string) (string, bool) {
	p, err := util.ParsePrefix(prefix)
	if err != nil {
		return "", false
	}
	addr, err := util.DecodeAddress(address, p)
	if err != nil {
		return "", false
	}
	switch addr.(type) {
	case *util.AddressPublicKey:
		return "pubkey", true
	case *util.AddressPublicKeyECDSA:
		return "pubkey-ecdsa", true
	case *util.AddressScriptHash:
		return "scripthash", true
	default:
		return "", true
	}
}
