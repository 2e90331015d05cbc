// Package address converts between textual and binary 20-byte account identifiers.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrEncoding is returned for strings that are not valid addresses.
var ErrEncoding = errors.New("encoding error")

// Parse accepts a 0x-prefixed (or bare) 40 hex character string. All-lower and
// all-upper inputs are accepted as is; mixed case must carry a valid EIP-55 checksum.
func Parse(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", ErrEncoding, s)
	}

	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if isMixedCase(body) && body != addr.Hex()[2:] {
		return common.Address{}, fmt.Errorf("%w: bad checksum for %q", ErrEncoding, s)
	}
	return addr, nil
}

// Checksum returns the canonical checksummed form of s.
func Checksum(s string) (string, error) {
	addr, err := Parse(s)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// MustParse is Parse for compile-time constants.
func MustParse(s string) common.Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func IsZero(addr common.Address) bool {
	return addr == (common.Address{})
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
