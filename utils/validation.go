package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/oipwg/oip-account/types"
)

var (
	// Base58 alphabet: 123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz
	base58Regexp = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

	// Bech32 data part, lower case only.
	bech32Regexp = regexp.MustCompile(`^[02-9ac-hj-np-z]+$`)

	hexRegexp = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// ValidateAmount checks that an amount string is a valid, non negative
// decimal.
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidatePositiveAmount rejects zero and negative amounts.
func ValidatePositiveAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return nil
}

// ValidateAddress checks an address against the coin's format rules.
func ValidateAddress(coin, address string) error {
	coin = strings.ToLower(strings.TrimSpace(coin))
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	c, ok := types.CoinBySymbol(coin)
	if !ok {
		return fmt.Errorf("unsupported coin: %s", coin)
	}

	switch c.Family {
	case types.FamilyEVM:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("%s address must be a 0x prefixed 20 byte hex string", coin)
		}
		return nil

	case types.FamilyUTXO:
		return validateUTXOAddress(coin, address)

	default:
		return fmt.Errorf("no address rules for coin family %q", c.Family)
	}
}

func validateUTXOAddress(coin, address string) error {
	switch coin {
	case types.CoinBTC:
		if strings.HasPrefix(address, "bc1") {
			return validateBech32Body(coin, address[3:])
		}
		if address[0] != '1' && address[0] != '3' {
			return fmt.Errorf("btc address must start with 1, 3 or bc1")
		}

	case types.CoinLTC:
		if strings.HasPrefix(address, "ltc1") {
			return validateBech32Body(coin, address[4:])
		}
		if address[0] != 'L' && address[0] != 'M' && address[0] != '3' {
			return fmt.Errorf("ltc address must start with L, M, 3 or ltc1")
		}

	case types.CoinFlo:
		if address[0] != 'F' {
			return fmt.Errorf("flo address must start with F")
		}
	}

	if len(address) < 26 || len(address) > 36 {
		return fmt.Errorf("%s address has invalid length %d", coin, len(address))
	}
	if !base58Regexp.MatchString(address) {
		return fmt.Errorf("%s address must be valid base58", coin)
	}
	return nil
}

func validateBech32Body(coin, body string) error {
	if len(body) < 6 || len(body) > 87 {
		return fmt.Errorf("%s bech32 address has invalid length", coin)
	}
	if !bech32Regexp.MatchString(body) {
		return fmt.Errorf("%s bech32 address contains invalid characters", coin)
	}
	return nil
}

// NormalizeAddress validates an address and returns its canonical form. EVM
// addresses come back EIP-55 checksummed; other coins are returned as given.
func NormalizeAddress(coin, address string) (string, error) {
	if err := ValidateAddress(coin, address); err != nil {
		return "", err
	}

	c, _ := types.CoinBySymbol(coin)
	if c.Family == types.FamilyEVM {
		return common.HexToAddress(address).Hex(), nil
	}
	return address, nil
}

// ValidateTxID checks a transaction id against the coin's format rules.
func ValidateTxID(coin, txid string) error {
	coin = strings.ToLower(strings.TrimSpace(coin))
	if txid == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}

	c, ok := types.CoinBySymbol(coin)
	if !ok {
		return fmt.Errorf("unsupported coin: %s", coin)
	}

	switch c.Family {
	case types.FamilyEVM:
		// 0x plus 32 bytes of hex.
		if !strings.HasPrefix(txid, "0x") {
			return fmt.Errorf("%s transaction id must start with 0x", coin)
		}
		if len(txid) != 66 || !hexRegexp.MatchString(txid[2:]) {
			return fmt.Errorf("%s transaction id must be 32 bytes of hex", coin)
		}

	case types.FamilyUTXO:
		if len(txid) != 64 || !hexRegexp.MatchString(txid) {
			return fmt.Errorf("%s transaction id must be 32 bytes of hex", coin)
		}

	default:
		return fmt.Errorf("no transaction id rules for coin family %q", c.Family)
	}

	return nil
}
