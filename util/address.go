package util

import (
	"errors"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("地址格式错误")

// 校验十六进制地址并统一为 EIP-55 校验和格式
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !ethcommon.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return ethcommon.HexToAddress(address).Hex(), nil
}
