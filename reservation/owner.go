package reservation

import "github.com/holiman/uint256"

// 所有者权限
type Ownable interface {
	IsOwner(address string) bool
}

// 单一地址作为所有者
type Owner string

func (o Owner) IsOwner(address string) bool {
	return o != "" && string(o) == address
}

// 代币余额账本，account.State 实现了该接口
type TokenLedger interface {
	CreditBalance(address string, amount *uint256.Int) error
	DebitBalance(address string, amount *uint256.Int) error
	BalanceOf(address string) *uint256.Int
}
