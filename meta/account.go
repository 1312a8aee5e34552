package meta

import "github.com/holiman/uint256"

//账户

type Account struct {
	Address    string       `json:"address"`     // 账户地址
	Balance    *uint256.Int `json:"balance"`     // 原生币余额（最小单位）
	Tokens     *uint256.Int `json:"tokens"`      // 代币余额
	IsContract bool         `json:"is_contract"` // 是否为合约账户
}

// 深拷贝，用于交易快照
func (a Account) Copy() Account {
	return Account{
		Address:    a.Address,
		Balance:    copyAmount(a.Balance),
		Tokens:     copyAmount(a.Tokens),
		IsContract: a.IsContract,
	}
}

func copyAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}
