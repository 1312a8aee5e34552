package reservation

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/hotoken/common"
)

// 汇率：每 1 个原生币（10^18 最小单位）值多少美分
// TokenPriceCents 为每个代币的美分价格
type RateOracle struct {
	Cents           *uint256.Int `json:"conversion_rate"`
	TokenPriceCents *uint256.Int `json:"token_price_cents"`
}

// 一次直接支付的换算结果
type Quote struct {
	USD    *uint256.Int // atto-dollar
	Tokens *uint256.Int // 代币最小单位
}

/*
 * usd    = native * cents / 100
 * tokens = usd * 100 / tokenPriceCents
 * native 以 10^-18 为单位，因此 usd 直接落在 atto-dollar 上；整数除法向下取整
 * 例：45000 美分汇率下 1 ether = 450 美元 = 4500 个代币（代币价格 10 美分）
 */
func (o RateOracle) Quote(native *uint256.Int) (Quote, error) {
	if o.Cents == nil || o.Cents.IsZero() {
		return Quote{}, fmt.Errorf("%w: 尚未设置汇率", ErrInvalidState)
	}
	if o.TokenPriceCents == nil || o.TokenPriceCents.IsZero() {
		return Quote{}, fmt.Errorf("%w: 代币价格为 0", ErrInvalidState)
	}
	cents := uint256.NewInt(common.CentsPerDollar)

	usd, overflow := new(uint256.Int).MulOverflow(native, o.Cents)
	if overflow {
		return Quote{}, fmt.Errorf("%w: 支付金额 %s 换算溢出", ErrInvalidArgument, native.Dec())
	}
	usd.Div(usd, cents)

	tokens, overflow := new(uint256.Int).MulOverflow(usd, cents)
	if overflow {
		return Quote{}, fmt.Errorf("%w: 代币数量溢出", ErrInvalidArgument)
	}
	tokens.Div(tokens, o.TokenPriceCents)
	return Quote{USD: usd, Tokens: tokens}, nil
}

func (o RateOracle) Copy() RateOracle {
	return RateOracle{
		Cents:           copyAmount(o.Cents),
		TokenPriceCents: copyAmount(o.TokenPriceCents),
	}
}
