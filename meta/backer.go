package meta

import "github.com/holiman/uint256"

// 支持者（众筹参与者）在账本中的记录
type Backer struct {
	Address      string        `json:"address"`
	DirectAmount *uint256.Int  `json:"direct_amount"` // 直接支付的原生币数额（ethAmount）
	DirectTokens *uint256.Int  `json:"direct_tokens"` // 直接支付获得的代币（directEthTokens）
	ManualTokens *uint256.Int  `json:"manual_tokens"` // 手工录入获得的代币
	Manual       []ManualEntry `json:"manual"`        // 手工录入记录
}

// 线下（其他币种）购买的手工录入
type ManualEntry struct {
	Backer          string       `json:"backer"`
	Currency        string       `json:"currency"`         // 支付币种，例如 BTC
	USD             *uint256.Int `json:"usd"`              // 美元金额（整数美元）
	RateNumerator   *uint256.Int `json:"rate_numerator"`   // 汇率分子
	RateDenominator *uint256.Int `json:"rate_denominator"` // 汇率分母
	Adjustment      *uint256.Int `json:"adjustment"`       // 调整项
	Tokens          *uint256.Int `json:"tokens"`           // 发放的代币数
}

func NewBacker(address string) *Backer {
	return &Backer{
		Address:      address,
		DirectAmount: uint256.NewInt(0),
		DirectTokens: uint256.NewInt(0),
		ManualTokens: uint256.NewInt(0),
	}
}

func (b *Backer) Copy() *Backer {
	c := &Backer{
		Address:      b.Address,
		DirectAmount: copyAmount(b.DirectAmount),
		DirectTokens: copyAmount(b.DirectTokens),
		ManualTokens: copyAmount(b.ManualTokens),
	}
	for _, m := range b.Manual {
		c.Manual = append(c.Manual, m.Copy())
	}
	return c
}

func (m ManualEntry) Copy() ManualEntry {
	return ManualEntry{
		Backer:          m.Backer,
		Currency:        m.Currency,
		USD:             copyAmount(m.USD),
		RateNumerator:   copyAmount(m.RateNumerator),
		RateDenominator: copyAmount(m.RateDenominator),
		Adjustment:      copyAmount(m.Adjustment),
		Tokens:          copyAmount(m.Tokens),
	}
}
