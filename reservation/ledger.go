package reservation

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/hotoken/meta"
)

// 按来源（直接支付 / 手工录入）分别记录每个支持者的代币
// TotalSold 为历史累计售出的美元价值，退款不会减少
type Ledger struct {
	Backers   map[string]*meta.Backer `json:"backers"`
	TotalSold *uint256.Int            `json:"total_sold"`
}

func NewLedger() Ledger {
	return Ledger{
		Backers:   map[string]*meta.Backer{},
		TotalSold: uint256.NewInt(0),
	}
}

// 记录不存在时创建
func (l *Ledger) backer(address string) *meta.Backer {
	b, ok := l.Backers[address]
	if !ok {
		b = meta.NewBacker(address)
		l.Backers[address] = b
	}
	return b
}

// 只读，不创建记录
func (l *Ledger) Backer(address string) (*meta.Backer, bool) {
	b, ok := l.Backers[address]
	if !ok {
		return nil, false
	}
	return b.Copy(), true
}

func (l *Ledger) DirectAmount(address string) *uint256.Int {
	if b, ok := l.Backers[address]; ok {
		return copyAmount(b.DirectAmount)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) DirectTokens(address string) *uint256.Int {
	if b, ok := l.Backers[address]; ok {
		return copyAmount(b.DirectTokens)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) ManualTokens(address string) *uint256.Int {
	if b, ok := l.Backers[address]; ok {
		return copyAmount(b.ManualTokens)
	}
	return uint256.NewInt(0)
}

func (l *Ledger) ManualEntries(address string) []meta.ManualEntry {
	entries := []meta.ManualEntry{}
	if b, ok := l.Backers[address]; ok {
		for _, m := range b.Manual {
			entries = append(entries, m.Copy())
		}
	}
	return entries
}

// 直接支付：累加支付金额、直接代币与已售总额。任何一项溢出都不修改账本
func (l *Ledger) RecordDirectContribution(address string, native *uint256.Int, q Quote) error {
	b := l.backer(address)
	amount, overflow := new(uint256.Int).AddOverflow(b.DirectAmount, native)
	if overflow {
		return fmt.Errorf("%w: %s 直接支付金额溢出", ErrInvalidArgument, address)
	}
	tokens, overflow := new(uint256.Int).AddOverflow(b.DirectTokens, q.Tokens)
	if overflow {
		return fmt.Errorf("%w: %s 直接代币溢出", ErrInvalidArgument, address)
	}
	total, overflow := new(uint256.Int).AddOverflow(l.TotalSold, q.USD)
	if overflow {
		return fmt.Errorf("%w: 已售总额溢出", ErrInvalidArgument)
	}
	b.DirectAmount, b.DirectTokens, l.TotalSold = amount, tokens, total
	return nil
}

// 手工录入：只累加手工代币，不涉及直接支付字段。e.USD 为整数美元，返回换算后的 atto-dollar
func (l *Ledger) RecordManualEntry(e meta.ManualEntry) (*uint256.Int, error) {
	usd, err := toAtto(copyAmount(e.USD))
	if err != nil {
		return nil, err
	}
	b := l.backer(e.Backer)
	tokens, overflow := new(uint256.Int).AddOverflow(b.ManualTokens, copyAmount(e.Tokens))
	if overflow {
		return nil, fmt.Errorf("%w: %s 手工代币溢出", ErrInvalidArgument, e.Backer)
	}
	total, overflow := new(uint256.Int).AddOverflow(l.TotalSold, usd)
	if overflow {
		return nil, fmt.Errorf("%w: 已售总额溢出", ErrInvalidArgument)
	}
	b.ManualTokens, l.TotalSold = tokens, total
	b.Manual = append(b.Manual, e.Copy())
	return copyAmount(usd), nil
}

// 清零直接支付部分，返回清零前的金额与代币
func (l *Ledger) ZeroDirect(address string) (amount, tokens *uint256.Int) {
	b := l.backer(address)
	amount, tokens = copyAmount(b.DirectAmount), copyAmount(b.DirectTokens)
	b.DirectAmount = uint256.NewInt(0)
	b.DirectTokens = uint256.NewInt(0)
	return amount, tokens
}

func (l *Ledger) Addresses() []string {
	list := make([]string, 0, len(l.Backers))
	for address := range l.Backers {
		list = append(list, address)
	}
	sort.Strings(list)
	return list
}

func (l Ledger) Copy() Ledger {
	c := Ledger{
		Backers:   make(map[string]*meta.Backer, len(l.Backers)),
		TotalSold: copyAmount(l.TotalSold),
	}
	for k, v := range l.Backers {
		c.Backers[k] = v.Copy()
	}
	return c
}
