package reservation

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/hotoken/common"
)

// 最低购买额与众筹成功门槛，单位 atto-dollar
type Thresholds struct {
	MinimumPurchase *uint256.Int `json:"minimum_purchase"`
	MinimumSold     *uint256.Int `json:"minimum_sold"`
}

// 已售总额达到门槛即视为众筹成功
func (t Thresholds) GoalMet(totalSold *uint256.Int) bool {
	return !totalSold.Lt(t.MinimumSold)
}

func (t Thresholds) Copy() Thresholds {
	return Thresholds{
		MinimumPurchase: copyAmount(t.MinimumPurchase),
		MinimumSold:     copyAmount(t.MinimumSold),
	}
}

// 整数美元换算为 atto-dollar
func toAtto(dollars *uint256.Int) (*uint256.Int, error) {
	v, overflow := new(uint256.Int).MulOverflow(dollars, common.AttoPerDollar)
	if overflow {
		return nil, fmt.Errorf("%w: %s 美元溢出", ErrInvalidArgument, dollars.Dec())
	}
	return v, nil
}

func copyAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}
