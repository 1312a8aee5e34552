package common

import (
	"github.com/holiman/uint256"
)

// 美元定点数精度：1 美元 = 10^18 atto-dollar，与代币精度一致
const USDDecimals = 18

// 每美元的美分数
const CentsPerDollar = 100

// AttoPerDollar 1 美元对应的 atto-dollar
var AttoPerDollar = uint256.NewInt(0).Exp(uint256.NewInt(10), uint256.NewInt(USDDecimals))
