package meta

import "github.com/holiman/uint256"

// 合约日志事件名
const (
	RefundTransferEvent     = "RefundTransfer"
	DirectContributionEvent = "DirectContribution"
	ManualContributionEvent = "ManualContribution"
)

// 交易执行过程中合约产生的日志，交易成功提交后才会对外发布
type Log struct {
	TxID     string      `json:"tx_id"`
	Contract string      `json:"contract"`
	Event    string      `json:"event"`
	Args     interface{} `json:"args"`
}

type RefundTransfer struct {
	Backer string       `json:"_backer"`
	Amount *uint256.Int `json:"_amount"`
}

type DirectContribution struct {
	Backer string       `json:"_backer"`
	Amount *uint256.Int `json:"_amount"`
	USD    *uint256.Int `json:"_usd"`
	Tokens *uint256.Int `json:"_tokens"`
}

type ManualContribution struct {
	Backer   string       `json:"_backer"`
	Currency string       `json:"_currency"`
	USD      *uint256.Int `json:"_usd"`
	Tokens   *uint256.Int `json:"_tokens"`
}
