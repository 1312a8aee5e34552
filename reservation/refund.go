package reservation

import (
	"fmt"

	"github.com/hotoken/contract"
	"github.com/hotoken/meta"
)

/*
 * 众筹失败后，直接支付的支持者取回原生币
 * 条件按顺序检查，第一个不满足的条件决定失败原因
 * 先清零账本再打款：打款会执行收款方的代码，重入的 Refund 只能看到 0
 */
func (r *HotokenReservation) Refund(ctx *contract.Context) error {
	backer := ctx.Caller()
	s := r.state

	if s.Sale.Paused {
		return fmt.Errorf("%w: 合约已暂停", ErrInvalidState)
	}
	if !s.Sale.Finished {
		return fmt.Errorf("%w: 众筹尚未结束", ErrInvalidState)
	}
	if r.owner.IsOwner(backer) {
		return fmt.Errorf("%w: 所有者不能退款", ErrUnauthorized)
	}
	if !s.Whitelist.IsMember(backer) {
		return fmt.Errorf("%w: %s 不在白名单中", ErrUnauthorized, backer)
	}
	if s.Ledger.DirectAmount(backer).IsZero() {
		return fmt.Errorf("%w: %s 没有直接支付记录", ErrNotFound, backer)
	}
	if s.Thresholds.GoalMet(s.Ledger.TotalSold) {
		return fmt.Errorf("%w: 已达到众筹目标", ErrInvalidState)
	}

	amount, tokens := s.Ledger.ZeroDirect(backer)
	if err := r.tokens.DebitBalance(backer, tokens); err != nil {
		return fmt.Errorf("%w: 扣减代币失败: %v", ErrInvalidState, err)
	}
	if err := ctx.Transfer(backer, amount); err != nil {
		return fmt.Errorf("退款打款失败: %w", err)
	}
	ctx.Emit(meta.RefundTransferEvent, meta.RefundTransfer{Backer: backer, Amount: amount})
	ctx.Infof("%s 退款 %s", backer, amount.Dec())
	return nil
}
