package contract

import (
	"fmt"

	"github.com/cloudflare/cfssl/log"
	"github.com/holiman/uint256"
	"github.com/hotoken/meta"
)

/*
 * 区块链提供给合约的接口
 */

// 返回调用者地址（合约账户、外部账户）
func (c *Context) Caller() string {
	return c.caller
}

// 返回交易发起者的地址。这是一个不随着调用深度变化的值
// 例：账户alice调用了A合约，A合约调用了B合约，B合约调用了C合约，Origin()得到的都是alice的账户地址。
func (c *Context) Origin() string {
	return c.origin
}

// 返回调用合约时转入了多少资产
func (c *Context) Value() *uint256.Int {
	return new(uint256.Int).Set(c.value)
}

// 返回当前合约的地址
func (c *Context) Self() string {
	return c.Address
}

// 当前调用深度，外部账户直接调用时为 1
func (c *Context) Depth() int {
	return c.vm.stack.Len()
}

// 返回当前合约拥有多少资产
func (c *Context) Balance() *uint256.Int {
	return c.vm.accounts.NativeBalance(c.Address)
}

// 根据地址获取对应账户的余额
func (c *Context) GetBalance(address string) *uint256.Int {
	return c.vm.accounts.NativeBalance(address)
}

// 当前合约向 to 账户转账
// to 为带 Fallback 的合约账户时会同步执行其 Fallback，Fallback 失败则转账失败
func (c *Context) Transfer(to string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	return c.vm.call(c.Address, c.origin, to, "", amount, c.vm.contracts[to])
}

// 调用合约的同时向合约转账，value 可以为 nil
func (c *Context) Call(to, method string, value *uint256.Int, fn Method) error {
	if _, ok := c.vm.contracts[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContract, to)
	}
	log.Debugf("调用 %v 合约的 %v() 方法", to, method)
	return c.vm.call(c.Address, c.origin, to, method, value, fn)
}

// 记录合约日志，交易成功提交后发布
func (c *Context) Emit(event string, args interface{}) {
	c.vm.logs = append(c.vm.logs, meta.Log{
		TxID:     c.vm.txID,
		Contract: c.Address,
		Event:    event,
		Args:     args,
	})
}

func (c *Context) Info(info ...interface{}) {
	log.Info(fmt.Sprint(info...))
}

func (c *Context) Infof(format string, info ...interface{}) {
	log.Infof(format, info...)
}
