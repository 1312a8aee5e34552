package contract

import (
	"github.com/holiman/uint256"
)

// 合约调用上下文
type Context struct {
	vm      *VM
	Address string       // 当前执行的合约地址
	Method  string       // 被调用的方法
	caller  string       // 调用者地址（合约账户、外部账户）
	origin  string       // 最初调用者（外部账户），如果不涉及合约调用合约，那么 Caller == Origin
	value   *uint256.Int // 调用合约时的转账金额
}

// 合约调用栈
type contextStack struct {
	contexts []*Context
}

func (t *contextStack) Push(c *Context) {
	t.contexts = append(t.contexts, c)
}

func (t *contextStack) Pop() *Context {
	if !t.IsEmpty() {
		top := t.contexts[len(t.contexts)-1]
		t.contexts = t.contexts[:len(t.contexts)-1]
		return top
	}
	return nil
}

func (t *contextStack) Top() *Context {
	if !t.IsEmpty() {
		return t.contexts[len(t.contexts)-1]
	}
	return nil
}

func (t *contextStack) IsEmpty() bool {
	return len(t.contexts) == 0
}

func (t *contextStack) Len() int {
	return len(t.contexts)
}

func (t *contextStack) Reset() {
	t.contexts = t.contexts[:0]
}
