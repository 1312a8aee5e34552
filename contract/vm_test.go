package contract

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/hotoken/account"
	"github.com/hotoken/common"
	"github.com/hotoken/event"
	"github.com/hotoken/levelDB"
	"github.com/hotoken/meta"
	"gotest.tools/v3/assert"
)

// 计数器合约状态
type counter struct {
	n int
}

func (c *counter) Snapshot() interface{} { return c.n }
func (c *counter) Restore(s interface{}) { c.n = s.(int) }
func (c *counter) Persist(levelDB.Writer) error { return nil }

type memSink struct {
	logs      []meta.Log
	deadlines []bool
}

func (m *memSink) Push(ctx context.Context, l meta.Log) error {
	_, ok := ctx.Deadline()
	m.deadlines = append(m.deadlines, ok)
	m.logs = append(m.logs, l)
	return nil
}

func newVM(t *testing.T) (*VM, *counter) {
	t.Helper()
	accounts := account.NewState()
	accounts.CreateAccount("alice", uint256.NewInt(1000))
	vm := NewVM(accounts, nil, nil)
	c := &counter{}
	vm.Register(c)
	return vm, c
}

func TestInvokeCommits(t *testing.T) {
	vm, c := newVM(t)
	vm.Deploy("counter", nil)

	receipt, err := vm.Invoke(Tx{From: "alice", To: "counter", Method: "inc", Value: uint256.NewInt(10)}, func(ctx *Context) error {
		assert.Equal(t, ctx.Caller(), "alice")
		assert.Equal(t, ctx.Origin(), "alice")
		assert.Equal(t, ctx.Value().Uint64(), uint64(10))
		assert.Equal(t, ctx.Balance().Uint64(), uint64(10))
		assert.Equal(t, ctx.Depth(), 1)
		c.n++
		ctx.Emit("Inc", c.n)
		return nil
	})
	assert.NilError(t, err)
	assert.Equal(t, receipt.Status, meta.TxSuccess)
	assert.Assert(t, receipt.ID != "")
	assert.Assert(t, receipt.Hash != "")
	assert.Equal(t, len(receipt.Logs), 1)
	assert.Equal(t, receipt.Logs[0].TxID, receipt.ID)
	assert.Equal(t, receipt.Logs[0].Contract, "counter")
	assert.Equal(t, c.n, 1)
	assert.Equal(t, vm.Accounts().NativeBalance("alice").Uint64(), uint64(990))
}

func TestInvokeRollsBackEverything(t *testing.T) {
	vm, c := newVM(t)
	vm.Deploy("counter", nil)
	boom := errors.New("boom")

	receipt, err := vm.Invoke(Tx{From: "alice", To: "counter", Value: uint256.NewInt(10)}, func(ctx *Context) error {
		c.n = 42
		ctx.Emit("Inc", c.n)
		assert.NilError(t, ctx.Transfer("bob", uint256.NewInt(5)))
		return boom
	})
	assert.Assert(t, errors.Is(err, boom))
	assert.Equal(t, receipt.Status, meta.TxFailed)
	assert.Equal(t, receipt.Error, "boom")
	assert.Equal(t, len(receipt.Logs), 0)
	assert.Equal(t, c.n, 0)
	assert.Equal(t, vm.Accounts().NativeBalance("alice").Uint64(), uint64(1000))
	assert.Assert(t, vm.Accounts().NativeBalance("counter").IsZero())
	assert.Assert(t, !vm.Accounts().ContainsAddress("bob"))
}

func TestInvokeInsufficientValue(t *testing.T) {
	vm, c := newVM(t)
	vm.Deploy("counter", nil)

	_, err := vm.Invoke(Tx{From: "alice", To: "counter", Value: uint256.NewInt(1001)}, func(ctx *Context) error {
		c.n++
		return nil
	})
	assert.Assert(t, errors.Is(err, account.ErrInsufficientBalance))
	assert.Equal(t, c.n, 0)
}

func TestInvokeUnknownContract(t *testing.T) {
	vm, _ := newVM(t)
	_, err := vm.Invoke(Tx{From: "alice", To: "nowhere"}, func(ctx *Context) error { return nil })
	assert.Assert(t, errors.Is(err, ErrUnknownContract))
}

func TestPlainTransferAndFallback(t *testing.T) {
	vm, c := newVM(t)
	vm.Deploy("piggy", func(ctx *Context) error {
		c.n += int(ctx.Value().Uint64())
		return nil
	})

	// 普通账户之间转账
	_, err := vm.Invoke(Tx{From: "alice", To: "bob", Value: uint256.NewInt(100)}, nil)
	assert.NilError(t, err)
	assert.Equal(t, vm.Accounts().NativeBalance("bob").Uint64(), uint64(100))

	// 向合约转账触发 Fallback
	_, err = vm.Invoke(Tx{From: "bob", To: "piggy", Value: uint256.NewInt(30)}, nil)
	assert.NilError(t, err)
	assert.Equal(t, c.n, 30)
	assert.Equal(t, vm.Accounts().NativeBalance("piggy").Uint64(), uint64(30))
}

func TestNestedCallContext(t *testing.T) {
	vm, _ := newVM(t)
	var innerCaller, innerOrigin string
	var innerDepth int
	inner := func(ctx *Context) error {
		innerCaller = ctx.Caller()
		innerOrigin = ctx.Origin()
		innerDepth = ctx.Depth()
		return nil
	}
	vm.Deploy("outer", nil)
	vm.Deploy("inner", nil)

	_, err := vm.Invoke(Tx{From: "alice", To: "outer", Value: uint256.NewInt(10)}, func(ctx *Context) error {
		if err := ctx.Call("inner", "Run", uint256.NewInt(4), inner); err != nil {
			return err
		}
		assert.Equal(t, ctx.Depth(), 1)
		return nil
	})
	assert.NilError(t, err)
	assert.Equal(t, innerCaller, "outer")
	assert.Equal(t, innerOrigin, "alice")
	assert.Equal(t, innerDepth, 2)
	assert.Equal(t, vm.Accounts().NativeBalance("outer").Uint64(), uint64(6))
	assert.Equal(t, vm.Accounts().NativeBalance("inner").Uint64(), uint64(4))

	_, err = vm.Invoke(Tx{From: "alice", To: "outer"}, func(ctx *Context) error {
		return ctx.Call("missing", "Run", nil, inner)
	})
	assert.Assert(t, errors.Is(err, ErrUnknownContract))
}

func TestFallbackFailureFailsTransfer(t *testing.T) {
	vm, c := newVM(t)
	refuse := errors.New("refuse")
	vm.Deploy("payer", nil)
	vm.Deploy("payee", func(ctx *Context) error { return refuse })

	_, err := vm.Invoke(Tx{From: "alice", To: "payer", Value: uint256.NewInt(10)}, func(ctx *Context) error {
		c.n = 1
		return ctx.Transfer("payee", uint256.NewInt(10))
	})
	assert.Assert(t, errors.Is(err, refuse))
	assert.Equal(t, c.n, 0)
	assert.Assert(t, vm.Accounts().NativeBalance("payee").IsZero())
	assert.Equal(t, vm.Accounts().NativeBalance("alice").Uint64(), uint64(1000))
}

func TestCallDepthLimit(t *testing.T) {
	vm, _ := newVM(t)
	var recurse Method
	recurse = func(ctx *Context) error {
		return ctx.Call("loop", "Recurse", nil, recurse)
	}
	vm.Deploy("loop", nil)

	_, err := vm.Invoke(Tx{From: "alice", To: "loop"}, recurse)
	assert.Assert(t, errors.Is(err, ErrCallDepth))
}

func TestPersistAndPublishOnCommitOnly(t *testing.T) {
	db, err := levelDB.OpenMem()
	assert.NilError(t, err)
	defer db.Close()
	bus := event.NewBus()
	sink := &memSink{}
	bus.AddSink(sink)

	accounts := account.NewState()
	accounts.CreateAccount("alice", uint256.NewInt(1000))
	vm := NewVM(accounts, db, bus)
	vm.Deploy("counter", nil)

	_, err = vm.Invoke(Tx{From: "alice", To: "counter"}, func(ctx *Context) error {
		ctx.Emit("Dropped", nil)
		return errors.New("fail")
	})
	assert.Assert(t, err != nil)
	stored, err := db.Get(common.AccountsKey)
	assert.NilError(t, err)
	assert.Assert(t, stored == nil)
	assert.Equal(t, len(sink.logs), 0)

	_, err = vm.Invoke(Tx{From: "alice", To: "counter", Value: uint256.NewInt(1)}, func(ctx *Context) error {
		ctx.Emit("Kept", nil)
		return nil
	})
	assert.NilError(t, err)
	assert.Equal(t, len(sink.logs), 1)
	assert.Equal(t, sink.logs[0].Event, "Kept")
	assert.DeepEqual(t, sink.deadlines, []bool{true})

	loaded := account.NewState()
	assert.NilError(t, loaded.GetFromDisk(db))
	assert.Equal(t, loaded.NativeBalance("alice").Uint64(), uint64(999))
}

// 嵌套调用失败只回滚自己，外层忽略错误后继续提交
func TestNestedCallFailureRollsBackCallee(t *testing.T) {
	vm, c := newVM(t)
	boom := errors.New("boom")
	vm.Deploy("outer", nil)
	vm.Deploy("inner", nil)

	var inner error
	receipt, err := vm.Invoke(Tx{From: "alice", To: "outer", Value: uint256.NewInt(10)}, func(ctx *Context) error {
		ctx.Emit("Before", nil)
		inner = ctx.Call("inner", "Run", uint256.NewInt(4), func(ctx *Context) error {
			c.n = 7
			ctx.Emit("Dropped", nil)
			return boom
		})
		c.n++
		ctx.Emit("After", nil)
		return nil
	})
	assert.NilError(t, err)
	assert.Assert(t, errors.Is(inner, boom))
	assert.Equal(t, c.n, 1)
	assert.Equal(t, len(receipt.Logs), 2)
	assert.Equal(t, receipt.Logs[0].Event, "Before")
	assert.Equal(t, receipt.Logs[1].Event, "After")
	assert.Equal(t, vm.Accounts().NativeBalance("outer").Uint64(), uint64(10))
	assert.Assert(t, vm.Accounts().NativeBalance("inner").IsZero())
}

func TestContractCannotSend(t *testing.T) {
	vm, c := newVM(t)
	vm.Deploy("vault", nil)
	_, err := vm.Invoke(Tx{From: "alice", To: "vault", Value: uint256.NewInt(10)}, nil)
	assert.NilError(t, err)

	receipt, err := vm.Invoke(Tx{From: "vault", To: "alice", Value: uint256.NewInt(10)}, nil)
	assert.Assert(t, errors.Is(err, ErrContractSender))
	assert.Equal(t, receipt.Status, meta.TxFailed)
	assert.Equal(t, vm.Accounts().NativeBalance("vault").Uint64(), uint64(10))

	_, err = vm.Invoke(Tx{From: "vault", To: "counter"}, func(ctx *Context) error {
		c.n++
		return nil
	})
	assert.Assert(t, errors.Is(err, ErrContractSender))
	assert.Equal(t, c.n, 0)
}
