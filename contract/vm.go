package contract

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/hotoken/account"
	"github.com/hotoken/common"
	"github.com/hotoken/event"
	"github.com/hotoken/levelDB"
	"github.com/hotoken/meta"
	"github.com/hotoken/util"
)

var (
	ErrCallDepth       = errors.New("超过合约最大调用深度")
	ErrUnknownContract = errors.New("合约不存在")
	ErrContractSender  = errors.New("合约账户不能发起交易")
)

// 发布日志到外部接收方的最长等待时间
const publishTimeout = 3 * time.Second

// 合约方法，返回错误时整笔交易回滚
type Method func(ctx *Context) error

// 参与交易快照和持久化的状态
type State interface {
	Snapshot() interface{}
	Restore(snapshot interface{})
	Persist(w levelDB.Writer) error
}

// 一笔交易
type Tx struct {
	From   string
	To     string
	Method string
	Value  *uint256.Int
}

/*
 * 交易串行执行：同一时刻只有一笔交易持有全部状态
 * 交易开始前对所有状态做快照，任何错误都会恢复快照，日志丢弃
 * 成功后所有状态写入同一个 leveldb 批次，再发布日志
 */
type VM struct {
	mu        sync.Mutex
	accounts  *account.State
	states    []State
	contracts map[string]Method // 合约地址 -> Fallback（可以为空）
	db        *levelDB.DB
	bus       *event.Bus

	stack contextStack
	logs  []meta.Log
	txID  string
}

// db、bus 为空时不持久化、不发布日志
func NewVM(accounts *account.State, db *levelDB.DB, bus *event.Bus) *VM {
	vm := &VM{
		accounts:  accounts,
		contracts: map[string]Method{},
		db:        db,
		bus:       bus,
	}
	vm.states = append(vm.states, accounts)
	return vm
}

func (vm *VM) Register(s State) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.states = append(vm.states, s)
}

// 部署合约账户，fallback 在收到转账或者没有指定方法时执行
func (vm *VM) Deploy(address string, fallback Method) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.accounts.CreateContract(address)
	vm.contracts[address] = fallback
}

func (vm *VM) IsContract(address string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := vm.contracts[address]
	return ok
}

func (vm *VM) Accounts() *account.State {
	return vm.accounts
}

// 只读查询，与交易互斥
func (vm *VM) View(fn func() error) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return fn()
}

// 执行一笔交易。fn 为空时执行目标合约的 Fallback；目标不是合约时为普通转账
func (vm *VM) Invoke(tx Tx, fn Method) (*meta.Receipt, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	receipt := &meta.Receipt{
		ID:       uuid.NewString(),
		From:     tx.From,
		Contract: tx.To,
		Method:   tx.Method,
		Logs:     []meta.Log{},
	}
	if h, err := util.CalculateObjectHash(struct {
		ID string
		Tx Tx
	}{receipt.ID, tx}); err == nil {
		receipt.Hash = hex.EncodeToString(h)
	}

	vm.txID = receipt.ID
	vm.logs = nil
	vm.stack.Reset()
	snapshots := vm.snapshot()

	var err error
	if _, ok := vm.contracts[tx.From]; ok {
		err = fmt.Errorf("%w: %s", ErrContractSender, tx.From)
	} else if err = vm.execute(tx, fn); err == nil {
		err = vm.persist()
	}
	if err != nil {
		vm.restore(snapshots)
		vm.logs = nil
		receipt.Status = meta.TxFailed
		receipt.Error = err.Error()
		log.Infof("交易执行失败 from=%s to=%s method=%s: %s", tx.From, tx.To, tx.Method, err)
		return receipt, err
	}

	receipt.Status = meta.TxSuccess
	receipt.Logs = append(receipt.Logs, vm.logs...)
	vm.logs = nil
	if vm.bus != nil && len(receipt.Logs) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		vm.bus.Publish(ctx, receipt.Logs)
		cancel()
	}
	return receipt, nil
}

func (vm *VM) execute(tx Tx, fn Method) error {
	_, isContract := vm.contracts[tx.To]
	if fn == nil {
		fn = vm.contracts[tx.To]
	} else if !isContract {
		return fmt.Errorf("%w: %s", ErrUnknownContract, tx.To)
	}
	return vm.call(tx.From, tx.From, tx.To, tx.Method, tx.Value, fn)
}

// 先转账再执行目标代码，调用结束后出栈
// 调用失败时只回滚本次调用的修改和日志，调用方可以继续执行
func (vm *VM) call(caller, origin, to, method string, value *uint256.Int, fn Method) (err error) {
	if vm.stack.Len() >= common.MaxCallDepth {
		return ErrCallDepth
	}
	if value == nil {
		value = uint256.NewInt(0)
	}
	snapshots, logs := vm.snapshot(), len(vm.logs)
	defer func() {
		if err != nil {
			vm.restore(snapshots)
			vm.logs = vm.logs[:logs]
		}
	}()
	if err = vm.accounts.Transfer(caller, to, value); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	ctx := &Context{
		vm:      vm,
		Address: to,
		Method:  method,
		caller:  caller,
		origin:  origin,
		value:   new(uint256.Int).Set(value),
	}
	vm.stack.Push(ctx)
	defer vm.stack.Pop()
	log.Debugf("当前合约调用的context: address=%s method=%s caller=%s origin=%s value=%s depth=%d",
		to, method, caller, origin, value.Dec(), vm.stack.Len())
	return fn(ctx)
}

func (vm *VM) snapshot() []interface{} {
	snapshots := make([]interface{}, len(vm.states))
	for i, s := range vm.states {
		snapshots[i] = s.Snapshot()
	}
	return snapshots
}

func (vm *VM) restore(snapshots []interface{}) {
	for i, s := range vm.states {
		s.Restore(snapshots[i])
	}
}

func (vm *VM) persist() error {
	if vm.db == nil {
		return nil
	}
	b := vm.db.NewBatch()
	for _, s := range vm.states {
		if err := s.Persist(b); err != nil {
			log.Errorf("state persist error: %s", err)
			return err
		}
	}
	return vm.db.Write(b)
}
