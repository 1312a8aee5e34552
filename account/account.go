package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cloudflare/cfssl/log"
	"github.com/holiman/uint256"
	"github.com/hotoken/common"
	"github.com/hotoken/levelDB"
	"github.com/hotoken/meta"
)

/* 这里封装了所有的对账户的操作
 * 原生币余额用于支付与退款，代币余额即对外暴露的 balanceOf
 * 账户在第一次收到转账或代币时自动创建
 */

var (
	ErrInsufficientBalance = errors.New("余额不足")
	ErrOverflow            = errors.New("余额溢出")
)

type State struct {
	Accounts map[string]meta.Account // key: 账户地址 - val: 账户信息
}

func NewState() *State {
	return &State{Accounts: map[string]meta.Account{}}
}

// 创建普通账户
func (s *State) CreateAccount(address string, balance *uint256.Int) meta.Account {
	acc := s.get(address)
	acc.Balance = new(uint256.Int).Set(balance)
	s.Accounts[address] = acc
	return acc.Copy()
}

// 创建合约账户，已存在的余额保留
func (s *State) CreateContract(address string) meta.Account {
	acc := s.get(address)
	acc.IsContract = true
	s.Accounts[address] = acc
	return acc.Copy()
}

func (s *State) get(address string) meta.Account {
	acc, ok := s.Accounts[address]
	if !ok {
		return meta.Account{
			Address: address,
			Balance: uint256.NewInt(0),
			Tokens:  uint256.NewInt(0),
		}
	}
	if acc.Balance == nil {
		acc.Balance = uint256.NewInt(0)
	}
	if acc.Tokens == nil {
		acc.Tokens = uint256.NewInt(0)
	}
	return acc
}

func (s *State) SubBalance(sender string, amount *uint256.Int) (meta.Account, error) {
	acc := s.get(sender)
	if acc.Balance.Lt(amount) {
		log.Infof("[SubBalance]: Insufficient balance. address=%s", sender)
		return acc.Copy(), fmt.Errorf("%w: %s", ErrInsufficientBalance, sender)
	}
	acc.Balance = new(uint256.Int).Sub(acc.Balance, amount)
	s.Accounts[sender] = acc
	return acc.Copy(), nil
}

func (s *State) AddBalance(receiver string, amount *uint256.Int) (meta.Account, error) {
	acc := s.get(receiver)
	sum, overflow := new(uint256.Int).AddOverflow(acc.Balance, amount)
	if overflow {
		return acc.Copy(), fmt.Errorf("%w: %s", ErrOverflow, receiver)
	}
	acc.Balance = sum
	s.Accounts[receiver] = acc
	return acc.Copy(), nil
}

// 判断交易发起方是否有足够余额
func (s *State) CanTransfer(sender string, amount *uint256.Int) bool {
	return !s.get(sender).Balance.Lt(amount)
}

// 原生币转账，from 余额不足时不做任何修改
func (s *State) Transfer(from, to string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if !s.CanTransfer(from, amount) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, from)
	}
	if _, err := s.SubBalance(from, amount); err != nil {
		return err
	}
	if _, err := s.AddBalance(to, amount); err != nil {
		// 回滚扣款
		_, _ = s.AddBalance(from, amount)
		return err
	}
	return nil
}

// 增加代币余额
func (s *State) CreditBalance(address string, amount *uint256.Int) error {
	acc := s.get(address)
	sum, overflow := new(uint256.Int).AddOverflow(acc.Tokens, amount)
	if overflow {
		return fmt.Errorf("%w: %s", ErrOverflow, address)
	}
	acc.Tokens = sum
	s.Accounts[address] = acc
	return nil
}

// 扣减代币余额
func (s *State) DebitBalance(address string, amount *uint256.Int) error {
	acc := s.get(address)
	if acc.Tokens.Lt(amount) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, address)
	}
	acc.Tokens = new(uint256.Int).Sub(acc.Tokens, amount)
	s.Accounts[address] = acc
	return nil
}

// 代币余额
func (s *State) BalanceOf(address string) *uint256.Int {
	return new(uint256.Int).Set(s.get(address).Tokens)
}

// 原生币余额
func (s *State) NativeBalance(address string) *uint256.Int {
	return new(uint256.Int).Set(s.get(address).Balance)
}

// 账户地址是否存在
func (s *State) ContainsAddress(address string) bool {
	_, ok := s.Accounts[address]
	return ok
}

// 获取账户信息
func (s *State) GetAccount(address string) meta.Account {
	return s.get(address).Copy()
}

// 是否为智能合约账户地址
func (s *State) IsContractAccount(address string) bool {
	return s.Accounts[address].IsContract
}

// 获取所有的账户地址
func (s *State) GetTotalAddress() []string {
	totalAddress := make([]string, 0, len(s.Accounts))
	for address := range s.Accounts {
		totalAddress = append(totalAddress, address)
	}
	sort.Strings(totalAddress)
	return totalAddress
}

func (s *State) Snapshot() interface{} {
	accounts := make(map[string]meta.Account, len(s.Accounts))
	for k, v := range s.Accounts {
		accounts[k] = v.Copy()
	}
	return accounts
}

func (s *State) Restore(snapshot interface{}) {
	s.Accounts = snapshot.(map[string]meta.Account)
}

// 持久化（交易提交时与其他状态写入同一批次）
func (s *State) Persist(w levelDB.Writer) error {
	bytes, err := json.Marshal(s.Accounts)
	if err != nil {
		return err
	}
	w.Put(common.AccountsKey, bytes)
	return nil
}

// 从磁盘获取已有的账户信息（在节点启动时执行）
func (s *State) GetFromDisk(db *levelDB.DB) error {
	accountBytes, err := db.Get(common.AccountsKey)
	if err != nil {
		return err
	}
	if accountBytes == nil {
		return nil
	}
	accounts := map[string]meta.Account{}
	if err := json.Unmarshal(accountBytes, &accounts); err != nil {
		return err
	}
	s.Accounts = accounts
	return nil
}
