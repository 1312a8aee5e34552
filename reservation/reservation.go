package reservation

import (
	"encoding/json"
	"fmt"

	"github.com/cloudflare/cfssl/log"
	"github.com/holiman/uint256"
	"github.com/hotoken/common"
	"github.com/hotoken/contract"
	"github.com/hotoken/levelDB"
	"github.com/hotoken/meta"
)

// 合约全局状态，每笔交易开始前整体快照
type State struct {
	Thresholds Thresholds `json:"thresholds"`
	Whitelist  Whitelist  `json:"whitelist"`
	Rate       RateOracle `json:"rate"`
	Ledger     Ledger     `json:"ledger"`
	Sale       SaleState  `json:"sale"`
}

func (s *State) Copy() *State {
	return &State{
		Thresholds: s.Thresholds.Copy(),
		Whitelist:  s.Whitelist.Copy(),
		Rate:       s.Rate.Copy(),
		Ledger:     s.Ledger.Copy(),
		Sale:       s.Sale,
	}
}

// 部署参数，金额均为整数美元
type Options struct {
	Address         string
	MinimumPurchase uint64
	MinimumSold     uint64
	ConversionRate  uint64 // 美分 / 原生币，0 表示未设置
	TokenPriceCents uint64
	Paused          bool
}

func DefaultOptions() Options {
	return Options{
		MinimumPurchase: 300,
		MinimumSold:     2000000,
		TokenPriceCents: 10,
		Paused:          true,
	}
}

// 众筹合约：直接支付、手工录入与失败后的退款
type HotokenReservation struct {
	address string
	owner   Ownable
	tokens  TokenLedger
	state   *State
}

func New(opts Options, owner Ownable, tokens TokenLedger) (*HotokenReservation, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("%w: 合约地址不能为空", ErrInvalidArgument)
	}
	if opts.TokenPriceCents == 0 {
		return nil, fmt.Errorf("%w: 代币价格不能为 0", ErrInvalidArgument)
	}
	minPurchase, err := toAtto(uint256.NewInt(opts.MinimumPurchase))
	if err != nil {
		return nil, err
	}
	minSold, err := toAtto(uint256.NewInt(opts.MinimumSold))
	if err != nil {
		return nil, err
	}
	return &HotokenReservation{
		address: opts.Address,
		owner:   owner,
		tokens:  tokens,
		state: &State{
			Thresholds: Thresholds{MinimumPurchase: minPurchase, MinimumSold: minSold},
			Whitelist:  NewWhitelist(),
			Rate: RateOracle{
				Cents:           uint256.NewInt(opts.ConversionRate),
				TokenPriceCents: uint256.NewInt(opts.TokenPriceCents),
			},
			Ledger: NewLedger(),
			Sale:   SaleState{Paused: opts.Paused},
		},
	}, nil
}

func (r *HotokenReservation) Address() string {
	return r.address
}

// 部署到 VM：收到转账时执行 Contribute，并参与交易快照
func (r *HotokenReservation) Deploy(vm *contract.VM) {
	vm.Deploy(r.address, r.Contribute)
	vm.Register(r)
}

func (r *HotokenReservation) onlyOwner(ctx *contract.Context) error {
	if !r.owner.IsOwner(ctx.Caller()) {
		return fmt.Errorf("%w: %s 不是合约所有者", ErrUnauthorized, ctx.Caller())
	}
	return nil
}

func (r *HotokenReservation) GetMinimumPurchase() *uint256.Int {
	return copyAmount(r.state.Thresholds.MinimumPurchase)
}

// n 为整数美元
func (r *HotokenReservation) SetMinimumPurchase(ctx *contract.Context, n *uint256.Int) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	v, err := toAtto(n)
	if err != nil {
		return err
	}
	r.state.Thresholds.MinimumPurchase = v
	return nil
}

func (r *HotokenReservation) GetMinimumSold() *uint256.Int {
	return copyAmount(r.state.Thresholds.MinimumSold)
}

func (r *HotokenReservation) SetMinimumSold(ctx *contract.Context, n *uint256.Int) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	v, err := toAtto(n)
	if err != nil {
		return err
	}
	r.state.Thresholds.MinimumSold = v
	return nil
}

func (r *HotokenReservation) AddToWhitelist(ctx *contract.Context, address string) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	if address == "" {
		return fmt.Errorf("%w: 地址不能为空", ErrInvalidArgument)
	}
	r.state.Whitelist.Add(address)
	return nil
}

func (r *HotokenReservation) RemoveFromWhitelist(ctx *contract.Context, address string) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	r.state.Whitelist.Remove(address)
	return nil
}

func (r *HotokenReservation) IsWhitelisted(address string) bool {
	return r.state.Whitelist.IsMember(address)
}

func (r *HotokenReservation) GetWhitelist() []string {
	return r.state.Whitelist.List()
}

// 覆盖当前汇率，已记录的支付不受影响
func (r *HotokenReservation) SetConversionRate(ctx *contract.Context, cents *uint256.Int) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	r.state.Rate.Cents = copyAmount(cents)
	return nil
}

func (r *HotokenReservation) GetConversionRate() *uint256.Int {
	return copyAmount(r.state.Rate.Cents)
}

// 按当前汇率试算
func (r *HotokenReservation) Quote(native *uint256.Int) (Quote, error) {
	return r.state.Rate.Quote(native)
}

func (r *HotokenReservation) SetPause(ctx *contract.Context, paused bool) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	r.state.Sale.Paused = paused
	return nil
}

func (r *HotokenReservation) SetSaleFinished(ctx *contract.Context, finished bool) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	r.state.Sale.Finished = finished
	return nil
}

func (r *HotokenReservation) IsPaused() bool {
	return r.state.Sale.Paused
}

func (r *HotokenReservation) IsSaleFinished() bool {
	return r.state.Sale.Finished
}

func (r *HotokenReservation) GetDirectAmount(address string) *uint256.Int {
	return r.state.Ledger.DirectAmount(address)
}

func (r *HotokenReservation) GetDirectTokenCredit(address string) *uint256.Int {
	return r.state.Ledger.DirectTokens(address)
}

func (r *HotokenReservation) GetManualTokenCredit(address string) *uint256.Int {
	return r.state.Ledger.ManualTokens(address)
}

func (r *HotokenReservation) GetManualEntries(address string) []meta.ManualEntry {
	return r.state.Ledger.ManualEntries(address)
}

func (r *HotokenReservation) GetTotalSold() *uint256.Int {
	return copyAmount(r.state.Ledger.TotalSold)
}

// 对外余额 = 直接代币 + 手工代币
func (r *HotokenReservation) BalanceOf(address string) *uint256.Int {
	return r.tokens.BalanceOf(address)
}

// 直接支付入口，也是合约的 Fallback
func (r *HotokenReservation) Contribute(ctx *contract.Context) error {
	backer := ctx.Caller()
	if r.state.Sale.Paused {
		return fmt.Errorf("%w: 合约已暂停", ErrInvalidState)
	}
	if !r.state.Whitelist.IsMember(backer) {
		return fmt.Errorf("%w: %s 不在白名单中", ErrUnauthorized, backer)
	}
	value := ctx.Value()
	if value.IsZero() {
		return fmt.Errorf("%w: 支付金额为 0", ErrInvalidArgument)
	}
	q, err := r.state.Rate.Quote(value)
	if err != nil {
		return err
	}
	if err := r.RecordDirectContribution(backer, value, q); err != nil {
		return err
	}
	ctx.Emit(meta.DirectContributionEvent, meta.DirectContribution{
		Backer: backer,
		Amount: value,
		USD:    q.USD,
		Tokens: q.Tokens,
	})
	ctx.Infof("收到 %s 的直接支付 %s，折合 %s atto-dollar，发放代币 %s", backer, value.Dec(), q.USD.Dec(), q.Tokens.Dec())
	return nil
}

// 记账并发放代币，不做任何门槛检查
func (r *HotokenReservation) RecordDirectContribution(backer string, native *uint256.Int, q Quote) error {
	if err := r.state.Ledger.RecordDirectContribution(backer, native, q); err != nil {
		return err
	}
	return r.tokens.CreditBalance(backer, q.Tokens)
}

// 手工录入线下（其他币种）购买，永远不能通过直接退款取回
func (r *HotokenReservation) AddToLedgerManual(ctx *contract.Context, e meta.ManualEntry) error {
	if err := r.onlyOwner(ctx); err != nil {
		return err
	}
	if e.Backer == "" {
		return fmt.Errorf("%w: 地址不能为空", ErrInvalidArgument)
	}
	e = e.Copy()
	usd, err := r.state.Ledger.RecordManualEntry(e)
	if err != nil {
		return err
	}
	if err := r.tokens.CreditBalance(e.Backer, e.Tokens); err != nil {
		return err
	}
	ctx.Emit(meta.ManualContributionEvent, meta.ManualContribution{
		Backer:   e.Backer,
		Currency: e.Currency,
		USD:      usd,
		Tokens:   e.Tokens,
	})
	return nil
}

func (r *HotokenReservation) Snapshot() interface{} {
	return r.state.Copy()
}

func (r *HotokenReservation) Restore(snapshot interface{}) {
	r.state = snapshot.(*State)
}

// 交易提交时与账户状态写入同一批次
func (r *HotokenReservation) Persist(w levelDB.Writer) error {
	bytes, err := json.Marshal(r.state)
	if err != nil {
		return err
	}
	w.Put(common.ReservationStateKey, bytes)
	return nil
}

// 从磁盘恢复已提交的状态（在节点启动时执行），磁盘为空时保留部署参数
func (r *HotokenReservation) GetFromDisk(db *levelDB.DB) error {
	bytes, err := db.Get(common.ReservationStateKey)
	if err != nil {
		return err
	}
	if bytes == nil {
		return nil
	}
	s := &State{}
	if err := json.Unmarshal(bytes, s); err != nil {
		return err
	}
	if s.Whitelist.Members == nil {
		s.Whitelist = NewWhitelist()
	}
	if s.Ledger.Backers == nil {
		s.Ledger.Backers = map[string]*meta.Backer{}
	}
	r.state = s.Copy()
	log.Infof("从磁盘恢复众筹状态：%d 个支持者，已售 %s", len(s.Ledger.Backers), r.state.Ledger.TotalSold.Dec())
	return nil
}
