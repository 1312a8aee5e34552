package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/hotoken/common"
	"github.com/hotoken/contract"
	"github.com/hotoken/meta"
	"github.com/hotoken/reservation"
	"github.com/hotoken/util"
)

// 默认返回最近的日志条数
const defaultRecentEvents = 20

// 提交一笔交易，contract 为空时调用众筹合约
func (s *Server) postTran(ctx *gin.Context) {
	pt := meta.PostTran{}
	if err := ctx.ShouldBindJSON(&pt); err != nil {
		log.Errorf("[postTran] json decode err: %s", err)
		ctx.JSON(http.StatusOK, errResponse("交易格式错误"))
		return
	}
	tx, err := s.checkTranParameters(&pt)
	if err != nil {
		ctx.JSON(http.StatusOK, txErrResponse(err, nil))
		return
	}
	fn, err := s.method(&pt)
	if err != nil {
		ctx.JSON(http.StatusOK, txErrResponse(err, nil))
		return
	}

	receipt, err := s.vm.Invoke(tx, fn)
	if err != nil {
		ctx.JSON(http.StatusOK, txErrResponse(err, receipt))
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(receipt))
}

// 检查交易参数并转换为 VM 交易
func (s *Server) checkTranParameters(pt *meta.PostTran) (contract.Tx, error) {
	tx := contract.Tx{Method: pt.Method}
	if pt.From == "" {
		return tx, fmt.Errorf("%w: 发起地址不能为空", reservation.ErrInvalidArgument)
	}
	from, err := util.NormalizeAddress(pt.From)
	if err != nil {
		return tx, fmt.Errorf("%w: 发起地址 %s", reservation.ErrInvalidArgument, err)
	}
	tx.From = from

	tx.To = s.h.Address()
	if pt.Contract != "" {
		to, err := util.NormalizeAddress(pt.Contract)
		if err != nil {
			return tx, fmt.Errorf("%w: 接收地址 %s", reservation.ErrInvalidArgument, err)
		}
		tx.To = to
	}
	if tx.From == tx.To {
		return tx, fmt.Errorf("%w: 发起地址和接收地址不能相同", reservation.ErrInvalidArgument)
	}
	// 非众筹合约只支持转账
	if tx.To != s.h.Address() && pt.Method != "" {
		return tx, fmt.Errorf("%w: %s", contract.ErrUnknownContract, tx.To)
	}

	tx.Value = uint256.NewInt(0)
	if pt.Value != "" {
		v, err := uint256.FromDecimal(pt.Value)
		if err != nil {
			return tx, fmt.Errorf("%w: 转账金额必须为非负整数", reservation.ErrInvalidArgument)
		}
		tx.Value = v
	}
	return tx, s.vm.View(func() error {
		if !s.vm.Accounts().ContainsAddress(tx.From) {
			return fmt.Errorf("%w: 发起地址不存在", reservation.ErrNotFound)
		}
		return nil
	})
}

// 方法名 -> 合约方法，参数在交易执行前解析
func (s *Server) method(pt *meta.PostTran) (contract.Method, error) {
	h := s.h
	args := arguments(pt.Args)
	switch pt.Method {
	case "":
		return nil, nil
	case "contribute":
		return h.Contribute, nil
	case "refund":
		return h.Refund, nil
	case "setMinimumPurchase":
		n, err := args.amount("n")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.SetMinimumPurchase(ctx, n) }, nil
	case "setMinimumSold":
		n, err := args.amount("n")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.SetMinimumSold(ctx, n) }, nil
	case "setPause":
		paused, err := args.boolean("paused")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.SetPause(ctx, paused) }, nil
	case "setSaleFinished":
		finished, err := args.boolean("finished")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.SetSaleFinished(ctx, finished) }, nil
	case "addToWhitelist":
		address, err := args.address("address")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.AddToWhitelist(ctx, address) }, nil
	case "removeFromWhitelist":
		address, err := args.address("address")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.RemoveFromWhitelist(ctx, address) }, nil
	case "setConversionRate":
		rate, err := args.amount("rate")
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.SetConversionRate(ctx, rate) }, nil
	case "addToLedgerManual":
		e, err := args.manualEntry()
		if err != nil {
			return nil, err
		}
		return func(ctx *contract.Context) error { return h.AddToLedgerManual(ctx, e) }, nil
	}
	return nil, fmt.Errorf("%w: 未知方法 %s", reservation.ErrInvalidArgument, pt.Method)
}

type arguments map[string]string

func (a arguments) get(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: 缺少参数 %s", reservation.ErrInvalidArgument, key)
	}
	return v, nil
}

func (a arguments) amount(key string) (*uint256.Int, error) {
	v, err := a.get(key)
	if err != nil {
		return nil, err
	}
	n, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: 参数 %s 必须为非负整数", reservation.ErrInvalidArgument, key)
	}
	return n, nil
}

func (a arguments) boolean(key string) (bool, error) {
	v, err := a.get(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: 参数 %s 必须为 true 或 false", reservation.ErrInvalidArgument, key)
	}
	return b, nil
}

func (a arguments) address(key string) (string, error) {
	v, err := a.get(key)
	if err != nil {
		return "", err
	}
	address, err := util.NormalizeAddress(v)
	if err != nil {
		return "", fmt.Errorf("%w: 参数 %s %s", reservation.ErrInvalidArgument, key, err)
	}
	return address, nil
}

// 未给出的汇率与调整项按 0 处理
func (a arguments) optionalAmount(key string) (*uint256.Int, error) {
	if a[key] == "" {
		return uint256.NewInt(0), nil
	}
	return a.amount(key)
}

func (a arguments) manualEntry() (meta.ManualEntry, error) {
	e := meta.ManualEntry{}
	var err error
	if e.Backer, err = a.address("address"); err != nil {
		return e, err
	}
	if e.Currency, err = a.get("currency"); err != nil {
		return e, err
	}
	if e.USD, err = a.amount("usd"); err != nil {
		return e, err
	}
	if e.RateNumerator, err = a.optionalAmount("rate_numerator"); err != nil {
		return e, err
	}
	if e.RateDenominator, err = a.optionalAmount("rate_denominator"); err != nil {
		return e, err
	}
	if e.Adjustment, err = a.optionalAmount("adjustment"); err != nil {
		return e, err
	}
	if e.Tokens, err = a.amount("tokens"); err != nil {
		return e, err
	}
	return e, nil
}

// 账户注册，由 Faucet 账户转入初始余额
func (s *Server) registerAccount(ctx *gin.Context) {
	address, err := util.NormalizeAddress(ctx.Query("address"))
	if err != nil {
		ctx.JSON(http.StatusOK, txErrResponse(fmt.Errorf("%w: %s", reservation.ErrInvalidArgument, err), nil))
		return
	}
	if s.vm.IsContract(address) {
		ctx.JSON(http.StatusOK, errResponse("不能注册合约地址"))
		return
	}
	exists := false
	_ = s.vm.View(func() error {
		exists = s.vm.Accounts().ContainsAddress(address)
		return nil
	})
	if exists {
		ctx.JSON(http.StatusOK, errResponse("账户已存在"))
		return
	}

	receipt, err := s.vm.Invoke(contract.Tx{
		From:  common.FaucetAccountAddress,
		To:    address,
		Value: s.initBalance,
	}, nil)
	if err != nil {
		log.Errorf("[registerAccount] faucet transfer err: %s", err)
		ctx.JSON(http.StatusOK, txErrResponse(err, receipt))
		return
	}
	log.Infof("注册账户 %s，初始余额 %s", address, s.initBalance.Dec())
	ctx.JSON(http.StatusOK, goodResponse(receipt))
}

// 合约状态查询服务
func (s *Server) query(ctx *gin.Context) {
	q := meta.Query{}
	if err := ctx.ShouldBindJSON(&q); err != nil {
		log.Error("[query],json decode err:", err)
		ctx.JSON(http.StatusOK, errResponse("Query参数有误!"))
		return
	}
	log.Debugf("[client] 收到查询请求: %s %v", q.Type, q.Parameters)

	if q.Type == "getEvents" {
		ctx.JSON(http.StatusOK, s.recentEvents(ctx.Request.Context(), q.Parameters))
		return
	}

	var response meta.HttpResponse
	_ = s.vm.View(func() error {
		response = s.read(q)
		return nil
	})
	ctx.JSON(http.StatusOK, response)
}

// 只读查询，在 VM 锁内执行
func (s *Server) read(q meta.Query) meta.HttpResponse {
	h := s.h
	switch q.Type {
	case "getMinimumPurchase":
		return goodResponse(h.GetMinimumPurchase())
	case "getMinimumSold":
		return goodResponse(h.GetMinimumSold())
	case "getConversionRate":
		return goodResponse(h.GetConversionRate())
	case "totalSold":
		return goodResponse(h.GetTotalSold())
	case "saleState":
		return goodResponse(map[string]bool{
			"paused":        h.IsPaused(),
			"sale_finished": h.IsSaleFinished(),
		})
	case "getWhitelist":
		return goodResponse(h.GetWhitelist())
	case "quote":
		if len(q.Parameters) < 1 {
			return errResponse("参数错误")
		}
		native, err := uint256.FromDecimal(q.Parameters[0])
		if err != nil {
			return errResponse("参数错误")
		}
		quote, err := h.Quote(native)
		if err != nil {
			return txErrResponse(err, nil)
		}
		return goodResponse(map[string]*uint256.Int{"usd": quote.USD, "tokens": quote.Tokens})
	}

	// 以下查询需要地址参数
	if len(q.Parameters) < 1 {
		log.Info("查询缺少地址参数")
		return errResponse("参数错误")
	}
	address, err := util.NormalizeAddress(q.Parameters[0])
	if err != nil {
		return errResponse("地址格式错误")
	}
	switch q.Type {
	case "balanceOf":
		return goodResponse(h.BalanceOf(address))
	case "ethAmount":
		return goodResponse(h.GetDirectAmount(address))
	case "directEthTokens":
		return goodResponse(h.GetDirectTokenCredit(address))
	case "manualTokens":
		return goodResponse(h.GetManualTokenCredit(address))
	case "manualEntries":
		return goodResponse(h.GetManualEntries(address))
	case "isWhitelisted":
		return goodResponse(h.IsWhitelisted(address))
	case "nativeBalance":
		return goodResponse(s.vm.Accounts().NativeBalance(address))
	}
	log.Info("Query参数有误!")
	return errResponse("Query参数有误!")
}

func (s *Server) recentEvents(ctx context.Context, params []string) meta.HttpResponse {
	if s.events == nil {
		return errResponse("未启用 redis 日志")
	}
	n := int64(defaultRecentEvents)
	if len(params) > 0 {
		v, err := strconv.ParseInt(strings.TrimSpace(params[0]), 10, 64)
		if err != nil || v <= 0 {
			return errResponse("参数错误")
		}
		n = v
	}
	logs, err := s.events.Recent(ctx, n)
	if err != nil {
		log.Errorf("[getEvents] redis err: %s", err)
		return errResponse("获取日志失败")
	}
	return goodResponse(logs)
}

// 正常响应，返回数据
func goodResponse(data interface{}) meta.HttpResponse {
	return meta.HttpResponse{
		Data: data,
		Code: common.ResponseCode,
	}
}

// 出现异常，返回异常信息
func errResponse(errMsg string) meta.HttpResponse {
	return meta.HttpResponse{
		Error: errMsg,
		Data:  "",
		Code:  common.ResponseCode,
	}
}

// 交易失败，附带原因标签与回执
func txErrResponse(err error, receipt *meta.Receipt) meta.HttpResponse {
	res := errResponse(err.Error())
	res.Kind = reservation.Kind(err)
	if receipt != nil {
		res.Data = receipt
	}
	return res
}
