package reservation

import (
	"errors"

	"github.com/hotoken/account"
	"github.com/hotoken/contract"
)

// 交易失败的原因标签，调用方根据标签决定是否重新提交
var (
	ErrUnauthorized    = errors.New("Unauthorized")
	ErrInvalidState    = errors.New("InvalidState")
	ErrNotFound        = errors.New("NotFound")
	ErrInvalidArgument = errors.New("InvalidArgument")
)

// Kind 返回错误对应的原因标签，无法归类时返回空字符串
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized), errors.Is(err, contract.ErrContractSender):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrInvalidState):
		return ErrInvalidState.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, account.ErrOverflow):
		return ErrInvalidArgument.Error()
	case errors.Is(err, account.ErrInsufficientBalance), errors.Is(err, contract.ErrCallDepth):
		return ErrInvalidState.Error()
	case errors.Is(err, contract.ErrUnknownContract):
		return ErrNotFound.Error()
	}
	return ""
}
