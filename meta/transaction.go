package meta

// 交易执行状态
const (
	TxSuccess = "success"
	TxFailed  = "failed"
)

// 用户提交的交易
type PostTran struct {
	From     string            `json:"from"`
	Contract string            `json:"contract"` // 为空时调用众筹合约
	Method   string            `json:"method"`   // 为空时执行 Fallback（直接支付）
	Args     map[string]string `json:"args"`
	Value    string            `json:"value"` // 十进制字符串，原生币最小单位
}

// 交易回执
type Receipt struct {
	ID       string `json:"id"`
	Hash     string `json:"hash"`
	From     string `json:"from"`
	Contract string `json:"contract"`
	Method   string `json:"method"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Logs     []Log  `json:"logs"`
}

// 链上查询请求
type Query struct {
	Type       string   `json:"type"`
	Parameters []string `json:"parameters"`
}

type HttpResponse struct {
	Error string      `json:"error"` // 如果不为空代表错误信息
	Kind  string      `json:"kind,omitempty"`
	Data  interface{} `json:"data"`
	Code  int         `json:"code"` // vue-element-admin的前端校验码，必须为20000
}
