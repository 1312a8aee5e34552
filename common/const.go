package common

// levelDB 中所有账户的key （key: AccountsKey - val: map[地址]meta.Account）
const AccountsKey = "levelDBAccountsKey"

// levelDB 中众筹合约全局状态的key
const ReservationStateKey = "levelDBReservationStateKey"

// redis 中已提交交易日志的列表key（可通过配置覆盖）
const EventListKey = "hotoken:events"

// Faucet 账户（用于注册账户时给新账户转账，方便测试）
const FaucetAccountAddress = "FaucetAccountAddress"

// 前端校验码，必须为20000
const ResponseCode = 20000

// 合约最大调用深度
const MaxCallDepth = 1024
