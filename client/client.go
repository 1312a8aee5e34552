package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/hotoken/config"
	"github.com/hotoken/contract"
	"github.com/hotoken/event"
	"github.com/hotoken/reservation"
	"github.com/unrolled/secure"
)

// 最近日志的读取方，redis.Publisher 实现了该接口
type LogReader interface {
	Recent(ctx context.Context, n int64) ([]json.RawMessage, error)
}

type Server struct {
	vm          *contract.VM
	h           *reservation.HotokenReservation
	bus         *event.Bus
	events      LogReader // 未启用 redis 时为空
	initBalance *uint256.Int
	addr        string
	engine      *gin.Engine
}

func NewServer(vm *contract.VM, h *reservation.HotokenReservation, bus *event.Bus, events LogReader,
	initBalance *uint256.Int, cfg config.HTTPConfig) *Server {
	s := &Server{
		vm:          vm,
		h:           h,
		bus:         bus,
		events:      events,
		initBalance: initBalance,
		addr:        cfg.Addr,
	}

	r := gin.Default()
	r.Use(Cors()) // 使用跨域组件
	if cfg.SSLRedirect {
		r.Use(TlsHandler(cfg.SSLHost)) // 重定向为https
	}
	r.POST("/postTran", s.postTran)              // 提交一笔交易
	r.GET("/registerAccount", s.registerAccount) // 注册账户
	r.POST("/query", s.query)                    // 查询合约状态
	r.GET("/getLog", s.getLog)                   // 与前端建立websocket
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// 监听用户请求
func (s *Server) Run() error {
	log.Info(" ---------------------------------------------------------------------------------")
	log.Infof("|  众筹合约 %s 已启动，监听 %s  |", s.h.Address(), s.addr)
	log.Info(" ---------------------------------------------------------------------------------")
	return s.engine.Run(s.addr)
}

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization")
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func TlsHandler(host string) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     host,
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// If there was an error, do not continue.
		if err != nil {
			c.Abort()
			return
		}
		// Avoid header rewrite if response is a redirection.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
