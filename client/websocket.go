package client

import (
	"net/http"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// 订阅者缓冲区，推送过慢时日志被丢弃
const logBuffer = 64

var upGrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 使用WebSocket向前端推送已提交交易的合约日志
func (s *Server) getLog(c *gin.Context) {
	// 在握手前订阅，握手完成后提交的交易都能收到
	logs, cancel := s.bus.Subscribe(logBuffer)
	defer cancel()

	// 升级请求为WebSocket协议
	ws, err := upGrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Info("Upgrade failed: ", err)
		return
	}
	defer ws.Close()

	// 前端断开时结束推送
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case l, ok := <-logs:
			if !ok {
				return
			}
			if err := ws.WriteJSON(l); err != nil {
				log.Info(err)
				return
			}
		}
	}
}
