package main

import (
	"context"
	"fmt"

	"github.com/cloudflare/cfssl/log"
	"github.com/holiman/uint256"
	"github.com/hotoken/account"
	"github.com/hotoken/client"
	"github.com/hotoken/common"
	"github.com/hotoken/config"
	"github.com/hotoken/contract"
	"github.com/hotoken/event"
	"github.com/hotoken/levelDB"
	"github.com/hotoken/redis"
	"github.com/hotoken/reservation"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动众筹合约节点与 HTTP 接口",
		Long: `启动众筹合约节点。

示例:
  hotoken serve --config ./config/config.yaml
  HOTOKEN_RESERVATION_OWNER=0x... hotoken serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(c)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "yaml 配置文件路径")
	return cmd
}

func serve(c *config.Config) error {
	c.ApplyLogLevel()

	db, err := levelDB.Open(c.DB.Path)
	if err != nil {
		return fmt.Errorf("打开 leveldb 失败: %w", err)
	}
	defer db.Close()

	// 账户状态
	accounts := account.NewState()
	if err := accounts.GetFromDisk(db); err != nil {
		return fmt.Errorf("读取账户失败: %w", err)
	}
	if !accounts.ContainsAddress(common.FaucetAccountAddress) {
		accounts.CreateAccount(common.FaucetAccountAddress, new(uint256.Int).SetAllOne())
	}

	// 日志总线
	bus := event.NewBus()
	var events client.LogReader
	if c.Redis.Enabled {
		p := redis.NewPublisher(c.Redis.Addr, c.Redis.Password, c.Redis.DB, c.Redis.ListKey)
		defer p.Close()
		if err := p.Ping(context.Background()); err != nil {
			return fmt.Errorf("连接 redis 失败: %w", err)
		}
		bus.AddSink(p)
		events = p
		log.Infof("合约日志写入 redis 列表 %s", c.Redis.ListKey)
	}

	vm := contract.NewVM(accounts, db, bus)

	// 众筹合约
	h, err := reservation.New(c.ReservationOptions(), reservation.Owner(c.Reservation.Owner), accounts)
	if err != nil {
		return err
	}
	if err := h.GetFromDisk(db); err != nil {
		return fmt.Errorf("读取众筹状态失败: %w", err)
	}
	h.Deploy(vm)
	log.Infof("众筹合约地址 %s，所有者 %s", h.Address(), c.Reservation.Owner)

	initBalance, err := c.InitBalance()
	if err != nil {
		return err
	}
	return client.NewServer(vm, h, bus, events, initBalance, c.HTTP).Run()
}
