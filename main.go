/*
 * @Description: 程序入口：启动 HTTP 服务，或以 -stdin 模式过滤标准输入
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 17:35:48
 * @LastEditors: 安知鱼
 */
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anzhiyu-c/anheyu-content-filter/cmd/server"
	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/parser"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/config"
)

// @title           Anheyu Content Filter API
// @version         1.0
// @description     移除文章标题中加粗标签的内容过滤服务
// @contact.name    安知鱼
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8091
// @BasePath        /api
func main() {
	var (
		fromStdin  bool
		configPath string
	)
	flag.BoolVar(&fromStdin, "stdin", false, "从标准输入读取 HTML 片段，过滤后写到标准输出并退出")
	flag.StringVar(&configPath, "config", config.DefaultFilePath, "配置文件路径")
	flag.Parse()

	if fromStdin {
		if err := filterStdin(os.Stdin, os.Stdout); err != nil {
			log.Fatalf("过滤标准输入失败: %v", err)
		}
		return
	}

	cfg, err := config.NewConfigFromFile(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	app, cleanup, err := server.NewAppWithConfig(cfg)
	if err != nil {
		log.Fatalf("应用初始化失败: %v", err)
	}
	defer cleanup()
	defer app.Stop()

	app.PrintBanner()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Printf("收到信号 %s，正在关闭服务...", sig)
		app.Stop()
	}()

	if err := app.Run(); err != nil {
		log.Printf("应用运行失败: %v", err)
	}
}

// filterStdin 不经过 Gate，直接对整段输入执行标题加粗过滤
func filterStdin(r io.Reader, w io.Writer) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("读取输入失败: %w", err)
	}
	out := bufio.NewWriter(w)
	if _, err := out.WriteString(parser.StripHeadingEmphasis(string(input))); err != nil {
		return fmt.Errorf("写入输出失败: %w", err)
	}
	return out.Flush()
}
