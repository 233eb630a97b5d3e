// visitctl 拜访计划运维命令行：迁移、离线导入、模板与日期预览
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pharmadms/internal/cli"
)

func main() {
	// Ctrl-C 取消上下文：导入中止剩余行，已写入的计划与批次统计保留
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
