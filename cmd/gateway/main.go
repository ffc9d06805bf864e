// 認証付きリバースプロキシgatewayのエントリポイント。
// フォームログイン、JWT発行、接頭辞ルーティングによる上流への転送を担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chavadeepthi/medilaboGateway/internal/gateway"
)

func main() {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := gateway.NewServer(cfg)
	if err != nil {
		log.Fatalf("gatewayサーバーの初期化に失敗: %v", err)
	}

	// SIGTERM/SIGINTで処理中リクエストを完了させてから停止する
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	log.Printf("gatewayサービスを起動します: :%s", cfg.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("gatewayサービスの起動に失敗: %v", err)
	}
}
