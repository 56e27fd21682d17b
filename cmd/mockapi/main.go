package main

import (
	"flag"
	"net/http"

	"taskclient/internal/logger"
	"taskclient/internal/mockapi"

	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	secret := flag.String("secret", "mockapi-dev-secret", "JWT signing secret")
	flag.Parse()

	if err := logger.Init("debug", true); err != nil {
		panic(err)
	}
	defer logger.Sync()

	server := mockapi.New(*secret)
	logger.Info("mock backend listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, server.Handler()); err != nil {
		logger.Error("server stopped", err)
	}
}
