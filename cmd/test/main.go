// Command test is a read-only smoke run against a live RPC endpoint.
//
//	go run ./cmd/test -token 0x...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/nadfun/trading-mcp/internal/address"
	"github.com/nadfun/trading-mcp/internal/app"
	"github.com/nadfun/trading-mcp/internal/config"
	"github.com/nadfun/trading-mcp/internal/ethereum"
	"github.com/nadfun/trading-mcp/internal/trading"
	"github.com/nadfun/trading-mcp/pkg/decimal"
)

func main() {
	tokenFlag := flag.String("token", "", "token address to quote")
	amountFlag := flag.String("amount", "0.01", "MON amount for the buy quote")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}
	defer a.Close()

	testBalanceQuery(ctx, a.Client, a.Wallet.Address().Hex())

	if *tokenFlag == "" {
		logger.Info("No -token given, skipping route and quote checks")
		return
	}
	token, err := address.Parse(*tokenFlag)
	if err != nil {
		logger.Fatal("Invalid token", zap.Error(err))
	}
	amount, err := decimal.ParseAmount(*amountFlag, 18)
	if err != nil {
		logger.Fatal("Invalid amount", zap.Error(err))
	}

	testRoute(ctx, a.Trader, token)
	testQuotes(ctx, a.Trader, token, amount)

	logger.Info("Smoke run completed")
}

var (
	header = color.New(color.FgCyan, color.Bold)
	failed = color.New(color.FgRed)
)

func section(name string) {
	header.Printf("\n=== %s ===\n", name)
}

func printJSON(label string, v interface{}) {
	body, _ := json.MarshalIndent(v, "", "  ")
	fmt.Printf("%s: %s\n", label, string(body))
}

func testBalanceQuery(ctx context.Context, client *ethereum.EthereumClient, addr string) {
	section("Balance")
	balance, err := client.GetBalance(ctx, addr, nil)
	if err != nil {
		failed.Printf("Error getting MON balance: %v\n", err)
		return
	}
	printJSON("MON Balance", balance)
}

func testRoute(ctx context.Context, trader *trading.Trader, token common.Address) {
	section("Route")
	route, err := trader.ResolveRouter(ctx, token)
	if err != nil {
		failed.Printf("Error resolving router: %v\n", err)
		return
	}
	locked, err := trader.IsLocked(ctx, token)
	if err != nil {
		failed.Printf("Error reading lock status: %v\n", err)
	}
	state, err := trader.CurveState(ctx, token)
	if err != nil {
		failed.Printf("Error reading curve: %v\n", err)
		return
	}
	printJSON("Curve", ethereum.NewCurveResponse(token, route, locked, state))
}

func testQuotes(ctx context.Context, trader *trading.Trader, token common.Address, amountIn *big.Int) {
	section("Quotes")
	buy, err := trader.Quote(ctx, token, amountIn, trading.DirectionBuy)
	if err != nil {
		failed.Printf("Error quoting buy: %v\n", err)
		return
	}
	fmt.Printf("Buy %s MON -> %s tokens via %s (dex=%t)\n",
		decimal.FromWei(amountIn), decimal.FromWei(buy.Amount), buy.Router.Hex(), buy.IsDex)
	fmt.Printf("Min at 5%% slippage: %s\n", decimal.FromWei(trading.MinAcceptable(buy.Amount, 5)))

	sell, err := trader.Quote(ctx, token, buy.Amount, trading.DirectionSell)
	if err != nil {
		failed.Printf("Error quoting sell: %v\n", err)
		return
	}
	fmt.Printf("Sell back -> %s MON\n", decimal.FromWei(sell.Amount))
}
