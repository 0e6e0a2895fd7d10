// Package chain looks up wallet activity on the TON network. Ghost Mode
// consumes a single capability from here: the timestamp of a wallet's most
// recent transaction, or nothing at all.
package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
	"go.uber.org/zap"
)

type ActivityClient struct {
	api ton.APIClientWrapped
	log *zap.Logger
}

// Connect establishes the lite-client connection. With LITE_SERVER_HOST and
// LITE_SERVER_KEY set it pins a specific lite server; otherwise it
// auto-discovers servers from the global TON config for the network.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ActivityClient, error) {
	client := liteclient.NewConnectionPool()

	if cfg.LiteServerHost != "" && cfg.LiteServerKey != "" {
		addr := fmt.Sprintf("%s:%d", cfg.LiteServerHost, cfg.LiteServerPort)
		log.Info("connecting to lite server", zap.String("addr", addr))
		if err := client.AddConnection(ctx, addr, cfg.LiteServerKey); err != nil {
			return nil, fmt.Errorf("connect to lite server %s: %w", addr, err)
		}
	} else {
		var configURL string
		switch strings.ToLower(cfg.TONNetwork) {
		case "mainnet":
			configURL = "https://ton.org/global.config.json"
		default:
			configURL = "https://ton.org/testnet-global.config.json"
		}
		log.Info("connecting via global config", zap.String("url", configURL), zap.String("network", cfg.TONNetwork))
		if err := client.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
			return nil, fmt.Errorf("connect via config %s: %w", configURL, err)
		}
	}

	proofPolicy := ton.ProofCheckPolicyFast
	if strings.ToLower(cfg.TONNetwork) == "mainnet" {
		proofPolicy = ton.ProofCheckPolicySecure
	}

	return &ActivityClient{
		api: ton.NewAPIClient(client, proofPolicy).WithRetry(),
		log: log,
	}, nil
}

// LatestActivity returns the time of the wallet's most recent transaction,
// or nil if the account has never transacted. Errors mean "could not tell";
// the caller must treat that as no activity observed, never as a renewal.
func (c *ActivityClient) LatestActivity(ctx context.Context, wallet string) (*time.Time, error) {
	addr, err := address.ParseRawAddr(wallet)
	if err != nil {
		return nil, fmt.Errorf("parse wallet address: %w", err)
	}

	block, err := c.api.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("get master block: %w", err)
	}

	account, err := c.api.GetAccount(ctx, block, addr)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if account == nil || !account.IsActive || account.LastTxLT == 0 {
		return nil, nil
	}

	txs, err := c.api.ListTransactions(ctx, addr, 1, account.LastTxLT, account.LastTxHash)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, nil
	}

	at := time.Unix(int64(txs[len(txs)-1].Now), 0).UTC()
	return &at, nil
}
