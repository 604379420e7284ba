package main

import (
	"flag"
	"math/big"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/nando-os/ghost-rpc/eth"
	"github.com/nando-os/ghost-rpc/pkg/jsonrpc"
	"github.com/nando-os/ghost-rpc/pkg/primitives"
)

var (
	toFlag      = flag.String("to", "", "recipient address, defaults to the second configured account")
	valueFlag   = flag.String("value", "1000000000000000", "amount to send in wei")
	waitFlag    = flag.Bool("wait", true, "wait for the transaction to be mined")
	metricsAddr = flag.String("metrics", "", "serve prometheus metrics on this address, e.g. :9100")
)

func setup() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.WithError(err).Warn("error loading .env file")
	}

	// To route RPC traffic through TOR set:
	// HTTP_PROXY=socks5://127.0.0.1:9050
	// HTTPS_PROXY=socks5://127.0.0.1:9050
	logrus.WithFields(logrus.Fields{
		"ETH_RPC_URL":  os.Getenv("ETH_RPC_URL"),
		"ETH_CHAIN_ID": os.Getenv("ETH_CHAIN_ID"),
		"ETH_ACCOUNTS": os.Getenv("ETH_ACCOUNTS"),
		"HTTPS_PROXY":  os.Getenv("HTTPS_PROXY"),
	}).Info("Environment check")
}

func main() {
	flag.Parse()
	setup()

	var opts []jsonrpc.Option
	if *metricsAddr != "" {
		opts = append(opts, jsonrpc.WithMetrics(jsonrpc.NewMetrics(nil)))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logrus.WithField("addr", *metricsAddr).Info("Serving metrics")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	config, err := eth.NewConfiguration()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	accounts := config.Accounts()
	if len(accounts) == 0 {
		logrus.Fatal("No accounts found in configuration")
	}
	sender := accounts[0]

	var recipient primitives.Address
	switch {
	case *toFlag != "":
		if recipient, err = primitives.ParseAddress(*toFlag); err != nil {
			logrus.WithError(err).Fatal("Invalid recipient")
		}
	case len(accounts) > 1:
		recipient = accounts[1].Address
	default:
		logrus.Fatal("No recipient given and only one account configured")
	}

	wei, ok := new(big.Int).SetString(*valueFlag, 10)
	if !ok {
		logrus.WithField("value", *valueFlag).Fatal("Invalid value")
	}
	value, err := primitives.QuantityFromBig(wei)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid value")
	}

	client, err := eth.NewGhostClient(sender, config, opts...)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create client")
	}
	defer client.Close()

	tx := &eth.Transaction{
		From:  sender.Address,
		To:    &recipient,
		Value: &value,
	}

	logrus.Info("Signing transaction...")
	signedTx, err := client.SignTransaction(tx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to sign transaction")
	}

	logrus.Info("Sending transaction...")
	receipt, err := client.SendTransaction(signedTx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to send transaction")
	}
	logrus.WithFields(logrus.Fields{
		"hash": receipt.TxHash.Hex(),
		"from": receipt.From.Checksum(),
		"to":   recipient.Checksum(),
		"type": signedTx.Type(),
	}).Info("Transaction sent")

	if *waitFlag {
		logrus.Info("Waiting for transaction confirmation...")
		confirmed, err := client.WaitForTransaction(receipt.TxHash)
		if err != nil {
			logrus.WithError(err).Fatal("Transaction failed")
		}
		entry := logrus.WithFields(logrus.Fields{
			"block":   confirmed.BlockNumber,
			"gasUsed": confirmed.GasUsed,
			"status":  confirmed.Status,
		})
		if confirmed.Status == 1 {
			entry.Info("Transaction successful")
		} else {
			entry.Warn("Transaction reverted")
		}
	}

	balance, err := client.GetBalance(sender.Address)
	if err != nil {
		logrus.WithError(err).Error("Failed to get balance")
		return
	}
	logrus.WithField("wei", balance.String()).Info("Current balance")
}
