package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/internal/apperror"
	"github.com/crosspool/poolarb/internal/config"
	"github.com/crosspool/poolarb/internal/logger"
)

// Router ABI surface the executor speaks. The router exposes a view
// simulation returning (profit, slippageBps) and a state-changing
// execute that emits ArbitrageExecuted(profit) on success.
var (
	simulateSelector = crypto.Keccak256([]byte("simulateArbitrage(bytes32,bytes32,uint256,uint256,uint256)"))[:4]
	executeSelector  = crypto.Keccak256([]byte("executeArbitrage(bytes32,bytes32,uint256,uint256,uint256)"))[:4]
	executedTopic    = crypto.Keccak256Hash([]byte("ArbitrageExecuted(uint256)"))
)

// tokenDecimals is the fixed-point scale of router amounts.
const tokenDecimals = 18

const receiptPollInterval = 2 * time.Second

// Executor submits arbitrage trades through the router contract. It is
// the live implementation of the pipeline's trade executor port.
type Executor struct {
	cfg    config.ExecutionConfig
	logger logger.LoggerInterface
	oracle *GasOracle
	tracer trace.Tracer

	clientMu sync.RWMutex
	client   *ethclient.Client

	key    *ecdsa.PrivateKey
	wallet common.Address
	router common.Address
}

// NewExecutor creates a live executor. Connect before first use.
func NewExecutor(cfg config.ExecutionConfig, oracle *GasOracle, log logger.LoggerInterface) (*Executor, error) {
	e := &Executor{
		cfg:    cfg,
		logger: log,
		oracle: oracle,
		tracer: otel.Tracer(tracerName),
		router: cfg.RouterAddressHex(),
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(cfg.PrivateKey)
		if err != nil {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("invalid execution private key"))
		}
		e.key = key
		e.wallet = crypto.PubkeyToAddress(key.PublicKey)
	}

	return e, nil
}

// Connect dials the Ethereum node.
func (e *Executor) Connect(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "executor.connect",
		trace.WithAttributes(attribute.String("url", e.cfg.EthereumHTTPURL)),
	)
	defer span.End()

	client, err := ethclient.DialContext(ctx, e.cfg.EthereumHTTPURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect executor"))
	}

	e.clientMu.Lock()
	e.client = client
	e.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	e.logger.Info(ctx, "executor connected",
		"url", e.cfg.EthereumHTTPURL, "wallet", e.wallet.Hex(), "router", e.router.Hex())
	return nil
}

// Simulate runs the router's view simulation. No state changes.
func (e *Executor) Simulate(ctx context.Context, action domain.TradeAction) (domain.SimulationOutcome, error) {
	ctx, span := e.tracer.Start(ctx, "executor.simulate",
		trace.WithAttributes(attribute.String("opportunity.id", action.OpportunityID)),
	)
	defer span.End()

	client := e.getClient()
	if client == nil {
		return domain.SimulationOutcome{}, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("executor not connected"))
	}

	data := packCall(simulateSelector, action)

	out, err := client.CallContract(ctx, ethereum.CallMsg{
		From: e.wallet,
		To:   &e.router,
		Data: data,
	}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return domain.SimulationOutcome{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("simulation call failed"))
	}
	if len(out) < 64 {
		return domain.SimulationOutcome{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext(fmt.Sprintf("short simulation return: %d bytes", len(out))))
	}

	profit := decimal.NewFromBigInt(new(big.Int).SetBytes(out[:32]), -tokenDecimals)
	slippageBps := new(big.Int).SetBytes(out[32:64])
	slippage := decimal.NewFromBigInt(slippageBps, -4) // bps to fraction

	gasEst, err := e.oracle.GetGasEstimate(ctx, data, e.router)
	if err != nil {
		span.RecordError(err)
		return domain.SimulationOutcome{}, err
	}

	outcome := domain.SimulationOutcome{
		Success:           true,
		EstimatedProfit:   profit,
		EstimatedGas:      gasEst.CostEther(),
		EstimatedSlippage: slippage,
	}

	span.SetAttributes(
		attribute.String("profit", profit.String()),
		attribute.String("slippage", slippage.String()),
	)
	span.SetStatus(codes.Ok, "simulated")
	return outcome, nil
}

// Submit signs and sends the trade, then waits for the receipt inside
// the caller's deadline.
func (e *Executor) Submit(ctx context.Context, action domain.TradeAction) (domain.SubmissionOutcome, error) {
	ctx, span := e.tracer.Start(ctx, "executor.submit",
		trace.WithAttributes(attribute.String("opportunity.id", action.OpportunityID)),
	)
	defer span.End()

	client := e.getClient()
	if client == nil {
		return domain.SubmissionOutcome{}, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("executor not connected"))
	}
	if e.key == nil {
		return domain.SubmissionOutcome{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no signing key configured"))
	}

	data := packCall(executeSelector, action)

	nonce, err := client.PendingNonceAt(ctx, e.wallet)
	if err != nil {
		span.RecordError(err)
		return domain.SubmissionOutcome{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch nonce"))
	}

	gasEst, err := e.oracle.GetGasEstimate(ctx, data, e.router)
	if err != nil {
		span.RecordError(err)
		return domain.SubmissionOutcome{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &e.router,
		Gas:      gasEst.GasLimit,
		GasPrice: gasEst.Price.Wei,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(e.cfg.ChainID)), e.key)
	if err != nil {
		span.RecordError(err)
		return domain.SubmissionOutcome{}, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to sign transaction"))
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return domain.SubmissionOutcome{}, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to send transaction"))
	}

	txHash := signed.Hash()
	span.SetAttributes(attribute.String("tx.hash", txHash.Hex()))
	e.logger.Info(ctx, "transaction submitted", "tx_hash", txHash.Hex(), "nonce", nonce)

	receipt, err := e.waitReceipt(ctx, client, txHash)
	if err != nil {
		span.RecordError(err)
		return domain.SubmissionOutcome{}, err
	}

	outcome := domain.SubmissionOutcome{
		ReferenceID: txHash.Hex(),
		GasCost:     receiptGasCost(receipt, gasEst.Price.Wei),
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		span.SetStatus(codes.Error, "transaction reverted")
		return outcome, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithContext(fmt.Sprintf("transaction %s reverted", txHash.Hex())))
	}

	outcome.Success = true
	outcome.RealizedProfit = profitFromLogs(receipt.Logs)

	span.SetAttributes(attribute.String("realized_profit", outcome.RealizedProfit.String()))
	span.SetStatus(codes.Ok, "confirmed")
	return outcome, nil
}

func (e *Executor) waitReceipt(ctx context.Context, client *ethclient.Client, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeServiceTimeout,
				apperror.WithCause(ctx.Err()),
				apperror.WithContext(fmt.Sprintf("timed out waiting for receipt %s", txHash.Hex())))
		case <-ticker.C:
		}
	}
}

func (e *Executor) getClient() *ethclient.Client {
	e.clientMu.RLock()
	defer e.clientMu.RUnlock()
	return e.client
}

// Close releases the node connection.
func (e *Executor) Close() error {
	e.clientMu.Lock()
	defer e.clientMu.Unlock()

	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
	return nil
}

// packCall abi-encodes (bytes32 buyPool, bytes32 sellPool, uint256
// amount, uint256 minProfit, uint256 deadline) after the selector. Pool
// ids are keyed by hash since the router maintains its own registry.
func packCall(selector []byte, action domain.TradeAction) []byte {
	data := make([]byte, 0, 4+5*32)
	data = append(data, selector...)
	data = append(data, crypto.Keccak256(([]byte)(action.BuyPoolID))...)
	data = append(data, crypto.Keccak256(([]byte)(action.SellPoolID))...)
	data = append(data, common.LeftPadBytes(toTokenUnits(action.Amount).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(toTokenUnits(action.MinProfit).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(big.NewInt(action.Deadline.Unix()).Bytes(), 32)...)
	return data
}

func toTokenUnits(d decimal.Decimal) *big.Int {
	return d.Shift(tokenDecimals).BigInt()
}

func receiptGasCost(receipt *types.Receipt, fallbackPrice *big.Int) decimal.Decimal {
	price := receipt.EffectiveGasPrice
	if price == nil {
		price = fallbackPrice
	}
	wei := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), price)
	return decimal.NewFromBigInt(wei, -tokenDecimals)
}

func profitFromLogs(logs []*types.Log) decimal.Decimal {
	for _, l := range logs {
		if len(l.Topics) > 0 && l.Topics[0] == executedTopic && len(l.Data) >= 32 {
			return decimal.NewFromBigInt(new(big.Int).SetBytes(l.Data[:32]), -tokenDecimals)
		}
	}
	return decimal.Zero
}
