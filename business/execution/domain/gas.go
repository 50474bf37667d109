package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// GasPrice is a point-in-time gas price observation.
type GasPrice struct {
	Wei *big.Int
}

// NewGasPrice wraps a wei-denominated price.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{Wei: new(big.Int).Set(wei)}
}

// Gwei returns the price in gwei.
func (p *GasPrice) Gwei() float64 {
	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(p.Wei), big.NewFloat(1e9)).Float64()
	return gwei
}

// GasEstimate is a gas limit paired with the price it was taken at.
type GasEstimate struct {
	GasLimit uint64
	Price    *GasPrice
}

// NewGasEstimate pairs a limit with a price.
func NewGasEstimate(limit uint64, price *GasPrice) *GasEstimate {
	return &GasEstimate{GasLimit: limit, Price: price}
}

// CostWei returns the worst-case total cost in wei.
func (e *GasEstimate) CostWei() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(e.GasLimit), e.Price.Wei)
}

// CostEther returns the worst-case total cost denominated in ether.
func (e *GasEstimate) CostEther() decimal.Decimal {
	return decimal.NewFromBigInt(e.CostWei(), -18)
}
