package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionValidate(t *testing.T) {
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	closed := purchase.AddDate(0, 3, 0)

	valid := InvestmentPosition{
		ID: "POS-1", CustomerID: "CUS-1", ProductID: "PRD-1",
		PurchaseAmount: 50000, HoldAmount: 50000,
		Status: StatusHeld, PurchaseTime: purchase, MaturityTime: closed,
	}

	tests := []struct {
		modify  func(*InvestmentPosition)
		name    string
		wantErr bool
	}{
		{name: "valid held position", modify: func(_ *InvestmentPosition) {}},
		{
			name: "valid fully redeemed",
			modify: func(p *InvestmentPosition) {
				p.Status = StatusFullyRedeemed
				p.HoldAmount = 0
				p.FullRedeemTime = &closed
			},
		},
		{name: "missing id", modify: func(p *InvestmentPosition) { p.ID = "" }, wantErr: true},
		{name: "missing product", modify: func(p *InvestmentPosition) { p.ProductID = "" }, wantErr: true},
		{name: "zero purchase amount", modify: func(p *InvestmentPosition) { p.PurchaseAmount = 0 }, wantErr: true},
		{name: "hold above purchase", modify: func(p *InvestmentPosition) { p.HoldAmount = 60000 }, wantErr: true},
		{name: "negative hold", modify: func(p *InvestmentPosition) { p.HoldAmount = -1 }, wantErr: true},
		{
			name: "fully redeemed with balance",
			modify: func(p *InvestmentPosition) {
				p.Status = StatusFullyRedeemed
				p.FullRedeemTime = &closed
			},
			wantErr: true,
		},
		{
			name: "fully redeemed without redeem time",
			modify: func(p *InvestmentPosition) {
				p.Status = StatusFullyRedeemed
				p.HoldAmount = 0
			},
			wantErr: true,
		},
		{
			name: "open position with zero hold",
			modify: func(p *InvestmentPosition) {
				p.HoldAmount = 0
			},
			wantErr: true,
		},
		{
			name: "matures before purchase",
			modify: func(p *InvestmentPosition) {
				p.MaturityTime = purchase.AddDate(0, 0, -1)
			},
			wantErr: true,
		},
		{
			name: "redeemed before purchase",
			modify: func(p *InvestmentPosition) {
				early := purchase.Add(-time.Hour)
				p.Status = StatusFullyRedeemed
				p.HoldAmount = 0
				p.FullRedeemTime = &early
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := valid
			tt.modify(&pos)
			err := pos.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestElapsedTermFraction(t *testing.T) {
	purchase := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pos := InvestmentPosition{
		PurchaseTime: purchase,
		MaturityTime: purchase.AddDate(0, 0, 100),
	}

	assert.InDelta(t, 0.0, pos.ElapsedTermFraction(purchase), 1e-9)
	assert.InDelta(t, 0.5, pos.ElapsedTermFraction(purchase.AddDate(0, 0, 50)), 1e-9)
	assert.InDelta(t, 1.0, pos.ElapsedTermFraction(purchase.AddDate(0, 0, 100)), 1e-9)
	assert.InDelta(t, 1.0, pos.ElapsedTermFraction(purchase.AddDate(0, 0, 200)), 1e-9)
	assert.InDelta(t, 0.0, pos.ElapsedTermFraction(purchase.AddDate(0, 0, -5)), 1e-9)

	zeroTerm := InvestmentPosition{PurchaseTime: purchase, MaturityTime: purchase}
	assert.InDelta(t, 1.0, zeroTerm.ElapsedTermFraction(purchase), 1e-9)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusHeld.Terminal())
	assert.False(t, StatusPartiallyRedeemed.Terminal())
	assert.True(t, StatusFullyRedeemed.Terminal())
}
