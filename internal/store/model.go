package store

import (
	"time"

	"main/internal/engine"
	"main/internal/ledger"
)

// AccountRow is the persisted shape of a broker account.
type AccountRow struct {
	ID                string `gorm:"primaryKey;size:64"`
	Balance           int64
	ProfitLoss        int64
	LastTransactionID int64
	UpdatedAt         time.Time
}

// TradeRow is the persisted shape of a trade, open or closed. CloseTime
// stays NULL while the trade is open.
type TradeRow struct {
	AccountID    string `gorm:"primaryKey;size:64"`
	TradeID      int64  `gorm:"primaryKey"`
	Instrument   string `gorm:"size:16"`
	Price        int64
	OpenTime     time.Time
	CloseTime    *time.Time
	InitialUnits int64
	CurrentUnits int64
	RealizedPL   int64
	UnrealizedPL int64
}

// OrderRow is the persisted shape of an order known to the matching engine.
type OrderRow struct {
	AccountID      string `gorm:"primaryKey;size:64"`
	OrderID        int64  `gorm:"primaryKey"`
	Instrument     string `gorm:"size:16"`
	Units          int64
	Kind           string `gorm:"size:16"`
	Price          int64
	TradeID        int64
	Submitted      time.Time
	Expiry         time.Time
	Status         string `gorm:"size:16"`
	ExecutionPrice int64
}

// SnapshotRow is one point of an account's value curve.
type SnapshotRow struct {
	AccountID    string    `gorm:"primaryKey;size:64"`
	Time         time.Time `gorm:"primaryKey"`
	Balance      int64
	ProfitLoss   int64
	UnrealizedPL int64
}

func accountRow(account ledger.Account) AccountRow {
	return AccountRow{
		ID:                account.ID,
		Balance:           int64(account.Balance),
		ProfitLoss:        int64(account.ProfitLoss),
		LastTransactionID: account.LastTransactionID,
	}
}

func tradeRow(trade ledger.Trade) TradeRow {
	row := TradeRow{
		AccountID:    trade.AccountID,
		TradeID:      trade.ID,
		Instrument:   trade.Instrument.Symbol(),
		Price:        int64(trade.Price),
		OpenTime:     trade.OpenTime,
		InitialUnits: trade.InitialUnits,
		CurrentUnits: trade.CurrentUnits,
		RealizedPL:   int64(trade.RealizedPL),
		UnrealizedPL: int64(trade.UnrealizedPL),
	}
	if trade.Closed() {
		closed := trade.CloseTime
		row.CloseTime = &closed
	}
	return row
}

func orderRow(order engine.Order) OrderRow {
	return OrderRow{
		AccountID:      order.AccountID,
		OrderID:        order.ID,
		Instrument:     order.Instrument.Symbol(),
		Units:          order.Units,
		Kind:           order.Kind.String(),
		Price:          int64(order.Price),
		TradeID:        order.TradeID,
		Submitted:      order.Submitted,
		Expiry:         order.Expiry,
		Status:         order.Status.String(),
		ExecutionPrice: int64(order.ExecutionPrice),
	}
}

func snapshotRow(snapshot ledger.Snapshot) SnapshotRow {
	return SnapshotRow{
		AccountID:    snapshot.Account.ID,
		Time:         snapshot.Time,
		Balance:      int64(snapshot.Account.Balance),
		ProfitLoss:   int64(snapshot.Account.ProfitLoss),
		UnrealizedPL: int64(snapshot.Account.UnrealizedPL()),
	}
}
