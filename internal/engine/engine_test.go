package engine

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"main/internal/market"
)

type stubMarket struct {
	open   bool
	prices map[market.Instrument]market.Pippettes
}

func (m *stubMarket) IsOpen(time.Time) bool { return m.open }

func (m *stubMarket) Price(instrument market.Instrument, _ time.Time) (market.Pippettes, bool) {
	p, ok := m.prices[instrument]
	return p, ok
}

type recordingListener struct {
	filled    []*Order
	fillMids  []market.Pippettes
	cancelled []*Order
	fillErr   error
}

func (l *recordingListener) OrderFilled(order *Order, mid market.Pippettes, _ time.Time) error {
	if l.fillErr != nil {
		return l.fillErr
	}
	l.filled = append(l.filled, order)
	l.fillMids = append(l.fillMids, mid)
	return nil
}

func (l *recordingListener) OrderCancelled(order *Order, _ time.Time) {
	l.cancelled = append(l.cancelled, order)
}

func at(hour int) time.Time {
	return time.Date(2017, time.March, 8, hour, 0, 0, 0, market.Zone)
}

func TestMarketOrderFills(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{market.EURUSD: 110000}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 2, Kind: KindMarket, Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	e.Process(at(9))
	if len(listener.filled) != 1 || listener.fillMids[0] != 110000 {
		t.Fatalf("expected one fill at 110000, got %v %v", listener.filled, listener.fillMids)
	}
	if order.Status != StatusFilled {
		t.Fatalf("status = %s", order.Status)
	}
	if got := e.Pending("a"); len(got) != 0 {
		t.Fatalf("expected no pending orders, got %d", len(got))
	}
}

func TestLimitOrderWaitsForPrice(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{market.EURUSD: 110000}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindLimit, Price: 109000, Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}

	e.Process(at(9))
	if len(listener.filled) != 0 {
		t.Fatal("buy limit must not fill above its price")
	}

	m.prices[market.EURUSD] = 108900
	e.Process(at(10))
	if len(listener.filled) != 1 {
		t.Fatal("buy limit must fill once price drops to the threshold")
	}
}

func TestTriggerDirections(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order Order
		mid   market.Pippettes
		fill  bool
	}{
		{"sell limit below threshold", Order{Units: -1, Kind: KindLimit, Price: 111000}, 110000, false},
		{"sell limit at threshold", Order{Units: -1, Kind: KindLimit, Price: 111000}, 111000, true},
		{"take profit below threshold", Order{Units: -1, Kind: KindTakeProfit, Price: 112000}, 111500, false},
		{"take profit above threshold", Order{Units: -1, Kind: KindTakeProfit, Price: 112000}, 112300, true},
		{"stop loss above threshold", Order{Units: -1, Kind: KindStopLoss, Price: 108000}, 108500, false},
		{"stop loss at threshold", Order{Units: -1, Kind: KindStopLoss, Price: 108000}, 108000, true},
	} {
		if got := tc.order.shouldFill(tc.mid); got != tc.fill {
			t.Errorf("%s: shouldFill(%d) = %t, want %t", tc.name, tc.mid, got, tc.fill)
		}
	}
}

func TestExpiredOrderCancelsEvenWhenClosed(t *testing.T) {
	m := &stubMarket{open: false, prices: map[market.Instrument]market.Pippettes{}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindLimit, Price: 109000,
		Submitted: at(9), Expiry: at(10)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}

	e.Process(at(10))
	if len(listener.cancelled) != 0 {
		t.Fatal("order must rest until past its expiry")
	}
	e.Process(at(11))
	if len(listener.cancelled) != 1 || order.Status != StatusCancelled {
		t.Fatalf("expected expiry cancellation, status = %s", order.Status)
	}
}

func TestOrderWithoutExpiryRestsForever(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindLimit, Price: 109000,
		Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !order.Expiry.IsZero() {
		t.Fatalf("submit must not assign an expiry, got %v", order.Expiry)
	}

	e.Process(at(9).AddDate(0, 4, 0))
	if len(listener.cancelled) != 0 || order.Status != StatusOpen {
		t.Fatalf("order without expiry must still rest months later, status = %s", order.Status)
	}

	expiring := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindLimit, Price: 109000,
		Submitted: at(9), Expiry: DefaultExpiry(at(9))}
	if err := e.Submit(expiring); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Process(at(9).AddDate(0, 4, 0))
	if len(listener.cancelled) != 1 || expiring.Status != StatusCancelled {
		t.Fatalf("opted-in expiry must still cancel, status = %s", expiring.Status)
	}
	if order.Status != StatusOpen {
		t.Fatal("the order without expiry must survive the same pass")
	}
}

func TestNothingFillsWithoutQuote(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindMarket, Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Process(at(9))
	if len(listener.filled) != 0 || order.Status != StatusOpen {
		t.Fatal("order must keep resting while no price is quoted")
	}
}

func TestListenerRejectionCancels(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{market.EURUSD: 110000}}
	listener := &recordingListener{fillErr: errors.New("insufficient funds")}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindMarket, Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Process(at(9))
	if order.Status != StatusCancelled || len(listener.cancelled) != 1 {
		t.Fatalf("rejected fill must cancel, status = %s", order.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	e := New(&stubMarket{}, &recordingListener{})

	if err := e.Submit(&Order{Instrument: market.EURUSD, Kind: KindMarket}); !errors.Is(err, ErrZeroUnits) {
		t.Fatalf("err = %v, want ErrZeroUnits", err)
	}
	if err := e.Submit(&Order{Instrument: market.EURUSD, Units: 1, Kind: KindLimit}); !errors.Is(err, ErrMissingPrice) {
		t.Fatalf("err = %v, want ErrMissingPrice", err)
	}
	if err := e.Submit(&Order{Instrument: market.EURUSD, Units: 1}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestCancel(t *testing.T) {
	m := &stubMarket{open: true, prices: map[market.Instrument]market.Pippettes{}}
	listener := &recordingListener{}
	e := New(m, listener)

	order := &Order{AccountID: "a", Instrument: market.EURUSD, Units: 1, Kind: KindLimit, Price: 109000, Submitted: at(9)}
	if err := e.Submit(order); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Cancel("b", order.ID, at(9)); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign account cancel err = %v", err)
	}
	if err := e.Cancel("a", order.ID, at(9)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != StatusCancelled || len(listener.cancelled) != 1 {
		t.Fatal("expected cancellation callback")
	}
}

func TestCalendarOpen(t *testing.T) {
	for _, tc := range []struct {
		day  int // March 2017: 10th is a Friday, 11th Saturday, 12th Sunday
		hour int
		open bool
	}{
		{8, 3, true},
		{10, 15, true},
		{10, 16, false},
		{11, 10, false},
		{12, 15, false},
		{12, 16, true},
		{13, 0, true},
	} {
		ts := time.Date(2017, time.March, tc.day, tc.hour, 0, 0, 0, market.Zone)
		if got := CalendarOpen(ts); got != tc.open {
			t.Errorf("CalendarOpen(%v) = %t, want %t", ts, got, tc.open)
		}
	}
}
