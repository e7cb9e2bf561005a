package store

import (
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"main/internal/engine"
	"main/internal/ledger"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Config describes the postgres connection. An empty config means no
// persistence; the simulation is correct without it.
type Config struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	Database   string `json:"database"`
	SSLMode    string `json:"sslMode"`
	ConnString string `json:"connString"`
}

// Enabled reports whether the config points at a database at all.
func (c Config) Enabled() bool {
	return c.ConnString != "" || c.Database != ""
}

func (c Config) dsn() string {
	if c.ConnString != "" {
		return c.ConnString
	}

	host := c.Host
	if host == "" {
		host = defaultHost
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()
	return u.String()
}

// Store persists accounts, trades, orders and value snapshots between and
// during runs so results survive the process. Every write is an upsert, so
// replaying the same simulation never duplicates rows. A nil Store ignores
// every call.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the schema. Returns nil when the config is
// empty so callers can wire the store unconditionally.
func Open(config Config) (*Store, error) {
	if !config.Enabled() {
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(config.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	if err := db.AutoMigrate(&AccountRow{}, &TradeRow{}, &OrderRow{}, &SnapshotRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate store")
	}
	return &Store{db: db}, nil
}

// SaveAccount upserts the account and its open trades.
func (s *Store) SaveAccount(account ledger.Account) error {
	if s == nil {
		return nil
	}

	row := accountRow(account)
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return errors.Wrapf(err, "save account %s", account.ID)
	}
	for _, trade := range account.Trades {
		if err := s.SaveTrade(trade); err != nil {
			return err
		}
	}
	return nil
}

// SaveTrade upserts one trade, open or closed.
func (s *Store) SaveTrade(trade ledger.Trade) error {
	if s == nil {
		return nil
	}
	row := tradeRow(trade)
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	return errors.Wrapf(err, "save trade %d for %s", trade.ID, trade.AccountID)
}

// SaveOrders upserts the given orders.
func (s *Store) SaveOrders(orders []engine.Order) error {
	if s == nil || len(orders) == 0 {
		return nil
	}
	rows := make([]OrderRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, orderRow(order))
	}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	return errors.Wrap(err, "save orders")
}

// SaveSnapshot upserts one point of an account's value curve.
func (s *Store) SaveSnapshot(snapshot ledger.Snapshot) error {
	if s == nil {
		return nil
	}
	row := snapshotRow(snapshot)
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	return errors.Wrapf(err, "save snapshot for %s", snapshot.Account.ID)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
