package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"codepool/internal/config"
)

// SQLClient reads redemption codes out of the old storefront's MySQL
// voucher table so catalogs can be seeded without retyping inventory. It
// only ever selects; the document store stays the single source of truth
// for used-state.
type SQLClient struct {
	db     *sql.DB
	prefix string
}

func NewSQLClient(conf config.LegacyConfig) (*SQLClient, error) {
	if !conf.Enabled {
		return nil, fmt.Errorf("legacy import is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.UserName, conf.Password, conf.HostName, conf.Port, conf.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// wait for the database to come up
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return &SQLClient{
		db:     db,
		prefix: conf.Prefix,
	}, nil
}

// FetchCodes returns the enabled voucher codes of one category in insertion
// order. Deduplication against the catalog happens downstream in the normal
// replenishment path.
func (c *SQLClient) FetchCodes(ctx context.Context, service string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT code FROM %svoucher WHERE category = ? AND status = 1 ORDER BY voucher_id",
		c.prefix,
	)
	rows, err := c.db.QueryContext(ctx, query, service)
	if err != nil {
		return nil, fmt.Errorf("select vouchers: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err = rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		codes = append(codes, code)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vouchers: %w", err)
	}
	return codes, nil
}

func (c *SQLClient) Close() error {
	return c.db.Close()
}
