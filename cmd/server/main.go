package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"codepool/impl/allocation"
	"codepool/impl/auth"
	"codepool/impl/core"
	"codepool/impl/inventory"
	"codepool/impl/ledger"
	"codepool/internal/alert"
	"codepool/internal/catalog"
	"codepool/internal/config"
	"codepool/internal/database"
	"codepool/internal/http-server/api"
	"codepool/internal/legacy"
	"codepool/internal/notify"
	"codepool/internal/stripeclient"
	"codepool/lib/logger"
	"codepool/lib/retry"
	"codepool/lib/sl"

	"codepool/entity"
)

const logFileName = "codepool.log"

// storage is the union of store capabilities main has to wire: inventory
// documents for the engine, users for auth.
type storage interface {
	GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error)
	PutInventory(ctx context.Context, doc *entity.InventoryDocument) error
	GetUser(token string) (*entity.User, error)
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)

	tg, err := alert.NewTelegram(conf.Telegram)
	if err != nil {
		log.Fatal("telegram alerter: ", err)
	}
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName), tg)
	lg.Info("starting codepool",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
	)

	var db storage
	if conf.Mongo.Enabled {
		db = database.NewMongoClient(conf)
	} else {
		db = database.NewMemory()
		lg.Warn("mongo disabled, using in-memory store; data will not survive a restart")
	}

	registry := catalog.New(conf.Catalogs)
	policy := retry.Policy{
		Attempts:  conf.Engine.RetryLimit,
		BaseDelay: time.Duration(conf.Engine.RetryBaseMs) * time.Millisecond,
		MaxDelay:  time.Duration(conf.Engine.RetryMaxMs) * time.Millisecond,
	}

	engine := allocation.New(db, registry, policy, conf.Engine.MaxQuantity, lg)
	maintenance := inventory.New(db, registry, policy, lg)
	ldg := ledger.New(db, registry, lg)

	handler := core.New(engine, maintenance, ldg, registry, lg)
	handler.SetAuthService(auth.New(db))

	if mailer := notify.NewEmail(conf.Smtp, lg); mailer != nil {
		engine.SetNotifier(mailer)
	}

	if sc := stripeclient.New(conf.Stripe, lg); sc != nil {
		handler.SetPaymentService(sc)
	}

	if conf.Legacy.Enabled {
		sqlClient, err := legacy.NewSQLClient(conf.Legacy)
		if err != nil {
			lg.With(sl.Err(err)).Error("legacy database unavailable, import disabled")
		} else {
			handler.SetLegacySource(sqlClient)
			defer sqlClient.Close()
		}
	}

	if err = api.New(conf, lg, handler); err != nil {
		lg.With(sl.Err(err)).Error("api server stopped")
	}
}
