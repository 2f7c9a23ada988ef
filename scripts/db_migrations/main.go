package main

import (
	"database/sql"
	"os"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/migrations"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEDGER_CONFIG_FILE"))
	if err != nil {
		logrus.WithError(err).Fatal("config.Load")
		return
	}

	db, err := sql.Open("postgres", cfg.Postgres.ConnectionString())
	if err != nil {
		logrus.WithError(err).Fatal("sql.Open")
		return
	}
	defer db.Close()

	if _, _, err := migrations.Up(db); err != nil {
		logrus.WithError(err).Fatal("migrations.Up")
	}
}
