package db

import (
	"context"
	"log/slog"
	"time"

	"staking-timetravel/lib/logger"
	a "staking-timetravel/modules/aggregate"
	"staking-timetravel/modules/config"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Db interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type db struct {
	conf *config.Config[DbConfig]
	log  *slog.Logger
	*mongo.Client
}

var _ a.Plugin = &db{}
var _ Db = &db{}

func New(conf *config.Config[DbConfig], log ...*slog.Logger) *db {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &db{conf: conf, log: logger.Service(l, "db")}
}

// Init connects the client. The driver connects lazily, so the ping in
// Start is what surfaces an unreachable server.
func (db *db) Init() error {
	conf := db.conf.Get()
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI(conf.DbURI).
		SetTimeout(time.Duration(conf.TimeoutS)*time.Second))
	if err != nil {
		return err
	}
	db.Client = client
	return nil
}

func (db *db) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		if err := db.Ping(context.Background(), nil); err != nil {
			reject(err)
			return
		}
		db.log.Info("connected", "uri", db.conf.Get().DbURI)
		resolve(nil)
	})
}

func (db *db) Stop() error {
	if db.Client == nil {
		return nil
	}
	return db.Disconnect(context.Background())
}
