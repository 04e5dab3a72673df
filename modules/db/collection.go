package db

import (
	"context"

	a "staking-timetravel/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	*mongo.Collection

	db      *DbInstance
	name    string
	indexes []mongo.IndexModel
	opts    []*options.CollectionOptions
}

var _ a.Plugin = &Collection{}

func NewCollection(db *DbInstance, name string, indexes []mongo.IndexModel, opts ...*options.CollectionOptions) *Collection {
	return &Collection{
		nil,
		db,
		name,
		indexes,
		opts,
	}
}

// Init implements aggregate.Plugin.
func (c *Collection) Init() error {
	c.Collection = c.db.Collection(c.name, c.opts...)
	return nil
}

// Start implements aggregate.Plugin. Indexes are created here so that Init
// never talks to the server.
func (c *Collection) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		if len(c.indexes) > 0 {
			if _, err := c.Indexes().CreateMany(context.Background(), c.indexes); err != nil {
				reject(err)
				return
			}
		}
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (c *Collection) Stop() error {
	return nil
}
