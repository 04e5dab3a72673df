package report

import (
	"context"
	"fmt"

	"staking-timetravel/modules/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const COLLECTION = "analysis_rows"

// Mongo stores one document per (kind, block). Re-running a block replaces
// its previous row.
type Mongo struct {
	*db.Collection
}

var _ Sink = &Mongo{}

func NewMongo(instance *db.DbInstance) *Mongo {
	return &Mongo{
		db.NewCollection(instance, COLLECTION, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "block_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}),
	}
}

// Document flattens the bson encoding of row and tags it with its kind.
func Document(row Row) (bson.D, error) {
	raw, err := bson.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode %s row: %w", row.Kind(), err)
	}
	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return append(bson.D{{Key: "kind", Value: row.Kind()}}, fields...), nil
}

func (m *Mongo) Append(ctx context.Context, row Row) error {
	doc, err := Document(row)
	if err != nil {
		return err
	}
	filter := bson.M{"kind": row.Kind(), "block_number": row.Block()}
	_, err = m.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Close() error {
	return nil
}
