package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"condobook/internal/app/uow"
	domainamenity "condobook/internal/domain/amenity"
)

type AmenityRepository struct {
	col *mongo.Collection
}

func NewAmenityRepository(db *mongo.Database) *AmenityRepository {
	return &AmenityRepository{col: db.Collection(amenityCollection)}
}

func (r *AmenityRepository) ByID(ctx context.Context, id domainamenity.ID) (*domainamenity.Amenity, error) {
	var doc amenityDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainamenity.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AmenityRepository) ListByCommunity(ctx context.Context, communityID string) ([]*domainamenity.Amenity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"community_id": communityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []amenityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainamenity.Amenity, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

// Save writes the amenity if nobody changed it since it was loaded.
func (r *AmenityRepository) Save(ctx context.Context, a *domainamenity.Amenity) error {
	doc := newAmenityDocument(a)
	filter := bson.M{"_id": doc.ID, "version": a.Version}
	doc.Version = a.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return asConcurrentUpdate(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	a.Version = doc.Version
	return nil
}

func (r *AmenityRepository) Delete(ctx context.Context, id domainamenity.ID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return asConcurrentUpdate(err)
	}
	if res.DeletedCount == 0 {
		return domainamenity.ErrNotFound
	}
	return nil
}

var _ domainamenity.Repository = (*AmenityRepository)(nil)
