package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"condobook/internal/app/uow"
	domaincalendar "condobook/internal/domain/calendar"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection(calendarCollection)}
}

func (r *CalendarRepository) ByID(ctx context.Context, id domaincalendar.ItemID) (*domaincalendar.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincalendar.ErrItemNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

type searchResult struct {
	Items []itemDocument `bson:"items"`
	Total []struct {
		N int `bson:"n"`
	} `bson:"total"`
}

// Search runs the filter as one aggregation: match, rank, sort, then page and
// count in a single facet.
func (r *CalendarRepository) Search(ctx context.Context, filter domaincalendar.Filter) (domaincalendar.Page, error) {
	cur, err := r.col.Aggregate(ctx, searchPipeline(filter))
	if err != nil {
		return domaincalendar.Page{}, err
	}
	defer cur.Close(ctx)
	var results []searchResult
	if err := cur.All(ctx, &results); err != nil {
		return domaincalendar.Page{}, err
	}
	page := domaincalendar.Page{Items: []*domaincalendar.Item{}}
	if len(results) == 0 {
		return page, nil
	}
	if len(results[0].Total) > 0 {
		page.Total = results[0].Total[0].N
	}
	for _, doc := range results[0].Items {
		item, err := doc.toAggregate()
		if err != nil {
			return domaincalendar.Page{}, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// Save writes the item if nobody changed it since it was loaded.
func (r *CalendarRepository) Save(ctx context.Context, item *domaincalendar.Item) error {
	doc := newItemDocument(item)
	filter := bson.M{"_id": doc.ID, "version": item.Version}
	doc.Version = item.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return asConcurrentUpdate(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	item.Version = doc.Version
	return nil
}

func searchPipeline(f domaincalendar.Filter) mongo.Pipeline {
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	page := bson.A{bson.M{"$skip": offset}}
	if f.Limit > 0 {
		page = append(page, bson.M{"$limit": f.Limit})
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: filterDocument(f)}},
		{{Key: "$addFields", Value: bson.M{"awaiting": bson.M{
			"$cond": bson.A{bson.M{"$in": bson.A{"$status", awaitingNames()}}, 0, 1},
		}}}},
		{{Key: "$sort", Value: sortDocument(f.Sort)}},
		{{Key: "$facet", Value: bson.M{
			"items": page,
			"total": bson.A{bson.M{"$count": "n"}},
		}}},
	}
}

// filterDocument translates the repository filter; it must agree with
// Filter.Matches.
func filterDocument(f domaincalendar.Filter) bson.M {
	and := bson.A{}
	if f.CommunityID != "" {
		and = append(and, bson.M{"community_id": f.CommunityID})
	}
	if f.AmenityID != "" {
		and = append(and, bson.M{"kind": kindBooking, "amenity_id": string(f.AmenityID)})
	}
	if f.Amenities != nil || f.IncludeGeneral {
		ids := make([]string, 0, len(f.Amenities))
		for _, id := range f.Amenities {
			ids = append(ids, string(id))
		}
		union := bson.A{bson.M{"kind": kindBooking, "amenity_id": bson.M{"$in": ids}}}
		if f.IncludeGeneral {
			union = append(union, bson.M{"kind": kindGeneral})
		}
		and = append(and, bson.M{"$or": union})
	}
	if f.UnitID != "" {
		and = append(and, bson.M{"unit_id": f.UnitID})
	}
	if f.RequesterID != "" {
		and = append(and, bson.M{"requester_id": f.RequesterID})
	}
	if len(f.Statuses) > 0 {
		names := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			names = append(names, s.String())
		}
		and = append(and, bson.M{"status": bson.M{"$in": names}})
	}
	if f.Overlapping != nil {
		and = append(and,
			bson.M{"start": bson.M{"$lt": f.Overlapping.End.UnixMilli()}},
			bson.M{"end": bson.M{"$gt": f.Overlapping.Start.UnixMilli()}},
		)
	}
	if !f.EndsAfter.IsZero() {
		and = append(and, bson.M{"end": bson.M{"$gte": f.EndsAfter.UnixMilli()}})
	}
	if !f.StartsBefore.IsZero() {
		and = append(and, bson.M{"start": bson.M{"$lt": f.StartsBefore.UnixMilli()}})
	}
	if f.ReminderSent != nil {
		and = append(and, bson.M{"reminder_sent": *f.ReminderSent})
	}
	if f.ExcludeID != "" {
		and = append(and, bson.M{"_id": bson.M{"$ne": string(f.ExcludeID)}})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func sortDocument(order domaincalendar.SortOrder) bson.D {
	switch order {
	case domaincalendar.SortStartDesc:
		return bson.D{{Key: "start", Value: -1}, {Key: "_id", Value: 1}}
	case domaincalendar.SortCreatedDesc:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	case domaincalendar.SortPendingFirst:
		return bson.D{{Key: "awaiting", Value: 1}, {Key: "start", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}}
	}
}

func awaitingNames() bson.A {
	return bson.A{domaincalendar.StatusPending.String(), domaincalendar.StatusAwaitingApproval.String()}
}

var _ domaincalendar.Repository = (*CalendarRepository)(nil)
