package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/YK-03/SharePlate/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	collUsers    = "users"
	collItems    = "items"
	collRequests = "requests"
	collCounters = "counters"
)

// mongoFields mirrors the SQL column lists for Columns.
var mongoFields = map[string][]string{
	collUsers:    {"_id", "email", "password_hash", "first_name", "last_name", "role", "phone_number", "is_active", "email_notifications_enabled", "date_joined"},
	collItems:    {"_id", "name", "description", "address", "quantity", "expiry_date", "is_available", "created_at", "donor_id", "latitude", "longitude"},
	collRequests: {"_id", "item_id", "requester_id", "status", "created_at"},
}

// MongoStore implements Store using MongoDB. Integer IDs come from a counters
// collection so the API shape matches the SQL backends.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewMongoStore connects to uri and uses database.
func NewMongoStore(uri, database string, log *zap.SugaredLogger) (*MongoStore, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &MongoStore{
		client: client,
		db:     client.Database(database),
		log:    log.Named("store"),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
	s.log.Infof("[MongoDB] Connected to %s", database)
	return s, nil
}

type userDoc struct {
	ID                   int64     `bson:"_id"`
	Email                string    `bson:"email"`
	PasswordHash         string    `bson:"password_hash"`
	FirstName            string    `bson:"first_name"`
	LastName             string    `bson:"last_name"`
	Role                 string    `bson:"role"`
	PhoneNumber          string    `bson:"phone_number"`
	IsActive             bool      `bson:"is_active"`
	NotificationsEnabled bool      `bson:"email_notifications_enabled"`
	DateJoined           time.Time `bson:"date_joined"`
}

func (d userDoc) toModel() model.User {
	return model.User{
		ID:                   d.ID,
		Email:                d.Email,
		PasswordHash:         d.PasswordHash,
		FirstName:            d.FirstName,
		LastName:             d.LastName,
		Role:                 model.Role(d.Role),
		PhoneNumber:          d.PhoneNumber,
		IsActive:             d.IsActive,
		NotificationsEnabled: d.NotificationsEnabled,
		DateJoined:           d.DateJoined,
	}
}

type itemDoc struct {
	ID          int64     `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Address     string    `bson:"address"`
	Quantity    int       `bson:"quantity"`
	ExpiryDate  string    `bson:"expiry_date"`
	IsAvailable bool      `bson:"is_available"`
	CreatedAt   time.Time `bson:"created_at"`
	DonorID     int64     `bson:"donor_id"`
	Latitude    *float64  `bson:"latitude"`
	Longitude   *float64  `bson:"longitude"`
}

func (d itemDoc) toModel() model.Item {
	item := model.Item{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Address:     d.Address,
		Quantity:    d.Quantity,
		IsAvailable: d.IsAvailable,
		CreatedAt:   d.CreatedAt,
		DonorID:     d.DonorID,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
	}
	item.ExpiryDate, _ = model.ParseDate(d.ExpiryDate)
	return item
}

type requestDoc struct {
	ID          int64     `bson:"_id"`
	ItemID      int64     `bson:"item_id"`
	RequesterID int64     `bson:"requester_id"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
}

// nextID increments and returns the named sequence.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.db.Collection(collCounters).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).
		Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// Migrate creates indexes. Collections are created implicitly.
func (s *MongoStore) Migrate(ctx context.Context) error {
	indexes := []struct {
		coll  string
		model mongo.IndexModel
	}{
		{collUsers, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{collItems, mongo.IndexModel{
			Keys: bson.D{{Key: "is_available", Value: 1}, {Key: "created_at", Value: -1}},
		}},
		{collRequests, mongo.IndexModel{
			Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "created_at", Value: 1}},
		}},
		{collRequests, mongo.IndexModel{
			Keys: bson.D{{Key: "item_id", Value: 1}},
			Options: options.Index().
				SetName("uq_requests_accepted_item").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(model.RequestAccepted)}),
		}},
	}
	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.coll).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll, err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Tables lists collections.
func (s *MongoStore) Tables(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Columns lists the fields of an application collection.
func (s *MongoStore) Columns(ctx context.Context, table string) ([]string, error) {
	fields, ok := mongoFields[table]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), fields...), nil
}

// Reset drops all application collections, counters included.
func (s *MongoStore) Reset(ctx context.Context) error {
	for _, name := range append(append([]string(nil), appTables...), collCounters) {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
		s.log.Infof("[MongoDB] Dropped collection %s", name)
	}
	return nil
}

// GetStats returns document counts.
func (s *MongoStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"type": "mongodb"}

	counts := []struct {
		key    string
		coll   string
		filter bson.M
	}{
		{"users", collUsers, bson.M{}},
		{"items", collItems, bson.M{}},
		{"items_available", collItems, bson.M{"is_available": true}},
		{"requests", collRequests, bson.M{}},
	}
	for _, c := range counts {
		n, err := s.db.Collection(c.coll).CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.key, err)
		}
		stats[c.key] = n
	}
	return stats, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// CreateItem inserts an available item.
func (s *MongoStore) CreateItem(ctx context.Context, item *model.Item) error {
	id, err := s.nextID(ctx, collItems)
	if err != nil {
		return err
	}
	item.ID = id
	item.IsAvailable = true
	item.CreatedAt = s.now()

	doc := itemDoc{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Address:     item.Address,
		Quantity:    item.Quantity,
		ExpiryDate:  item.ExpiryDate.String(),
		IsAvailable: item.IsAvailable,
		CreatedAt:   item.CreatedAt,
		DonorID:     item.DonorID,
		Latitude:    item.Latitude,
		Longitude:   item.Longitude,
	}
	if _, err := s.db.Collection(collItems).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID.
func (s *MongoStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var doc itemDoc
	err := s.db.Collection(collItems).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	items := []model.Item{doc.toModel()}
	if err := s.fillDonorEmails(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListAvailableItems returns available items, newest first.
func (s *MongoStore) ListAvailableItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	query := bson.M{"is_available": true}
	if b := filter.BBox; b != nil {
		query["longitude"] = bson.M{"$ne": nil, "$gte": b.MinLon, "$lte": b.MaxLon}
		query["latitude"] = bson.M{"$ne": nil, "$gte": b.MinLat, "$lte": b.MaxLat}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.db.Collection(collItems).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	var docs []itemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	items := make([]model.Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}
	if err := s.fillDonorEmails(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *MongoStore) fillDonorEmails(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.DonorID)
	}

	cur, err := s.db.Collection(collUsers).Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return fmt.Errorf("failed to load donors: %w", err)
	}
	var donors []struct {
		ID    int64  `bson:"_id"`
		Email string `bson:"email"`
	}
	if err := cur.All(ctx, &donors); err != nil {
		return fmt.Errorf("failed to decode donors: %w", err)
	}

	emails := make(map[int64]string, len(donors))
	for _, d := range donors {
		emails[d.ID] = d.Email
	}
	for i := range items {
		items[i].DonorEmail = emails[items[i].DonorID]
	}
	return nil
}

// UpdateItemLocation sets the address and, when coords is non-nil, the coordinates.
func (s *MongoStore) UpdateItemLocation(ctx context.Context, id int64, address string, coords *model.Coordinates) error {
	set := bson.M{"address": address}
	if coords != nil {
		set["latitude"] = coords.Latitude
		set["longitude"] = coords.Longitude
	}
	res, err := s.db.Collection(collItems).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update item location: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimItem flips an available item to claimed and records the winning
// request. The filtered FindOneAndUpdate decides the winner; if the request
// insert then fails for any reason other than an existing accepted request,
// the item is released again.
func (s *MongoStore) ClaimItem(ctx context.Context, itemID, requesterID int64) (*model.Request, error) {
	items := s.db.Collection(collItems)

	err := items.FindOneAndUpdate(ctx,
		bson.M{"_id": itemID, "is_available": true},
		bson.M{"$set": bson.M{"is_available": false}},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := items.CountDocuments(ctx, bson.M{"_id": itemID})
		if cerr != nil {
			return nil, fmt.Errorf("failed to check item: %w", cerr)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim item: %w", err)
	}

	req, err := s.insertAcceptedRequest(ctx, itemID, requesterID)
	if errors.Is(err, ErrAlreadyClaimed) {
		// An accepted request already holds the item; it stays unavailable.
		return nil, err
	}
	if err != nil {
		release, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, rerr := items.UpdateOne(release, bson.M{"_id": itemID}, bson.M{"$set": bson.M{"is_available": true}}); rerr != nil {
			s.log.Errorw("[MongoDB] Failed to release item after claim error", "item_id", itemID, "error", rerr)
		}
		return nil, err
	}

	s.log.Debugf("[MongoDB] Item %d claimed by user %d (request %d)", itemID, requesterID, req.ID)
	return req, nil
}

func (s *MongoStore) insertAcceptedRequest(ctx context.Context, itemID, requesterID int64) (*model.Request, error) {
	id, err := s.nextID(ctx, collRequests)
	if err != nil {
		return nil, err
	}
	doc := requestDoc{
		ID:          id,
		ItemID:      itemID,
		RequesterID: requesterID,
		Status:      string(model.RequestAccepted),
		CreatedAt:   s.now(),
	}
	if _, err := s.db.Collection(collRequests).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return &model.Request{
		ID:          doc.ID,
		ItemID:      doc.ItemID,
		RequesterID: doc.RequesterID,
		Status:      model.RequestAccepted,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

// ListRequestsByRequester returns a user's requests, oldest first.
func (s *MongoStore) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collRequests).Find(ctx, bson.M{"requester_id": requesterID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var docs []requestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	requests := make([]model.Request, 0, len(docs))
	for _, d := range docs {
		req := model.Request{
			ID:          d.ID,
			ItemID:      d.ItemID,
			RequesterID: d.RequesterID,
			Status:      model.RequestStatus(d.Status),
			CreatedAt:   d.CreatedAt,
		}
		item, err := s.GetItem(ctx, d.ItemID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		req.Item = item
		requests = append(requests, req)
	}
	return requests, nil
}

// CountRequestsForItem counts requests referencing an item.
func (s *MongoStore) CountRequestsForItem(ctx context.Context, itemID int64) (int64, error) {
	n, err := s.db.Collection(collRequests).CountDocuments(ctx, bson.M{"item_id": itemID})
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

// CreateUser inserts a user.
func (s *MongoStore) CreateUser(ctx context.Context, user *model.User) error {
	id, err := s.nextID(ctx, collUsers)
	if err != nil {
		return err
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = s.now()
	}

	doc := userDoc{
		ID:                   id,
		Email:                user.Email,
		PasswordHash:         user.PasswordHash,
		FirstName:            user.FirstName,
		LastName:             user.LastName,
		Role:                 string(user.Role),
		PhoneNumber:          user.PhoneNumber,
		IsActive:             user.IsActive,
		NotificationsEnabled: user.NotificationsEnabled,
		DateJoined:           user.DateJoined,
	}
	if _, err := s.db.Collection(collUsers).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *MongoStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by normalised email.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, bson.M{"email": model.NormalizeEmail(email)})
}

func (s *MongoStore) getUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	err := s.db.Collection(collUsers).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := doc.toModel()
	return &u, nil
}

// ListUsers returns users matching filter ordered by ID.
func (s *MongoStore) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.Email != "" {
		query["email"] = model.NormalizeEmail(filter.Email)
	}
	return s.listUsers(ctx, query)
}

// ListNotifiableVolunteers returns active volunteers with notifications enabled.
func (s *MongoStore) ListNotifiableVolunteers(ctx context.Context) ([]model.User, error) {
	return s.listUsers(ctx, bson.M{
		"role":                        string(model.RoleVolunteer),
		"email_notifications_enabled": true,
		"is_active":                   true,
		"email":                       bson.M{"$ne": ""},
	})
}

func (s *MongoStore) listUsers(ctx context.Context, query bson.M) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collUsers).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

// Ensure MongoStore implements Store
var _ Store = (*MongoStore)(nil)
