package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opsdeck/platform/internal/core/domain"
)

const projectCollection = "projects"

// mutateRetries bounds the optimistic-concurrency loop on task mutations.
const mutateRetries = 5

type MongoProjectRepository struct {
	coll *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{coll: db.Collection(projectCollection)}
}

func (r *MongoProjectRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "previous_slugs", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "client_id", Value: 1}},
		},
	})
	return err
}

type mongoSubtask struct {
	Title        string `bson:"title"`
	Completed    bool   `bson:"completed"`
	Required     bool   `bson:"required"`
	ShowToClient bool   `bson:"show_to_client"`
}

type mongoTask struct {
	ID            string         `bson:"id"`
	Title         string         `bson:"title"`
	Description   string         `bson:"description,omitempty"`
	Phase         string         `bson:"phase,omitempty"`
	DependsOn     []string       `bson:"depends_on,omitempty"`
	Completed     bool           `bson:"completed"`
	DateCompleted *int64         `bson:"date_completed,omitempty"`
	ShowToClient  bool           `bson:"show_to_client"`
	Subtasks      []mongoSubtask `bson:"subtasks,omitempty"`
}

type mongoAttachment struct {
	ID         string `bson:"id"`
	FileName   string `bson:"file_name"`
	StorageKey string `bson:"storage_key"`
	UploadedBy string `bson:"uploaded_by"`
	UploadedAt int64  `bson:"uploaded_at"`
}

type mongoProject struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Slug           string             `bson:"slug"`
	PreviousSlugs  []string           `bson:"previous_slugs,omitempty"`
	Name           string             `bson:"name"`
	Status         string             `bson:"status"`
	ClientID       string             `bson:"client_id"`
	AccessLevels   map[string]string  `bson:"access_levels,omitempty"`
	Tasks          []mongoTask        `bson:"tasks"`
	Phases         []string           `bson:"phases,omitempty"`
	Templates      []string           `bson:"templates,omitempty"`
	Attachments    []mongoAttachment  `bson:"attachments,omitempty"`
	CRMDealID      string             `bson:"crm_deal_id,omitempty"`
	NextTaskNumber int                `bson:"next_task_number"`
	UUIDTasks      bool               `bson:"uuid_tasks,omitempty"`
	Rev            int64              `bson:"rev"`
	CreatedAt      int64              `bson:"created_at"`
	UpdatedAt      int64              `bson:"updated_at"`
}

func toMongoProject(p *domain.Project) mongoProject {
	levels := make(map[string]string, len(p.AccessLevels))
	for uid, lvl := range p.AccessLevels {
		levels[uid] = string(lvl)
	}

	tasks := make([]mongoTask, len(p.Tasks))
	for i, t := range p.Tasks {
		mt := mongoTask{
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Phase:        t.Phase,
			DependsOn:    t.DependsOn,
			Completed:    t.Completed,
			ShowToClient: t.ShowToClient,
		}
		if t.DateCompleted != nil {
			ts := t.DateCompleted.Unix()
			mt.DateCompleted = &ts
		}
		for _, st := range t.Subtasks {
			mt.Subtasks = append(mt.Subtasks, mongoSubtask(st))
		}
		tasks[i] = mt
	}

	atts := make([]mongoAttachment, len(p.Attachments))
	for i, a := range p.Attachments {
		atts[i] = mongoAttachment{
			ID:         a.ID,
			FileName:   a.FileName,
			StorageKey: a.StorageKey,
			UploadedBy: a.UploadedBy,
			UploadedAt: a.UploadedAt.Unix(),
		}
	}

	return mongoProject{
		Slug:           p.Slug,
		PreviousSlugs:  p.PreviousSlugs,
		Name:           p.Name,
		Status:         string(p.Status),
		ClientID:       p.ClientID,
		AccessLevels:   levels,
		Tasks:          tasks,
		Phases:         p.Phases,
		Templates:      p.Templates,
		Attachments:    atts,
		CRMDealID:      p.CRMDealID,
		NextTaskNumber: p.NextTaskNumber,
		UUIDTasks:      p.UUIDTasks,
		Rev:            p.Rev,
		CreatedAt:      p.CreatedAt.Unix(),
		UpdatedAt:      p.UpdatedAt.Unix(),
	}
}

func (mp *mongoProject) toDomain() *domain.Project {
	levels := make(map[string]domain.AccessLevel, len(mp.AccessLevels))
	for uid, lvl := range mp.AccessLevels {
		levels[uid] = domain.AccessLevel(lvl)
	}

	tasks := make([]domain.Task, len(mp.Tasks))
	for i, mt := range mp.Tasks {
		t := domain.Task{
			ID:           mt.ID,
			Title:        mt.Title,
			Description:  mt.Description,
			Phase:        mt.Phase,
			DependsOn:    mt.DependsOn,
			Completed:    mt.Completed,
			ShowToClient: mt.ShowToClient,
		}
		if mt.DateCompleted != nil {
			ts := unixToTime(*mt.DateCompleted)
			t.DateCompleted = &ts
		}
		for _, st := range mt.Subtasks {
			t.Subtasks = append(t.Subtasks, domain.Subtask(st))
		}
		tasks[i] = t
	}

	atts := make([]domain.Attachment, len(mp.Attachments))
	for i, a := range mp.Attachments {
		atts[i] = domain.Attachment{
			ID:         a.ID,
			FileName:   a.FileName,
			StorageKey: a.StorageKey,
			UploadedBy: a.UploadedBy,
			UploadedAt: unixToTime(a.UploadedAt),
		}
	}

	return &domain.Project{
		ID:             mp.ID.Hex(),
		Slug:           mp.Slug,
		PreviousSlugs:  mp.PreviousSlugs,
		Name:           mp.Name,
		Status:         domain.ProjectStatus(mp.Status),
		ClientID:       mp.ClientID,
		AccessLevels:   levels,
		Tasks:          tasks,
		Phases:         mp.Phases,
		Templates:      mp.Templates,
		Attachments:    atts,
		CRMDealID:      mp.CRMDealID,
		NextTaskNumber: mp.NextTaskNumber,
		UUIDTasks:      mp.UUIDTasks,
		Rev:            mp.Rev,
		CreatedAt:      unixToTime(mp.CreatedAt),
		UpdatedAt:      unixToTime(mp.UpdatedAt),
	}
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	doc := toMongoProject(project)

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSlugConflict
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	created := *project
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProjectNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoProjectRepository) FindBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *MongoProjectRepository) FindByPreviousSlug(ctx context.Context, slug string) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"previous_slugs": slug})
}

func (r *MongoProjectRepository) findOne(ctx context.Context, filter bson.M) (*domain.Project, error) {
	var mp mongoProject
	if err := r.coll.FindOne(ctx, filter).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return mp.toDomain(), nil
}

// Rename uses the same compare-and-swap shape as the client repository: the
// filter pins the current slug so the history append cannot lose an entry to
// a concurrent rename.
func (r *MongoProjectRepository) Rename(ctx context.Context, id, newSlug string) (*domain.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProjectNotFound
	}

	for attempt := 0; attempt < renameRetries; attempt++ {
		current, err := r.findOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if current.Slug == newSlug {
			return current, nil
		}

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": oid, "slug": current.Slug},
			bson.M{
				"$set":  bson.M{"slug": newSlug, "updated_at": nowUnix()},
				"$push": bson.M{"previous_slugs": current.Slug},
			},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrSlugConflict
			}
			return nil, fmt.Errorf("rename project: %w", err)
		}
		if res.ModifiedCount == 1 {
			return r.findOne(ctx, bson.M{"_id": oid})
		}
	}
	return nil, fmt.Errorf("rename project: too many concurrent renames")
}

// Mutate applies fn under optimistic concurrency: the replace filter pins the
// document revision, so two concurrent task mutations serialize instead of
// overwriting each other. No caller ever observes a half-applied write.
func (r *MongoProjectRepository) Mutate(ctx context.Context, id string, fn func(p *domain.Project) error) (*domain.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProjectNotFound
	}

	for attempt := 0; attempt < mutateRetries; attempt++ {
		project, err := r.findOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}

		prevRev := project.Rev
		if err := fn(project); err != nil {
			return nil, err
		}
		project.Rev = prevRev + 1

		doc := toMongoProject(project)
		res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "rev": prevRev}, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrSlugConflict
			}
			return nil, fmt.Errorf("mutate project: %w", err)
		}
		if res.MatchedCount == 1 {
			return project, nil
		}
		// Revision moved under us; reload and reapply.
	}
	return nil, fmt.Errorf("mutate project: too many concurrent writes")
}

func (r *MongoProjectRepository) List(ctx context.Context, clientID string) ([]*domain.Project, error) {
	filter := bson.M{}
	if clientID != "" {
		filter["client_id"] = clientID
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cur.Close(ctx)

	var projects []*domain.Project
	for cur.Next(ctx) {
		var mp mongoProject
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		projects = append(projects, mp.toDomain())
	}
	return projects, cur.Err()
}
