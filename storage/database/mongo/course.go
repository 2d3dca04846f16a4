package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/elearn/core/course"
)

type courseDoc struct {
	ID             primitive.ObjectID   `bson:"_id"`
	Title          string               `bson:"title"`
	Description    string               `bson:"description"`
	InstructorID   string               `bson:"instructor_id"`
	InstructorName string               `bson:"instructor_name"`
	Image          string               `bson:"image"`
	Slug           string               `bson:"slug"`
	Students       []primitive.ObjectID `bson:"students"`
	CreatedAt      time.Time            `bson:"created_at"`
}

func (d courseDoc) toCourse() course.Course {
	return course.Course{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		InstructorID:   d.InstructorID,
		InstructorName: d.InstructorName,
		Image:          d.Image,
		Slug:           d.Slug,
		CreatedAt:      d.CreatedAt.UTC(),
		Students:       hexIDs(d.Students),
	}
}

type courseRepository struct {
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{coll: db.Collection(coursesColl)}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	doc := courseDoc{
		ID:             primitive.NewObjectID(),
		Title:          c.Title,
		Description:    c.Description,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		Image:          c.Image,
		Slug:           c.Slug,
		Students:       objectIDs(c.Students),
		CreatedAt:      c.CreatedAt,
	}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return doc.toCourse(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	q := bson.M{}
	if filter.ID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.ID)
		if err != nil {
			return course.Course{}, course.ErrNotFound
		}
		q["_id"] = oid
	}
	if filter.Slug != "" {
		q["slug"] = filter.Slug
	}
	if len(q) == 0 {
		return course.Course{}, course.ErrNotFound
	}

	var doc courseDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := repo.coll.FindOne(ctx, q, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return doc.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	q := bson.M{}
	if filter.InstructorID != "" {
		q["instructor_id"] = filter.InstructorID
	}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": objectIDs(filter.IDs)}
	}

	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	courses := make([]course.Course, 0, len(docs))
	for _, d := range docs {
		courses = append(courses, d.toCourse())
	}
	return courses, nil
}
