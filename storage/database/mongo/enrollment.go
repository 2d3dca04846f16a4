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
	"github.com/trezcool/elearn/core/enrollment"
)

type enrollmentDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	StudentID  primitive.ObjectID `bson:"student_id"`
	CourseID   primitive.ObjectID `bson:"course_id"`
	EnrolledAt time.Time          `bson:"enrolled_at"`
	Completed  bool               `bson:"completed"`
	Progress   int                `bson:"progress"`
}

func (d enrollmentDoc) toEnrollment() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         d.ID.Hex(),
		StudentID:  d.StudentID.Hex(),
		CourseID:   d.CourseID.Hex(),
		EnrolledAt: d.EnrolledAt.UTC(),
		Completed:  d.Completed,
		Progress:   d.Progress,
	}
}

type enrollmentRepository struct {
	coll    *mongo.Collection
	courses *mongo.Collection
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *mongo.Database) enrollment.Repository {
	return &enrollmentRepository{
		coll:    db.Collection(enrollmentsColl),
		courses: db.Collection(coursesColl),
	}
}

func pairFilter(studentID, courseID string) (bson.M, bool) {
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return nil, false
	}
	cid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return nil, false
	}
	return bson.M{"student_id": sid, "course_id": cid}, true
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, filter enrollment.GetFilter) (enrollment.Enrollment, error) {
	q, ok := pairFilter(filter.StudentID, filter.CourseID)
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}

	var doc enrollmentDoc
	if err := repo.coll.FindOne(ctx, q).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return doc.toEnrollment(), nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	q := bson.M{}
	for field, val := range map[string]string{"student_id": filter.StudentID, "course_id": filter.CourseID} {
		if val == "" {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(val)
		if err != nil {
			return []enrollment.Enrollment{}, nil
		}
		q[field] = oid
	}

	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "finding enrollments")
	}
	var docs []enrollmentDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(docs))
	for _, d := range docs {
		enrs = append(enrs, d.toEnrollment())
	}
	return enrs, nil
}

// CreateEnrollment inserts the enrollment then adds the student to the course students.
// The two writes are not atomic: if the second one fails the enrollment is kept and
// the course students cache misses the student.
func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	q, ok := pairFilter(enr.StudentID, enr.CourseID)
	if !ok {
		return enrollment.Enrollment{}, course.ErrNotFound
	}
	sid, cid := q["student_id"].(primitive.ObjectID), q["course_id"].(primitive.ObjectID)

	n, err := repo.courses.CountDocuments(ctx, bson.M{"_id": cid}, options.Count().SetLimit(1))
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "counting courses")
	}
	if n == 0 {
		return enrollment.Enrollment{}, course.ErrNotFound
	}

	doc := enrollmentDoc{
		ID:         primitive.NewObjectID(),
		StudentID:  sid,
		CourseID:   cid,
		EnrolledAt: enr.EnrolledAt,
		Completed:  enr.Completed,
		Progress:   enr.Progress,
	}
	if _, err = repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}

	if _, err = repo.courses.UpdateOne(ctx,
		bson.M{"_id": cid},
		bson.M{"$addToSet": bson.M{"students": sid}},
	); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "adding course student")
	}
	return doc.toEnrollment(), nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	oid, err := primitive.ObjectIDFromHex(enr.ID)
	if err != nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}

	var doc enrollmentDoc
	err = repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"completed": enr.Completed, "progress": enr.Progress}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	return doc.toEnrollment(), nil
}
