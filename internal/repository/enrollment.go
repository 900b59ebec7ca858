package repository

import (
	"context"
	"errors"
	"time"

	"codegram-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *mongo.Database
}

func NewEnrollmentRepository(db *mongo.Database) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	return findOne[domain.Enrollment](ctx, r.db.Collection(colEnrollments), idFilter(id))
}

func (r *enrollmentRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	return findAll[domain.Enrollment](ctx, r.db.Collection(colEnrollments), bson.M{"userId": userID})
}

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) ([]domain.Enrollment, error) {
	return findAll[domain.Enrollment](ctx, r.db.Collection(colEnrollments),
		bson.M{"userId": userID, "courseId": courseID})
}

// withTransaction runs fn in a session transaction; the driver retries on
// transient transaction errors and unknown commit results.
func (r *enrollmentRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *enrollmentRepo) CreateWithStudentCount(ctx context.Context, e *domain.Enrollment) error {
	if e.ID == "" {
		e.ID = newID()
	}
	e.EnrolledAt = nil

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		courses := r.db.Collection(colCourses)
		enrollments := r.db.Collection(colEnrollments)

		var course struct {
			Students int `bson:"students"`
		}
		err := courses.FindOne(sc, idFilter(e.CourseID)).Decode(&course)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrCourseNotFound
		}
		if err != nil {
			return err
		}

		if _, err := enrollments.InsertOne(sc, e); err != nil {
			return err
		}
		// enrolledAt comes from the database clock
		var stored domain.Enrollment
		err = enrollments.FindOneAndUpdate(sc,
			bson.M{"_id": e.ID},
			bson.M{"$currentDate": bson.M{"enrolledAt": true}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&stored)
		if err != nil {
			return err
		}
		e.EnrolledAt = stored.EnrolledAt

		_, err = courses.UpdateOne(sc, idFilter(e.CourseID), bson.M{"$inc": bson.M{"students": 1}})
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyEnrolled
	}
	return err
}

func (r *enrollmentRepo) DeleteCascade(ctx context.Context, id string) error {
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		enrollments := r.db.Collection(colEnrollments)

		var e domain.Enrollment
		err := enrollments.FindOne(sc, idFilter(id)).Decode(&e)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrEnrollmentNotFound
		}
		if err != nil {
			return err
		}

		if _, err := enrollments.DeleteOne(sc, idFilter(id)); err != nil {
			return err
		}
		if _, err := r.db.Collection(colCompletedLessons).DeleteMany(sc, bson.M{"enrollmentId": e.ID}); err != nil {
			return err
		}
		if _, err := r.db.Collection(colQuizResults).DeleteMany(sc, bson.M{"enrollmentId": e.ID}); err != nil {
			return err
		}

		// counter never goes below zero
		filter := idFilter(e.CourseID)
		filter["students"] = bson.M{"$gt": 0}
		_, err = r.db.Collection(colCourses).UpdateOne(sc, filter, bson.M{"$inc": bson.M{"students": -1}})
		return err
	})
}

func (r *enrollmentRepo) update(ctx context.Context, id string, set bson.M) error {
	res, err := r.db.Collection(colEnrollments).UpdateOne(ctx, idFilter(id), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.update(ctx, id, bson.M{"progress": progress})
}

func (r *enrollmentRepo) UpdateLastViewed(ctx context.Context, id, moduleID, lessonID string) error {
	return r.update(ctx, id, bson.M{"lastModuleId": moduleID, "lastLessonId": lessonID})
}

func (r *enrollmentRepo) UpdateCompletion(ctx context.Context, id string, completed bool, finalScore float64, completedAt *time.Time) error {
	return r.update(ctx, id, bson.M{
		"completed":   completed,
		"finalScore":  finalScore,
		"completedAt": completedAt,
	})
}

// ========== COMPLETED LESSON REPOSITORY ==========

type completedLessonRepo struct {
	db *mongo.Database
}

func NewCompletedLessonRepository(db *mongo.Database) domain.CompletedLessonRepository {
	return &completedLessonRepo{db}
}

func (r *completedLessonRepo) GetByEnrollmentID(ctx context.Context, enrollmentID string) ([]domain.CompletedLesson, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	return findAll[domain.CompletedLesson](ctx, r.db.Collection(colCompletedLessons),
		bson.M{"enrollmentId": enrollmentID}, opts)
}

// Upsert merges the record keyed by (enrollment, lesson).
func (r *completedLessonRepo) Upsert(ctx context.Context, l *domain.CompletedLesson) error {
	if l.CompletedAt.IsZero() {
		l.CompletedAt = time.Now().UTC()
	}
	_, err := r.db.Collection(colCompletedLessons).UpdateOne(ctx,
		bson.M{"_id": l.EnrollmentID + "/" + l.ID},
		bson.M{"$set": l},
		options.Update().SetUpsert(true),
	)
	return err
}

// ========== QUIZ RESULT REPOSITORY ==========

type quizResultRepo struct {
	db *mongo.Database
}

func NewQuizResultRepository(db *mongo.Database) domain.QuizResultRepository {
	return &quizResultRepo{db}
}

func (r *quizResultRepo) GetByEnrollmentID(ctx context.Context, enrollmentID string) ([]domain.QuizResult, error) {
	return findAll[domain.QuizResult](ctx, r.db.Collection(colQuizResults), bson.M{"enrollmentId": enrollmentID})
}

func (r *quizResultRepo) Create(ctx context.Context, result *domain.QuizResult) error {
	if result.ID == "" {
		result.ID = newID()
	}
	_, err := r.db.Collection(colQuizResults).InsertOne(ctx, result)
	return err
}

func (r *quizResultRepo) Update(ctx context.Context, result *domain.QuizResult) error {
	res, err := r.db.Collection(colQuizResults).ReplaceOne(ctx, idFilter(result.ID), result)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}
