package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"codegram-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colCourses          = "courses"
	colModules          = "modules"
	colLessons          = "lessons"
	colFinalQuizzes     = "finalQuizzes"
	colUsers            = "users"
	colEnrollments      = "enrollments"
	colCompletedLessons = "completedLessons"
	colQuizResults      = "quizResults"
)

// newID returns the string id used for documents created by this service.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// idFilter matches documents whose _id is either the string id or, for documents
// imported with native ObjectIDs, the equivalent ObjectID.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var byOrder = options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})

// EnsureIndexes creates the indexes the queries and invariants rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		colCourses: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
		},
		colModules: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "order", Value: 1}}},
		},
		colLessons: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "moduleId", Value: 1}, {Key: "order", Value: 1}}},
		},
		colFinalQuizzes: {
			{Keys: bson.D{{Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{
				Keys: bson.D{{Key: "normalizedUsername", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"normalizedUsername": bson.M{"$type": "string"}}),
			},
		},
		colEnrollments: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colCompletedLessons: {
			{Keys: bson.D{{Key: "enrollmentId", Value: 1}}},
		},
		colQuizResults: {
			{Keys: bson.D{{Key: "enrollmentId", Value: 1}}},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// ========== COURSE REPOSITORY ==========

type courseRepo struct {
	db *mongo.Database
}

func NewCourseRepository(db *mongo.Database) domain.CourseRepository {
	return &courseRepo{db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	return findOne[domain.Course](ctx, r.db.Collection(colCourses), idFilter(id))
}

func (r *courseRepo) GetByStatus(ctx context.Context, status domain.CourseStatus) ([]domain.Course, error) {
	return findAll[domain.Course](ctx, r.db.Collection(colCourses), bson.M{"status": status})
}

func (r *courseRepo) GetByAuthorID(ctx context.Context, authorID string) ([]domain.Course, error) {
	return findAll[domain.Course](ctx, r.db.Collection(colCourses), bson.M{"authorId": authorID})
}

func (r *courseRepo) Create(ctx context.Context, course *domain.Course) error {
	if course.ID == "" {
		course.ID = newID()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Collection(colCourses).InsertOne(ctx, course)
	return err
}

func (r *courseRepo) UpdateStatus(ctx context.Context, id string, status domain.CourseStatus) error {
	res, err := r.db.Collection(colCourses).UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// ========== MODULE / LESSON REPOSITORY ==========

type moduleRepo struct {
	db *mongo.Database
}

func NewModuleRepository(db *mongo.Database) domain.ModuleRepository {
	return &moduleRepo{db}
}

func (r *moduleRepo) GetByCourseID(ctx context.Context, courseID string) ([]domain.Module, error) {
	return findAll[domain.Module](ctx, r.db.Collection(colModules), bson.M{"courseId": courseID}, byOrder)
}

type lessonRepo struct {
	db *mongo.Database
}

func NewLessonRepository(db *mongo.Database) domain.LessonRepository {
	return &lessonRepo{db}
}

func (r *lessonRepo) GetByModuleID(ctx context.Context, courseID, moduleID string) ([]domain.Lesson, error) {
	filter := bson.M{"courseId": courseID, "moduleId": moduleID}
	return findAll[domain.Lesson](ctx, r.db.Collection(colLessons), filter, byOrder)
}

func (r *lessonRepo) GetByID(ctx context.Context, courseID, moduleID, lessonID string) (*domain.Lesson, error) {
	filter := idFilter(lessonID)
	filter["courseId"] = courseID
	filter["moduleId"] = moduleID
	return findOne[domain.Lesson](ctx, r.db.Collection(colLessons), filter)
}

func (r *lessonRepo) CountByModuleID(ctx context.Context, courseID, moduleID string) (int, error) {
	n, err := r.db.Collection(colLessons).CountDocuments(ctx, bson.M{"courseId": courseID, "moduleId": moduleID})
	return int(n), err
}

// ========== FINAL QUIZ REPOSITORY ==========

type quizRepo struct {
	db *mongo.Database
}

func NewQuizRepository(db *mongo.Database) domain.QuizRepository {
	return &quizRepo{db}
}

func (r *quizRepo) GetFinalQuiz(ctx context.Context, courseID string) (*domain.FinalQuiz, error) {
	return findOne[domain.FinalQuiz](ctx, r.db.Collection(colFinalQuizzes), bson.M{"courseId": courseID})
}

// ========== USER REPOSITORY ==========

type userRepo struct {
	db *mongo.Database
}

func NewUserRepository(db *mongo.Database) domain.UserRepository {
	return &userRepo{db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.db.Collection(colUsers), bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.db.Collection(colUsers), bson.M{"email": strings.ToLower(email)})
}

func (r *userRepo) ExistsByNormalizedUsername(ctx context.Context, normalized string) (bool, error) {
	n, err := r.db.Collection(colUsers).CountDocuments(ctx,
		bson.M{"normalizedUsername": normalized}, options.Count().SetLimit(1))
	return n > 0, err
}

// usernameConflict maps a unique-index violation on normalizedUsername.
func usernameConflict(err error) error {
	if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "normalizedUsername") {
		return domain.ErrUsernameTaken
	}
	return err
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Collection(colUsers).InsertOne(ctx, user)
	return usernameConflict(err)
}

func (r *userRepo) ApplyProfilePatch(ctx context.Context, id string, patch domain.ProfilePatch) error {
	set := profilePatchSet(patch)
	if len(set) == 0 {
		return nil
	}
	res, err := r.db.Collection(colUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return usernameConflict(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// profilePatchSet is the single place a ProfilePatch becomes document fields.
func profilePatchSet(p domain.ProfilePatch) bson.M {
	set := bson.M{}
	if p.Username != nil {
		set["username"] = *p.Username
		set["normalizedUsername"] = strings.ToLower(*p.Username)
	}
	if p.FullName != nil {
		set["profile.fullName"] = *p.FullName
	}
	if p.Bio != nil {
		set["profile.bio"] = *p.Bio
	}
	if p.AvatarURL != nil {
		set["profile.avatarUrl"] = *p.AvatarURL
	}
	return set
}
