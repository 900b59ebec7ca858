package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"codegram-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	avatarBucket = "avatars"
	// MaxAvatarSize is the upload limit for profile images.
	MaxAvatarSize = 5 * 1024 * 1024
)

var (
	ErrFileTooLarge    = errors.New("файл завеликий, максимум 5MB")
	ErrFileTypeInvalid = errors.New("дозволені лише зображення JPG, PNG, GIF або WEBP")
	ErrFileNotFound    = errors.New("файл не знайдено")
)

// FileInfo describes a stored avatar.
type FileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadDate  time.Time `json:"uploadDate"`
	OwnerID     string    `json:"ownerId"`
}

// FileStore is the GridFS-backed avatar store; it also serves the stored files.
type FileStore interface {
	domain.AvatarStore
	Download(ctx context.Context, fileID string) (io.ReadCloser, *FileInfo, error)
	GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error)
}

type gridFSRepo struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
}

func NewGridFSRepository(db *mongo.Database) (FileStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(avatarBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to create GridFS bucket: %w", err)
	}
	return &gridFSRepo{db: db, bucket: bucket}, nil
}

func (r *gridFSRepo) UploadAvatar(ctx context.Context, ownerID, filename, contentType string, size int64, src io.Reader) (string, error) {
	if size > MaxAvatarSize {
		return "", ErrFileTooLarge
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(filename)
	}
	if !isAllowedImage(contentType) {
		return "", ErrFileTypeInvalid
	}

	storedName := fmt.Sprintf("%s_%d%s", ownerID, time.Now().UnixNano(), strings.ToLower(filepath.Ext(filename)))
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"ownerId":      ownerID,
		"originalName": filename,
		"contentType":  contentType,
	})

	stream, err := r.bucket.OpenUploadStream(storedName, opts)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	// the declared size may lie, so the stream is counted too
	if err := storeLimited(stream, src, MaxAvatarSize); err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	objectID, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("upload avatar: unexpected file id %v", stream.FileID)
	}
	return objectID.Hex(), nil
}

type uploadSink interface {
	io.Writer
	Abort() error
	Close() error
}

// storeLimited copies at most limit bytes; a longer stream is aborted with
// ErrFileTooLarge instead of being stored truncated.
func storeLimited(dst uploadSink, src io.Reader, limit int64) error {
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err == nil && n > limit {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = dst.Abort()
		return err
	}
	return dst.Close()
}

func (r *gridFSRepo) Download(ctx context.Context, fileID string) (io.ReadCloser, *FileInfo, error) {
	info, err := r.GetFileInfo(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	objectID, _ := primitive.ObjectIDFromHex(info.ID)
	stream, err := r.bucket.OpenDownloadStream(objectID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, nil, ErrFileNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return stream, info, nil
}

func (r *gridFSRepo) GetFileInfo(ctx context.Context, fileID string) (*FileInfo, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, ErrFileNotFound
	}

	var doc struct {
		ID         primitive.ObjectID `bson:"_id"`
		Filename   string             `bson:"filename"`
		Length     int64              `bson:"length"`
		UploadDate time.Time          `bson:"uploadDate"`
		Metadata   struct {
			OwnerID     string `bson:"ownerId"`
			ContentType string `bson:"contentType"`
		} `bson:"metadata"`
	}
	err = r.db.Collection(avatarBucket+".files").FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	contentType := doc.Metadata.ContentType
	if contentType == "" {
		contentType = detectContentType(doc.Filename)
	}
	return &FileInfo{
		ID:          doc.ID.Hex(),
		Filename:    doc.Filename,
		ContentType: contentType,
		Size:        doc.Length,
		UploadDate:  doc.UploadDate,
		OwnerID:     doc.Metadata.OwnerID,
	}, nil
}

func detectContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func isAllowedImage(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
