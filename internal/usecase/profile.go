package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"codegram-backend/internal/cache"
	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"
)

const avatarPathPrefix = "/api/v1/files/"

type profileUsecase struct {
	users      domain.UserRepository
	courseRepo domain.CourseRepository
	avatars    domain.AvatarStore
	authors    cache.AuthorCache
	log        *logger.Logger
}

func NewProfileUsecase(
	ur domain.UserRepository,
	cr domain.CourseRepository,
	avatars domain.AvatarStore,
	authors cache.AuthorCache,
	log *logger.Logger,
) domain.ProfileUsecase {
	return &profileUsecase{
		users:      ur,
		courseRepo: cr,
		avatars:    avatars,
		authors:    authors,
		log:        log.With("service", "profile"),
	}
}

func (uc *profileUsecase) LoadUserProfile(ctx context.Context, uid string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, uid)
	if err != nil {
		uc.log.Error("Error loading user profile", "uid", uid, "error", err)
		return nil, domain.Wrap("Не вдалося завантажити профіль", err)
	}
	return user, nil
}

// GetPublicProfile returns the author view: profile plus approved courses.
func (uc *profileUsecase) GetPublicProfile(ctx context.Context, uid string) (*domain.PublicProfile, error) {
	const msg = "Не вдалося завантажити профіль"

	user, err := uc.users.GetByID(ctx, uid)
	if err != nil {
		uc.log.Error("Error loading public profile", "uid", uid, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if user == nil {
		return nil, nil
	}
	courses, err := uc.courseRepo.GetByAuthorID(ctx, uid)
	if err != nil {
		uc.log.Error("Error loading author courses", "uid", uid, "error", err)
		return nil, domain.Wrap(msg, err)
	}

	public := &domain.PublicProfile{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Profile:  user.Profile,
		Courses:  []domain.Course{},
	}
	for _, c := range courses {
		if c.Status == domain.CourseStatusApproved {
			public.Courses = append(public.Courses, c)
		}
	}
	return public, nil
}

// UpdateUserProfile applies only the fields set in patch. An unchanged
// username is dropped from the patch; a new one must be unused.
func (uc *profileUsecase) UpdateUserProfile(ctx context.Context, uid string, patch domain.ProfilePatch) (*domain.User, error) {
	const msg = "Помилка при оновленні профілю"

	current, err := uc.users.GetByID(ctx, uid)
	if err != nil {
		uc.log.Error("Error loading user profile", "uid", uid, "error", err)
		return nil, domain.Wrap(msg, err)
	}
	if current == nil {
		return nil, domain.Wrap(msg, domain.ErrUserNotFound)
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		switch {
		case username == "" || username == current.Username:
			patch.Username = nil
		case strings.EqualFold(username, current.Username):
			patch.Username = &username
		default:
			taken, err := uc.users.ExistsByNormalizedUsername(ctx, strings.ToLower(username))
			if err != nil {
				uc.log.Error("Error checking username", "uid", uid, "error", err)
				return nil, domain.Wrap(msg, err)
			}
			if taken {
				return nil, domain.Wrap(msg, domain.ErrUsernameTaken)
			}
			patch.Username = &username
		}
	}
	if patch.AvatarURL != nil && *patch.AvatarURL == "" {
		patch.AvatarURL = nil
	}
	if patch.IsEmpty() {
		return current, nil
	}

	if err := uc.users.ApplyProfilePatch(ctx, uid, patch); err != nil {
		if !errors.Is(err, domain.ErrUsernameTaken) {
			uc.log.Error("Error updating profile", "uid", uid, "error", err)
		}
		return nil, domain.Wrap(msg, err)
	}
	uc.authors.Invalidate(ctx, uid)

	applyPatch(current, patch)
	uc.log.Info("Profile updated", "uid", uid)
	return current, nil
}

// applyPatch mirrors the stored update on an in-memory copy.
func applyPatch(u *domain.User, p domain.ProfilePatch) {
	if p.Username != nil {
		u.Username = *p.Username
		u.NormalizedUsername = strings.ToLower(*p.Username)
	}
	if p.FullName != nil {
		u.Profile.FullName = *p.FullName
	}
	if p.Bio != nil {
		u.Profile.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		u.Profile.AvatarURL = *p.AvatarURL
	}
}

func (uc *profileUsecase) UploadAvatar(ctx context.Context, uid, filename, contentType string, size int64, r io.Reader) (*domain.User, error) {
	fileID, err := uc.avatars.UploadAvatar(ctx, uid, filename, contentType, size, r)
	if err != nil {
		uc.log.Warn("Avatar upload rejected", "uid", uid, "error", err)
		return nil, &domain.OpError{Message: "Не вдалося завантажити аватар", Err: err}
	}
	url := avatarPathPrefix + fileID
	return uc.UpdateUserProfile(ctx, uid, domain.ProfilePatch{AvatarURL: &url})
}
