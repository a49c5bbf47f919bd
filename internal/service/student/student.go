package student

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

const maxAvatarSizeBytes = 2 << 20

type studentRepo interface {
	FetchAll(ctx context.Context) ([]models.Profile, error)
	FetchByID(ctx context.Context, id models.ID) (*models.Profile, error)
	UpdateName(ctx context.Context, id models.ID, firstName, lastName string) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, id models.ID, avatar string) (*models.Profile, error)
}

type avatarStorage interface {
	UploadAvatar(ctx context.Context, studentID models.ID, filename string, reader io.Reader, size int64, contentType string) (objectKey string, err error)
	AvatarURL(ctx context.Context, objectKey string) (string, error)
	DeleteAvatar(ctx context.Context, objectKey string) error
}

// Student is a profile as the roster shows it.
type Student struct {
	models.Profile
	Name string `json:"name"`
}

type StudentService struct {
	log         logger.Log
	studentRepo studentRepo
	avatars     avatarStorage
}

// NewStudentService builds the roster service. avatars may be nil when no
// object storage is configured.
func NewStudentService(l logger.Log, studentRepo studentRepo, avatars avatarStorage) *StudentService {
	return &StudentService{log: l, studentRepo: studentRepo, avatars: avatars}
}

// Roster lists every student, newest first.
func (s *StudentService) Roster(ctx context.Context) ([]Student, error) {
	profiles, err := s.studentRepo.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Student, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, s.view(ctx, p))
	}
	return out, nil
}

func (s *StudentService) Student(ctx context.Context, id models.ID) (*Student, error) {
	p, err := s.studentRepo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("student %s: %w", id, app_errors.ErrNotFound)
	}
	v := s.view(ctx, *p)
	return &v, nil
}

func (s *StudentService) UpdateName(ctx context.Context, id models.ID, firstName, lastName string) (*Student, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, fmt.Errorf("%w: name is required", app_errors.ErrInvalidInput)
	}
	p, err := s.studentRepo.UpdateName(ctx, id, firstName, lastName)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, *p)
	return &v, nil
}

// UploadAvatar stores a new image for the student, drops the previous one
// and returns a presigned URL for the upload.
func (s *StudentService) UploadAvatar(
	ctx context.Context,
	id models.ID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (string, error) {
	if s.avatars == nil {
		return "", app_errors.ErrStorageDisabled
	}
	if size > maxAvatarSizeBytes {
		return "", app_errors.ErrFileSize
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", app_errors.ErrNotImage
	}

	current, err := s.studentRepo.FetchByID(ctx, id)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fmt.Errorf("student %s: %w", id, app_errors.ErrNotFound)
	}

	objectKey, err := s.avatars.UploadAvatar(ctx, id, filename, reader, size, contentType)
	if err != nil {
		s.log.ErrorErr("failed to upload avatar to storage", err)
		return "", err
	}
	if _, err := s.studentRepo.UpdateAvatar(ctx, id, objectKey); err != nil {
		s.log.ErrorErr("failed to save avatar key", err)
		return "", err
	}
	if prev := objectKeyOf(current.AvatarURL); prev != "" {
		if err := s.avatars.DeleteAvatar(ctx, prev); err != nil {
			s.log.ErrorErr("failed to delete previous avatar", err)
		}
	}

	url, err := s.avatars.AvatarURL(ctx, objectKey)
	if err != nil {
		s.log.ErrorErr("failed to get presigned URL", err)
		return "", err
	}
	return url, nil
}

func (s *StudentService) view(ctx context.Context, p models.Profile) Student {
	v := Student{Profile: p, Name: p.Name()}
	if key := objectKeyOf(p.AvatarURL); key != "" {
		v.AvatarURL = nil
		if s.avatars != nil {
			if url, err := s.avatars.AvatarURL(ctx, key); err == nil {
				v.AvatarURL = &url
			} else {
				s.log.ErrorErr("failed to get avatar URL", err, "student_id", p.ID.String())
			}
		}
	}
	return v
}

// objectKeyOf returns the stored avatar when it is an object key. Absolute
// URLs from older rows are served as they are.
func objectKeyOf(avatar *string) string {
	if avatar == nil {
		return ""
	}
	a := strings.TrimSpace(*avatar)
	if a == "" || strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
		return ""
	}
	return a
}
