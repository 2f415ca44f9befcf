package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/storage"
	"github.com/eventflow/eventflow/internal/utils"
)

// ProfileUpdate carries the partial edit from the profile page. Nil fields
// are left untouched.
type ProfileUpdate struct {
	FullName    *string
	Skills      *[]string
	Interests   *[]string
	AvatarURL   *string
	Preferences *datatypes.JSON
}

type ProfileService interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	// EnsureExists creates the profile row if it is missing and returns the
	// stored row either way. Callable at sign-up and at session resolution.
	EnsureExists(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) (*models.Profile, error)
	// UploadAvatar stores the image keyed by user id and returns its public
	// URL; the profile row is updated by the subsequent Update call.
	UploadAvatar(ctx context.Context, userID, ext, contentType string, r storage.Reader) (string, error)
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	uploader storage.Uploader
}

func NewProfileService(profiles pgrepo.ProfileRepository, uploader storage.Uploader) ProfileService {
	return &profileService{profiles: profiles, uploader: uploader}
}

func (s *profileService) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	const op = "ProfileService.GetByID"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}

	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) EnsureExists(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	const op = "ProfileService.EnsureExists"

	if p == nil || p.ID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "profile.id is required", nil)
	}
	if !p.Role.Valid() {
		p.Role = models.RoleParticipant
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	if err := s.profiles.InsertIfMissing(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to ensure profile", err)
	}

	// re-read so a pre-existing row wins over the defaults above
	stored, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read profile back", err)
	}
	return stored, nil
}

func (s *profileService) Update(ctx context.Context, id string, upd ProfileUpdate) (*models.Profile, error) {
	const op = "ProfileService.Update"

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		existing.FullName = *upd.FullName
	}
	if upd.Skills != nil {
		existing.Skills = *upd.Skills
	}
	if upd.Interests != nil {
		existing.Interests = *upd.Interests
	}
	if upd.AvatarURL != nil {
		existing.AvatarURL = *upd.AvatarURL
	}
	if upd.Preferences != nil {
		existing.Preferences = *upd.Preferences
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.profiles.Update(ctx, existing); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return existing, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID, ext, contentType string, r storage.Reader) (string, error) {
	const op = "ProfileService.UploadAvatar"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if s.uploader == nil {
		return "", utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}
	if ext == "" {
		ext = "png"
	}

	// one object per user so re-uploads replace the previous avatar
	objectName := "avatars/" + userID + "." + ext
	url, err := s.uploader.Upload(ctx, objectName, contentType, r)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to upload avatar", err)
	}
	return url, nil
}

func newID() string { return uuid.NewString() }
