package directory

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/types"
)

// ProfileDirectory resolves user ids to roles and display attributes. It is
// the only view of profile data the session and message services consume.
type ProfileDirectory interface {
	GetRole(userId int) (string, error)
	Exists(userId int) (bool, error)
	GetProfile(userId int) (types.Profile, error)
}

type Directory struct {
	db database.CounselRepository
}

func NewDirectory(db database.CounselRepository) *Directory {
	return &Directory{db: db}
}

func (d *Directory) GetRole(userId int) (string, error) {
	profile, err := d.db.GetProfileById(userId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: profile %d", types.ErrNotFound, userId)
	}
	if err != nil {
		return "", err
	}

	return profile.Role, nil
}

func (d *Directory) Exists(userId int) (bool, error) {
	return d.db.ProfileExists(userId)
}

func (d *Directory) GetProfile(userId int) (types.Profile, error) {
	profile, err := d.db.GetProfileById(userId)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Profile{}, fmt.Errorf("%w: profile %d", types.ErrNotFound, userId)
	}
	if err != nil {
		return types.Profile{}, err
	}

	return types.Profile{
		Id:           profile.Id,
		Username:     profile.Username,
		EmailAddress: profile.EmailAddress,
		Role:         profile.Role,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	}, nil
}
