// Package assets owns the lifecycle of stored video records: loading them,
// checking which transforms are legal, and committing transitions.
package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"video-pipeline/apperr"
	"video-pipeline/media"
)

type Store struct {
	db    *gorm.DB
	locks *Locker
	log   *logrus.Entry
}

func New(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:    db,
		locks: NewLocker(),
		log:   logger.WithField("component", "assets"),
	}
}

// Create persists a freshly uploaded asset.
func (s *Store) Create(ctx context.Context, asset media.Asset) (media.Asset, error) {
	asset.ID = 0
	asset.Status = media.StatusUploaded
	asset.Version = 1
	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		return media.Asset{}, apperr.Persistence("create", err)
	}
	s.log.Infof("asset %d created from %s", asset.ID, asset.Name)
	return asset, nil
}

func (s *Store) Load(ctx context.Context, id uint) (media.Asset, error) {
	var asset media.Asset
	err := s.db.WithContext(ctx).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return media.Asset{}, apperr.NotFound("load", err)
	}
	if err != nil {
		return media.Asset{}, apperr.Persistence("load", err)
	}
	return asset, nil
}

// CheckApply fails with apperr.KindInvalidTransition when op may not be
// applied to the asset in its current status.
func CheckApply(asset media.Asset, op media.Op) error {
	if !media.CanApply(asset.Status, op) {
		return apperr.InvalidTransition(string(op),
			fmt.Errorf("asset %d is %s", asset.ID, asset.Status))
	}
	return nil
}

// Commit moves asset to newStatus with newPath as its artifact. The update
// only applies if the stored version still matches the one asset was loaded
// at, so a concurrent commit is detected instead of silently overwritten.
func (s *Store) Commit(ctx context.Context, asset media.Asset, newPath string, newStatus media.Status) (media.Asset, error) {
	if err := media.ValidateTransition(asset.Status, newStatus); err != nil {
		return media.Asset{}, apperr.InvalidTransition("commit", err)
	}

	var updated media.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&media.Asset{}).
			Where("id = ? AND version = ?", asset.ID, asset.Version).
			Updates(map[string]interface{}{
				"path":    newPath,
				"status":  newStatus,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return apperr.Persistence("commit", res.Error)
		}

		if res.RowsAffected == 0 {
			var current media.Asset
			err := tx.First(&current, asset.ID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("commit", err)
			}
			if err != nil {
				return apperr.Persistence("commit", err)
			}
			return apperr.Persistence("commit", fmt.Errorf("asset %d was modified concurrently (version %d, expected %d)",
				asset.ID, current.Version, asset.Version))
		}

		if err := tx.First(&updated, asset.ID).Error; err != nil {
			return apperr.Persistence("commit", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Persistence("commit", err)
		}
		return media.Asset{}, err
	}

	s.log.Infof("asset %d: %s -> %s (%s)", asset.ID, asset.Status, newStatus, newPath)
	return updated, nil
}

// RequireRendered returns asset only once it has been rendered.
func RequireRendered(asset media.Asset) (media.Asset, error) {
	if asset.Status != media.StatusRendered {
		return media.Asset{}, apperr.NotReady("download")
	}
	return asset, nil
}

// Lock serializes work on one asset within this process. Call the returned
// func to release it.
func (s *Store) Lock(id uint) func() {
	return s.locks.Lock(id)
}
