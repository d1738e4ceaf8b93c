package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"precision-medicine-server/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist or belongs to someone else.
var ErrNotFound = errors.New("record not found")

// Archive persists profiles, analyzed reports and recommendations.
type Archive struct {
	DB *gorm.DB
}

func NewArchive(db *gorm.DB) *Archive {
	return &Archive{DB: db}
}

// SaveProfile creates or replaces the user's profile row.
func (a *Archive) SaveProfile(ctx context.Context, userID string, p domain.Profile) error {
	return a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row Profile
		err := tx.Where("user_id = ?", userID).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = Profile{UserID: userID}
			row.Apply(p)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("load profile: %w", err)
		}

		row.Apply(p)
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
}

// LoadProfile returns the stored profile, or ErrNotFound.
func (a *Archive) LoadProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var row Profile
	err := a.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return row.ToDomain(), nil
}

// CreateReport stores a report and its uploaded files in one transaction.
func (a *Archive) CreateReport(ctx context.Context, report *Report) error {
	return a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		files := report.Files
		report.Files = nil
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		for i := range files {
			files[i].ReportID = report.ID
			if err := tx.Create(&files[i]).Error; err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
		}
		report.Files = files
		return nil
	})
}

// SaveTherapies stores ranked recommendations in one transaction; a failure stores none.
func (a *Archive) SaveTherapies(ctx context.Context, therapies []Therapy) error {
	if len(therapies) == 0 {
		return nil
	}
	return a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range therapies {
			if err := tx.Create(&therapies[i]).Error; err != nil {
				return fmt.Errorf("create therapy: %w", err)
			}
		}
		return nil
	})
}

// ListReports returns the user's reports, newest first, without their text.
func (a *Archive) ListReports(ctx context.Context, userID string) ([]Report, error) {
	var reports []Report
	err := a.DB.WithContext(ctx).
		Select("id", "created_at", "updated_at", "user_id", "report_name", "report_type", "extracted_data").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GetReport returns one of the user's reports with its recommendations.
func (a *Archive) GetReport(ctx context.Context, userID, id string) (*Report, error) {
	var report Report
	err := a.DB.WithContext(ctx).
		Preload("Therapies", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}
