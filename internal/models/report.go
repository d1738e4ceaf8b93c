package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"precision-medicine-server/internal/domain"
)

// ReportType tells how a report reached the server.
type ReportType string

const (
	ReportTypeText ReportType = "text"
	ReportTypePDF  ReportType = "pdf"
)

// Report is an analyzed pathology report together with its extracted entities.
type Report struct {
	BaseModel
	UserID        string         `gorm:"size:36;index;not null" json:"userId"`
	ReportName    string         `gorm:"size:128;not null" json:"reportName"`
	ReportType    ReportType     `gorm:"size:64;not null" json:"reportType"`
	ReportText    string         `gorm:"type:text;not null" json:"reportText,omitempty"`
	ExtractedData datatypes.JSON `json:"extractedData"`

	// Relations
	User      User         `gorm:"foreignKey:UserID" json:"-"`
	Files     []ReportFile `gorm:"foreignKey:ReportID" json:"files,omitempty"`
	Therapies []Therapy    `gorm:"foreignKey:ReportID" json:"therapies,omitempty"`
}

// ReportFile is an uploaded PDF kept alongside its report.
type ReportFile struct {
	BaseModel
	ReportID string `json:"reportId" gorm:"not null;type:varchar(36);index"`
	FileName string `json:"fileName" gorm:"not null"`         // Original name of the file
	FileType string `json:"fileType" gorm:"not null"`         // MIME type of the file
	FileData []byte `json:"-" gorm:"type:longblob;not null"` // longblob for MySQL
}

// SetEntities stores bag as the report's extracted data.
func (r *Report) SetEntities(bag domain.EntityBag) error {
	data, err := json.Marshal(bag.Clone())
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}
	r.ExtractedData = datatypes.JSON(data)
	return nil
}

// Entities decodes the stored extracted data. Missing data yields an empty bag.
func (r *Report) Entities() (domain.EntityBag, error) {
	if len(r.ExtractedData) == 0 {
		return domain.NewEntityBag(), nil
	}
	var bag domain.EntityBag
	if err := json.Unmarshal(r.ExtractedData, &bag); err != nil {
		return domain.NewEntityBag(), fmt.Errorf("decode entities: %w", err)
	}
	return bag.Clone(), nil
}
