package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ladi-press/manuscript-eval/constants"
)

// Evaluation is one manuscript evaluation row. Score columns stay nil until
// the job completes; ResultJSON holds the full combined result for later
// retrieval, the columns exist for listing and querying.
type Evaluation struct {
	ID                 uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             string                     `gorm:"index;not null" json:"user_id"`
	Filename           string                     `gorm:"not null" json:"filename"`
	Format             constants.FileFormat       `gorm:"type:varchar(16)" json:"format"`
	Status             constants.EvaluationStatus `gorm:"type:varchar(16);index" json:"status"`
	OverallScore       *int                       `json:"overall_score,omitempty"`
	LineEditingScore   *int                       `json:"line_editing_score,omitempty"`
	PlotScore          *int                       `json:"plot_score,omitempty"`
	CharacterScore     *int                       `json:"character_score,omitempty"`
	FlowScore          *int                       `json:"flow_score,omitempty"`
	WorldbuildingScore *int                       `json:"worldbuilding_score,omitempty"`
	ReadinessScore     *int                       `json:"readiness_score,omitempty"`
	MethodsUsed        string                     `json:"methods_used"`
	TemplatesUsed      string                     `json:"templates_used"`
	ResultJSON         string                     `gorm:"type:text" json:"-"`
	ManuscriptPath     string                     `json:"-"`
	ReportPath         string                     `json:"-"`
	ScoresPath         string                     `json:"-"`
	ErrorMessage       string                     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

func (e *Evaluation) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Template is one uploaded evaluation template: a spreadsheet whose sheets
// define custom per-category prompts. Rows are scoped to the uploader;
// deactivated templates stay listable but are not usable for evaluation.
type Template struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	FilePath         string    `gorm:"not null" json:"-"`
	OriginalFilename string    `json:"original_filename"`
	UploadedBy       string    `gorm:"index;not null" json:"uploaded_by"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	UsageCount       int       `gorm:"default:0" json:"usage_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (t *Template) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
