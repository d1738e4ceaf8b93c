// Package orchestrator runs the profile, analysis, recommendation and export steps of a
// user's workflow. Each step loads the user's session state, derives a new state and
// saves it wholesale.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"precision-medicine-server/internal/approach"
	"precision-medicine-server/internal/domain"
	"precision-medicine-server/internal/export"
	"precision-medicine-server/internal/extraction"
	"precision-medicine-server/internal/metrics"
	"precision-medicine-server/internal/models"
	"precision-medicine-server/internal/pdftext"
	"precision-medicine-server/internal/ranking"
	"precision-medicine-server/internal/recommend"
	"precision-medicine-server/internal/session"
	"precision-medicine-server/internal/utils"
)

// DefaultQuery is used when a recommendation or export request carries no query.
const DefaultQuery = "What are my therapy options?"

// Archive is the persistence the workflow needs. *models.Archive implements it.
type Archive interface {
	SaveProfile(ctx context.Context, userID string, p domain.Profile) error
	LoadProfile(ctx context.Context, userID string) (domain.Profile, error)
	CreateReport(ctx context.Context, report *models.Report) error
	SaveTherapies(ctx context.Context, therapies []models.Therapy) error
	ListReports(ctx context.Context, userID string) ([]models.Report, error)
	GetReport(ctx context.Context, userID, id string) (*models.Report, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Archive     Archive
	Sessions    session.Store
	Recommender *recommend.Client
	Selector    *approach.Selector
	Exporter    *export.Exporter
	Metrics     *metrics.Metrics
}

type Orchestrator struct {
	archive     Archive
	sessions    session.Store
	recommender *recommend.Client
	selector    *approach.Selector
	exporter    *export.Exporter
	metrics     *metrics.Metrics
}

func New(d Deps) *Orchestrator {
	if d.Exporter == nil {
		d.Exporter = export.NewExporter()
	}
	return &Orchestrator{
		archive:     d.Archive,
		sessions:    d.Sessions,
		recommender: d.Recommender,
		selector:    d.Selector,
		exporter:    d.Exporter,
		metrics:     d.Metrics,
	}
}

// UploadedFile is a report file received from the client.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReportInput is a pathology report given as text, as a PDF, or both. A PDF takes
// precedence over the text.
type ReportInput struct {
	Name string
	Text string
	File *UploadedFile
}

// Analysis is the outcome of analyzing a report.
type Analysis struct {
	ReportID   string           `json:"report_id"`
	ReportName string           `json:"report_name"`
	FileName   string           `json:"file_name,omitempty"`
	Entities   domain.EntityBag `json:"entities"`
}

// AgentRequest asks for recommendations for the user's current profile and report.
type AgentRequest struct {
	AgentType string
	Query     string
	// AgentMode makes one call per philosophy even for single-call selectors.
	AgentMode bool
}

// Recommendations are ranked therapies with the per-philosophy outcomes behind them.
type Recommendations struct {
	Selector  domain.Selector               `json:"agent_type"`
	Query     string                        `json:"query"`
	Therapies []domain.TherapyRecord        `json:"therapies"`
	Outcomes  []recommend.PhilosophyOutcome `json:"outcomes"`
}

// ResultsView is the user's latest recommendations along with their inputs.
type ResultsView struct {
	Selector   domain.Selector        `json:"agent_type"`
	Query      string                 `json:"query"`
	Profile    domain.Profile         `json:"profile"`
	ReportName string                 `json:"report_name,omitempty"`
	Entities   domain.EntityBag       `json:"entities"`
	Therapies  []domain.TherapyRecord `json:"therapies"`
}

func (o *Orchestrator) load(ctx context.Context, userID string) (session.State, error) {
	state, _, err := o.sessions.Load(ctx, userID)
	if err != nil {
		o.storeError("load")
		return session.State{}, utils.PersistenceError("Failed to load session", err)
	}
	return state, nil
}

func (o *Orchestrator) save(ctx context.Context, userID string, state session.State) error {
	if err := o.sessions.Save(ctx, userID, state); err != nil {
		o.storeError("save")
		return utils.PersistenceError("Failed to save session", err)
	}
	return nil
}

// EndSession discards the user's workflow state.
func (o *Orchestrator) EndSession(ctx context.Context, userID string) error {
	if err := o.sessions.Delete(ctx, userID); err != nil {
		o.storeError("delete")
		return utils.PersistenceError("Failed to clear session", err)
	}
	return nil
}

func (o *Orchestrator) storeError(op string) {
	if o.metrics != nil {
		o.metrics.SessionStoreErrors.WithLabelValues(op).Inc()
	}
}

// SaveProfile stores the profile and makes it the session's current profile.
func (o *Orchestrator) SaveProfile(ctx context.Context, userID string, p domain.Profile) (domain.Profile, error) {
	if err := o.archive.SaveProfile(ctx, userID, p); err != nil {
		return domain.Profile{}, utils.PersistenceError("Failed to save profile", err)
	}
	state, err := o.load(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := o.save(ctx, userID, state.WithProfile(p)); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// GetProfile returns the session profile, falling back to the stored one.
func (o *Orchestrator) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	state, err := o.load(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !state.Profile.IsEmpty() {
		return state.Profile, nil
	}
	p, err := o.archive.LoadProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return domain.Profile{}, nil
	}
	if err != nil {
		return domain.Profile{}, utils.PersistenceError("Failed to load profile", err)
	}
	return p, nil
}

// AnalyzeReport extracts entities from a report, stores it and makes it the session's
// current report.
func (o *Orchestrator) AnalyzeReport(ctx context.Context, userID string, in ReportInput) (*Analysis, error) {
	text := in.Text
	reportType := models.ReportTypeText
	if in.File != nil {
		extracted, err := pdftext.Extract(in.File.Data)
		if errors.Is(err, pdftext.ErrNoText) {
			return nil, utils.ExtractionError("The uploaded PDF did not contain any extractable text. Please try a different file or enter text manually.", err)
		}
		if err != nil {
			return nil, utils.ExtractionError("Error processing PDF. Please try a different file or enter text manually.", err)
		}
		text = extracted
		reportType = models.ReportTypePDF
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.InputError("Please either upload a PDF or enter report text")
	}

	entities := extraction.Extract(text)

	name := strings.TrimSpace(in.Name)
	if name == "" && in.File != nil {
		name = in.File.Name
	}
	if name == "" {
		name = "Pathology Report " + time.Now().UTC().Format("2006-01-02 15:04")
	}

	report := &models.Report{
		UserID:     userID,
		ReportName: name,
		ReportType: reportType,
		ReportText: text,
	}
	if err := report.SetEntities(entities); err != nil {
		return nil, utils.PersistenceError("Failed to save report", err)
	}
	if in.File != nil {
		report.Files = []models.ReportFile{{
			FileName: in.File.Name,
			FileType: in.File.ContentType,
			FileData: in.File.Data,
		}}
	}
	if err := o.archive.CreateReport(ctx, report); err != nil {
		return nil, utils.PersistenceError("Failed to save report", err)
	}

	state, err := o.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	rs := session.ReportState{ID: report.ID, Name: name, Text: text, Entities: entities}
	if in.File != nil {
		rs.FileName = in.File.Name
	}
	if err := o.save(ctx, userID, state.WithReport(rs)); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("report_id", report.ID).
		Str("report_type", string(reportType)).
		Msg("Report analyzed")

	return &Analysis{
		ReportID:   report.ID,
		ReportName: name,
		FileName:   rs.FileName,
		Entities:   entities.Clone(),
	}, nil
}

// SelectAgent recommends therapies for the session's profile and report, ranks and
// stores them, and records them in the session.
func (o *Orchestrator) SelectAgent(ctx context.Context, userID string, req AgentRequest) (*Recommendations, error) {
	if strings.TrimSpace(req.AgentType) == "" {
		return nil, utils.InputError("Please select an agent type")
	}
	sel, err := domain.ParseSelector(req.AgentType)
	if err != nil {
		return nil, utils.InputError(err.Error())
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = DefaultQuery
	}

	state, err := o.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	recs := o.Recommend(ctx, sel, recommend.Input{
		Profile:  state.Profile,
		Entities: state.Entities(),
		Query:    query,
	}, req.AgentMode)

	var reportID *string
	if state.Report != nil && state.Report.ID != "" {
		id := state.Report.ID
		reportID = &id
	}
	rows := make([]models.Therapy, 0, len(recs.Therapies))
	for i, rec := range recs.Therapies {
		rows = append(rows, models.NewTherapy(userID, reportID, sel, i+1, rec))
	}
	if err := o.archive.SaveTherapies(ctx, rows); err != nil {
		return nil, utils.PersistenceError("Failed to save recommendations", err)
	}

	if err := o.save(ctx, userID, state.WithRecommendations(sel, query, recs.Therapies)); err != nil {
		return nil, err
	}
	return recs, nil
}

// Recommend fetches and ranks recommendations without touching session state.
func (o *Orchestrator) Recommend(ctx context.Context, sel domain.Selector, in recommend.Input, agentMode bool) *Recommendations {
	if in.Query == "" {
		in.Query = DefaultQuery
	}
	result := o.recommender.Recommend(ctx, sel, in, agentMode)
	return &Recommendations{
		Selector:  sel,
		Query:     in.Query,
		Therapies: ranking.Rank(result.Therapies),
		Outcomes:  result.Outcomes,
	}
}

// SelectApproach picks the medical approach best suited to a health query.
func (o *Orchestrator) SelectApproach(ctx context.Context, query string) (domain.Decision, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Decision{}, utils.InputError("Missing health query")
	}
	return o.selector.Select(ctx, query), nil
}

// ExtractEntities runs keyword extraction on text.
func (o *Orchestrator) ExtractEntities(text string) (domain.EntityBag, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EntityBag{}, utils.InputError("No text provided")
	}
	return extraction.Extract(text), nil
}

// Results returns the session's latest recommendations with display defaults applied.
func (o *Orchestrator) Results(ctx context.Context, userID string) (*ResultsView, error) {
	state, err := o.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &ResultsView{
		Selector:  state.Selector,
		Query:     state.Query,
		Profile:   state.Profile,
		Entities:  state.Entities(),
		Therapies: make([]domain.TherapyRecord, 0, len(state.Therapies)),
	}
	if view.Selector == "" {
		view.Selector = domain.DefaultSelector
	}
	if state.Report != nil {
		view.ReportName = state.Report.Name
	}
	for _, t := range state.Therapies {
		view.Therapies = append(view.Therapies, t.WithDefaults())
	}
	return view, nil
}

// Export renders the session's recommendations as a PDF report.
func (o *Orchestrator) Export(ctx context.Context, userID, query string) (*export.Output, error) {
	state, err := o.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !state.HasTherapies() {
		return nil, utils.InputError("No therapy recommendations found in session")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		query = state.Query
	}
	if query == "" {
		query = DefaultQuery
	}
	sel := state.Selector
	if sel == "" {
		sel = domain.DefaultSelector
	}

	out, err := o.exporter.Export(export.Document{
		Profile:   state.Profile,
		Entities:  state.Entities(),
		Therapies: state.Therapies,
		Selector:  sel,
		Query:     query,
	})
	if err != nil {
		return nil, fmt.Errorf("export report: %w", err)
	}
	if o.metrics != nil {
		o.metrics.ReportsExported.Inc()
	}
	return out, nil
}

// Reports lists the user's stored reports, newest first.
func (o *Orchestrator) Reports(ctx context.Context, userID string) ([]models.Report, error) {
	reports, err := o.archive.ListReports(ctx, userID)
	if err != nil {
		return nil, utils.PersistenceError("Failed to load reports", err)
	}
	return reports, nil
}

// ReportView is a stored report with its entities and recommendations decoded.
type ReportView struct {
	ID         string                 `json:"id"`
	ReportName string                 `json:"report_name"`
	ReportType models.ReportType      `json:"report_type"`
	ReportText string                 `json:"report_text"`
	CreatedAt  time.Time              `json:"created_at"`
	Entities   domain.EntityBag       `json:"entities"`
	Therapies  []domain.TherapyRecord `json:"therapies"`
}

// Report returns one of the user's reports with its recommendations.
func (o *Orchestrator) Report(ctx context.Context, userID, id string) (*ReportView, error) {
	report, err := o.archive.GetReport(ctx, userID, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, utils.NotFoundError("Report not found")
	}
	if err != nil {
		return nil, utils.PersistenceError("Failed to load report", err)
	}

	entities, err := report.Entities()
	if err != nil {
		return nil, utils.PersistenceError("Failed to load report", err)
	}
	view := &ReportView{
		ID:         report.ID,
		ReportName: report.ReportName,
		ReportType: report.ReportType,
		ReportText: report.ReportText,
		CreatedAt:  report.CreatedAt,
		Entities:   entities,
		Therapies:  make([]domain.TherapyRecord, 0, len(report.Therapies)),
	}
	for i := range report.Therapies {
		view.Therapies = append(view.Therapies, report.Therapies[i].Record())
	}
	return view, nil
}
