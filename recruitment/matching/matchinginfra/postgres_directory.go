package matchinginfra

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

//go:embed migrations/002_profiles.sql
var profilesSchemaSQL string

// PostgresDirectory resolves index hits against the portal's profile tables.
type PostgresDirectory struct {
	db *sqlx.DB
}

var (
	_ matching.CandidateDirectory = (*PostgresDirectory)(nil)
	_ matching.JobDirectory       = (*PostgresDirectory)(nil)
)

func NewPostgresDirectory(db *sqlx.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (r *PostgresDirectory) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, profilesSchemaSQL); err != nil {
		return fmt.Errorf("create profile tables: %w", err)
	}
	return nil
}

// ============================================================================
// Database Models
// ============================================================================

type jobModel struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Company         string         `db:"company"`
	Description     string         `db:"description"`
	RequiredSkills  pq.StringArray `db:"required_skills"`
	PreferredSkills pq.StringArray `db:"preferred_skills"`
	ExperienceLevel string         `db:"experience_level"`
	Location        string         `db:"location"`
}

func (m *jobModel) toEntity() matching.JobProfile {
	return matching.JobProfile{
		ID:              kernel.NewJobID(m.ID),
		Title:           m.Title,
		Company:         m.Company,
		Description:     m.Description,
		RequiredSkills:  []string(m.RequiredSkills),
		PreferredSkills: []string(m.PreferredSkills),
		ExperienceLevel: m.ExperienceLevel,
		Location:        m.Location,
	}
}

type candidateModel struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Skills          pq.StringArray `db:"skills"`
	ExperienceYears *int           `db:"experience_years"`
	Education       string         `db:"education"`
	Bio             string         `db:"bio"`
	ResumeText      string         `db:"resume_text"`
}

func (m *candidateModel) toEntity() matching.CandidateProfile {
	return matching.CandidateProfile{
		ID:              kernel.NewCandidateID(m.ID),
		Name:            m.Name,
		Skills:          []string(m.Skills),
		ExperienceYears: m.ExperienceYears,
		Education:       m.Education,
		Bio:             m.Bio,
		ResumeText:      m.ResumeText,
	}
}

// ============================================================================
// Directory Implementation
// ============================================================================

// GetJobs returns the found jobs in request order. Missing ids are skipped.
func (r *PostgresDirectory) GetJobs(ctx context.Context, ids []kernel.JobID) ([]matching.JobProfile, error) {
	if len(ids) == 0 {
		return []matching.JobProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query := `
		SELECT
			id, title, company, description, required_skills,
			preferred_skills, experience_level, location
		FROM job_profiles
		WHERE id = ANY($1)
	`

	var models []jobModel
	if err := r.db.SelectContext(ctx, &models, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}

	byID := make(map[string]matching.JobProfile, len(models))
	for i := range models {
		byID[models[i].ID] = models[i].toEntity()
	}

	out := make([]matching.JobProfile, 0, len(models))
	for _, k := range keys {
		if j, ok := byID[k]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

// GetCandidates returns the found candidates in request order.
func (r *PostgresDirectory) GetCandidates(ctx context.Context, ids []kernel.CandidateID) ([]matching.CandidateProfile, error) {
	if len(ids) == 0 {
		return []matching.CandidateProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query := `
		SELECT
			id, name, skills, experience_years, education, bio, resume_text
		FROM candidate_profiles
		WHERE id = ANY($1)
	`

	var models []candidateModel
	if err := r.db.SelectContext(ctx, &models, query, pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}

	byID := make(map[string]matching.CandidateProfile, len(models))
	for i := range models {
		byID[models[i].ID] = models[i].toEntity()
	}

	out := make([]matching.CandidateProfile, 0, len(models))
	for _, k := range keys {
		if c, ok := byID[k]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
