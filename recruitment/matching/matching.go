package matching

import (
	"time"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// ============================================================================
// Extracted profile
// ============================================================================

type ProfileSource string

const (
	SourceAlgorithmic ProfileSource = "algorithmic"
	SourceAI          ProfileSource = "ai"
	SourceHybrid      ProfileSource = "hybrid"
)

// ExtractedProfile is the structured view of one resume. It is a value:
// functions that refine it return a new profile.
type ExtractedProfile struct {
	Skills          []string      `json:"skills"`
	ExperienceYears *int          `json:"experience_years,omitempty"`
	Education       *string       `json:"education,omitempty"`
	WorkSummary     *string       `json:"work_summary,omitempty"`
	Confidence      float64       `json:"confidence"`
	Source          ProfileSource `json:"source"`
	ExtractedAt     time.Time     `json:"extracted_at"`
}

// HasExperience reports whether a years-of-experience value was found.
func (p ExtractedProfile) HasExperience() bool { return p.ExperienceYears != nil }

func (p ExtractedProfile) HasEducation() bool { return p.Education != nil && *p.Education != "" }

// ============================================================================
// Job & candidate inputs
// ============================================================================

// JobProfile is a job posting as seen by the matcher. Read only.
type JobProfile struct {
	ID              kernel.JobID `json:"id"`
	Title           string       `json:"title"`
	Company         string       `json:"company,omitempty"`
	Description     string       `json:"description,omitempty"`
	RequiredSkills  []string     `json:"required_skills"`
	PreferredSkills []string     `json:"preferred_skills,omitempty"`
	ExperienceLevel string       `json:"experience_level,omitempty"`
	Location        string       `json:"location,omitempty"`
}

// CandidateProfile is a candidate as seen by the matcher. Read only.
type CandidateProfile struct {
	ID              kernel.CandidateID `json:"id"`
	Name            string             `json:"name"`
	Skills          []string           `json:"skills"`
	ExperienceYears *int               `json:"experience_years,omitempty"`
	Education       string             `json:"education,omitempty"`
	Bio             string             `json:"bio,omitempty"`
	ResumeText      string             `json:"resume_text,omitempty"`
}

// WithExtracted returns a copy of the candidate enriched by an extracted
// profile. Fields already set on the candidate win; skills are unioned.
func (c CandidateProfile) WithExtracted(p ExtractedProfile) CandidateProfile {
	out := c
	out.Skills = append(append([]string{}, c.Skills...), p.Skills...)
	out.Skills = kernel.UniqueSkills(out.Skills)
	if out.ExperienceYears == nil && p.ExperienceYears != nil {
		years := *p.ExperienceYears
		out.ExperienceYears = &years
	}
	if out.Education == "" && p.Education != nil {
		out.Education = *p.Education
	}
	if out.Bio == "" && p.WorkSummary != nil {
		out.Bio = *p.WorkSummary
	}
	return out
}

// ============================================================================
// Embeddings
// ============================================================================

type OwnerType string

const (
	OwnerJob       OwnerType = "job"
	OwnerCandidate OwnerType = "candidate"
)

func (o OwnerType) Valid() bool { return o == OwnerJob || o == OwnerCandidate }

// EmbeddingVector is the live vector of one owner. At most one exists per
// (OwnerID, OwnerType).
type EmbeddingVector struct {
	OwnerID    string            `json:"owner_id" db:"owner_id"`
	OwnerType  OwnerType         `json:"owner_type" db:"owner_type"`
	Vector     []float32         `json:"vector" db:"-"`
	TextDigest string            `json:"text_digest" db:"text_digest"`
	Model      string            `json:"model" db:"model"`
	Metadata   map[string]string `json:"metadata,omitempty" db:"-"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// Stale reports whether the vector was built from different text or by a
// different model.
func (v EmbeddingVector) Stale(digest, model string) bool {
	return v.TextDigest != digest || v.Model != model
}

// ============================================================================
// Match results
// ============================================================================

type ScoreSource string

const (
	ScoredByKeyword ScoreSource = "keyword"
	ScoredByAI      ScoreSource = "ai"
)

// MatchResult scores one candidate against one job. Exactly one of
// CandidateID (ranking candidates) or JobID (ranking jobs) is set.
type MatchResult struct {
	CandidateID     kernel.CandidateID `json:"candidate_id,omitempty"`
	JobID           kernel.JobID       `json:"job_id,omitempty"`
	Score           float64            `json:"score"`
	MatchedTerms    []string           `json:"matched_terms"`
	MissingTerms    []string           `json:"missing_terms"`
	AdditionalTerms []string           `json:"additional_terms"`
	OverlapCount    int                `json:"overlap_count"`
	Similarity      *float64           `json:"similarity,omitempty"`
	Reasons         []string           `json:"reasons"`
	ScoredBy        ScoreSource        `json:"scored_by"`
}

// TargetID is the id of the ranked entity.
func (m MatchResult) TargetID() string {
	if !m.CandidateID.IsEmpty() {
		return m.CandidateID.String()
	}
	return m.JobID.String()
}

type RankingStatus string

const (
	RankingRanked    RankingStatus = "ranked"
	RankingEmptyPool RankingStatus = "empty_pool"
)

type Direction string

const (
	DirectionCandidatesForJob Direction = "candidates_for_job"
	DirectionJobsForCandidate Direction = "jobs_for_candidate"
)

// Ranking is an ordered result list with an explicit label. An empty pool is
// reported through Status, never as an error.
type Ranking struct {
	Direction Direction     `json:"direction"`
	Status    RankingStatus `json:"status"`
	Matches   []MatchResult `json:"matches"`
	UsedAI    bool          `json:"used_ai"`
	Degraded  bool          `json:"degraded"`
	PoolSize  int           `json:"pool_size"`
}

func EmptyRanking(dir Direction) Ranking {
	return Ranking{Direction: dir, Status: RankingEmptyPool, Matches: []MatchResult{}}
}
