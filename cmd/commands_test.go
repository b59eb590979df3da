package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

const testCatalog = `{
  "jobs": [
    {"id": "j1", "title": "Platform Engineer", "required_skills": ["Python", "Docker"]},
    {"id": "j2", "title": "Frontend Engineer", "required_skills": ["React", "TypeScript"]}
  ],
  "candidates": [
    {"id": "c1", "name": "Ana", "skills": ["Python"]},
    {"id": "c2", "name": "Luis", "skills": ["Python", "Docker", "Kubernetes"]}
  ]
}`

// newWorkspace writes a config and a catalog into a temp dir and returns
// the config path.
func newWorkspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	configYAML := fmt.Sprintf(`logging:
  level: error
embeddings:
  providers: [hashing]
  dimensions: 64
ranking:
  ai_enabled: false
storage:
  backend: local
  base_path: %s
`, dir)
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles.json"), []byte(testCatalog), 0o600))
	return dir, configPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	extractType, profilesPath, jobID, candidateID = "", "", "", ""
	rankLimit, useAI, fromIndex, asyncSync = 0, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankCandidatesCommand(t *testing.T) {
	_, configPath := newWorkspace(t)

	out, err := runCLI(t, "rank-candidates", "--config", configPath, "--profiles", "profiles.json", "--job", "j1")
	require.NoError(t, err)

	var ranking matching.Ranking
	require.NoError(t, json.Unmarshal([]byte(out), &ranking))
	assert.Equal(t, matching.RankingRanked, ranking.Status)
	require.Len(t, ranking.Matches, 2)
	assert.Equal(t, "c2", ranking.Matches[0].CandidateID.String())
	assert.InDelta(t, 1.0, ranking.Matches[0].Score, 1e-9)
	assert.InDelta(t, 0.5, ranking.Matches[1].Score, 1e-9)
	assert.False(t, ranking.UsedAI)
}

func TestRankJobsFromIndexCommand(t *testing.T) {
	_, configPath := newWorkspace(t)

	out, err := runCLI(t, "rank-jobs", "--config", configPath, "--profiles", "profiles.json", "--candidate", "c2", "--from-index", "--limit", "1")
	require.NoError(t, err)

	var ranking matching.Ranking
	require.NoError(t, json.Unmarshal([]byte(out), &ranking))
	assert.Equal(t, matching.DirectionJobsForCandidate, ranking.Direction)
	assert.Equal(t, 2, ranking.PoolSize)
	require.Len(t, ranking.Matches, 1)
	assert.Equal(t, "j1", ranking.Matches[0].JobID.String())
	assert.NotNil(t, ranking.Matches[0].Similarity)
}

func TestRankUnknownJob(t *testing.T) {
	_, configPath := newWorkspace(t)

	_, err := runCLI(t, "rank-candidates", "--config", configPath, "--profiles", "profiles.json", "--job", "ghost")
	assert.True(t, errx.IsCode(err, matching.CodeProfileNotFound))
}

func TestExtractCommand(t *testing.T) {
	dir, configPath := newWorkspace(t)
	resume := "Backend engineer with 6 years of experience.\nSkills: Python, Docker, Kubernetes\nEducation: BSc in Computer Science"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.txt"), []byte(resume), 0o600))

	out, err := runCLI(t, "extract", "--config", configPath, "resume.txt")
	require.NoError(t, err)

	var profile matching.ExtractedProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Subset(t, profile.Skills, []string{"Python", "Docker", "Kubernetes"})
	require.NotNil(t, profile.ExperienceYears)
	assert.Equal(t, 6, *profile.ExperienceYears)
}

func TestSyncCommand(t *testing.T) {
	_, configPath := newWorkspace(t)

	out, err := runCLI(t, "sync", "--config", configPath, "--profiles", "profiles.json")
	require.NoError(t, err)

	var report matching.SyncReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Embedded)
	assert.Zero(t, report.Failed)
}

func TestAsyncSyncWithoutQueue(t *testing.T) {
	_, configPath := newWorkspace(t)

	_, err := runCLI(t, "sync", "--config", configPath, "--profiles", "profiles.json", "--async")
	assert.True(t, errx.IsCode(err, matching.CodeQueueEnqueueFailed))
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, matching.ErrInvalidInput().WithDetail("reason", "nothing to sync"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.Equal(t, "nothing to sync", body["details"].(map[string]any)["reason"])
}
