package matchingsrv

import (
	"context"
	"errors"
	"strings"

	"github.com/Abraxas-365/hireflow/internal/ai/resumeparser"
	"github.com/Abraxas-365/hireflow/internal/metrics"
	"github.com/Abraxas-365/hireflow/internal/textextract"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// ============================================================================
// Resume extraction
// ============================================================================

// ExtractResumeProfile runs the rule-based extractor and, when its
// confidence is below the threshold, merges in an AI annotation. A failed
// annotation leaves the algorithmic profile untouched.
func (s *Service) ExtractResumeProfile(ctx context.Context, text string) (matching.ExtractedProfile, error) {
	if strings.TrimSpace(text) == "" {
		return matching.ExtractedProfile{}, matching.ErrExtractionFailed().
			WithDetail("reason", "resume text is empty")
	}

	algo := s.extractor.Extract(text)
	if algo.Confidence >= s.cfg.ConfidenceThreshold || s.annotator == nil {
		metrics.ExtractionsTotal.WithLabelValues(string(algo.Source)).Inc()
		return algo, nil
	}

	logx.Debugf("Extraction confidence %.2f below %.2f, requesting annotation", algo.Confidence, s.cfg.ConfidenceThreshold)

	ann, err := s.annotator.Annotate(ctx, text)
	if err != nil {
		logx.Warnf("Resume annotation failed, keeping algorithmic profile: %v", err)
		metrics.ExtractionsTotal.WithLabelValues(string(algo.Source)).Inc()
		return algo, nil
	}

	merged := matching.MergeProfiles(algo, s.annotationProfile(ann))
	metrics.ExtractionsTotal.WithLabelValues(string(merged.Source)).Inc()
	return merged, nil
}

// ExtractResumeDocument converts a PDF, DOCX or text file to text and
// extracts its profile. Text conversion failures are returned.
func (s *Service) ExtractResumeDocument(ctx context.Context, data []byte, fileType string) (matching.ExtractedProfile, error) {
	text, err := textextract.Extract(data, fileType)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedType) {
			return matching.ExtractedProfile{}, matching.ErrUnsupportedFileType().
				WithDetail("file_type", fileType).
				WithDetail("supported_formats", []string{"pdf", "docx", "txt"})
		}
		return matching.ExtractedProfile{}, matching.ErrRegistry.NewWithCause(matching.CodeExtractionFailed, err).
			WithDetail("file_type", fileType).
			WithDetail("size_bytes", len(data))
	}

	return s.ExtractResumeProfile(ctx, text)
}

// annotationProfile maps an annotation onto the vocabulary. Skills the
// vocabulary does not know are kept only when unlisted skills are allowed.
func (s *Service) annotationProfile(ann *resumeparser.Annotation) matching.ExtractedProfile {
	skills := make([]string, 0, len(ann.Skills))
	for _, skill := range ann.Skills {
		if canonical, ok := s.extractor.Canonical(skill); ok {
			skills = append(skills, canonical)
			continue
		}
		if s.cfg.AllowUnlistedSkills {
			skills = append(skills, skill)
		}
	}

	return matching.ExtractedProfile{
		Skills:          kernel.SortedSkills(skills),
		ExperienceYears: ann.ExperienceYears,
		Education:       ann.Education,
		WorkSummary:     ann.WorkSummary,
		Source:          matching.SourceAI,
		ExtractedAt:     s.now(),
	}
}
