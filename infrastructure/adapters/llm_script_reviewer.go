package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type reviewIssue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Description string `json:"description"`
	LineID      string `json:"line_id,omitempty"`
}

type llmScriptReviewer struct {
	logger    outbound.LoggerPort
	generator outbound.TextGeneratorPort
}

func NewLLMScriptReviewer(generator outbound.TextGeneratorPort, logger outbound.LoggerPort) outbound.ScriptReviewerPort {
	return &llmScriptReviewer{
		logger:    logger,
		generator: generator,
	}
}

// Review asks the model to compare the script against its source and report
// issues as JSON. An unparseable answer reads as a clean review rather than
// failing the run.
func (r *llmScriptReviewer) Review(ctx context.Context, sourceText string, script domain.Script) ([]domain.QualityIssue, error) {
	raw, err := r.generator.Generate(ctx, r.reviewPrompt(sourceText, script))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Issues []reviewIssue `json:"issues"`
	}
	if err = json.Unmarshal([]byte(stripFence(raw)), &parsed); err != nil {
		r.logger.ErrorWithFields(err, "Failed to parse review response, treating as clean", map[string]interface{}{
			"response_length": len(raw),
		})
		return nil, nil
	}

	issues := make([]domain.QualityIssue, 0, len(parsed.Issues))
	for _, issue := range parsed.Issues {
		issues = append(issues, domain.QualityIssue{
			Severity:    parseSeverity(issue.Severity),
			Category:    issue.Category,
			Description: issue.Description,
			LineID:      issue.LineID,
		})
	}
	return issues, nil
}

func (r *llmScriptReviewer) reviewPrompt(sourceText string, script domain.Script) string {
	var lines strings.Builder
	for _, line := range script.Lines() {
		fmt.Fprintf(&lines, "- [%s] %s\n", line.ID, line.Text)
	}

	return fmt.Sprintf("You are reviewing a narration script against its source material.\n"+
		"Report factual errors, unsupported claims, awkward phrasing and missing key points.\n"+
		"Respond with JSON only: {\"issues\": [{\"severity\": \"critical|high|medium|low\", "+
		"\"category\": \"...\", \"description\": \"...\", \"line_id\": \"...\"}]}\n"+
		"An empty issues array means the script is fine.\n\n"+
		"Source material:\n%s\n\nScript lines:\n%s", sourceText, lines.String())
}

func parseSeverity(s string) domain.IssueSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return domain.SeverityCritical
	case "high":
		return domain.SeverityHigh
	case "medium":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// stripFence removes a surrounding markdown code fence from a model answer.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
