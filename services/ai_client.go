package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// AIAnalysis is the narrative shape that gets persisted: a summary, a list of
// recommendation strings and a markdown explanation. Full carries the
// structured assessment when the analyzer returned one.
type AIAnalysis struct {
	Summary         string
	Recommendations []string
	Explanation     string
	Full            *FullAssessment
}

// FullAssessment is the richer structured response contract. Field names
// follow the analyzer's JSON output.
type FullAssessment struct {
	AssessmentMetadata AssessmentMetadata     `json:"assessmentMetadata"`
	DomainScores       []DomainScore          `json:"domainScores"`
	VendorRisk         VendorRisk             `json:"vendorRisk"`
	Findings           []Finding              `json:"findings"`
	Recommendations    []RecommendationDetail `json:"recommendations"`
	GovernanceDecision GovernanceDecision     `json:"governanceDecision"`
	ExecutiveSummary   string                 `json:"executiveSummary"`
	RiskFlags          AnalysisRiskFlags      `json:"riskFlags"`
}

type AssessmentMetadata struct {
	SystemName            string `json:"systemName"`
	AssessmentDate        string `json:"assessmentDate"`
	PromptVersion         string `json:"promptVersion"`
	OverallRiskTier       string `json:"overallRiskTier"` // Critical|High|Moderate|Low
	RuleBasedOverallLevel string `json:"ruleBasedOverallLevel"`
	TierAdjusted          bool   `json:"tierAdjusted"`
	TierAdjustmentReason  string `json:"tierAdjustmentReason"`
}

type DomainScore struct {
	Domain                string `json:"domain"`
	RuleBasedScore        *int   `json:"ruleBasedScore"`
	AgentAssessedTier     string `json:"agentAssessedTier"`
	KeyFinding            string `json:"keyFinding"`
	NistAiRmfFunction     string `json:"nistAiRmfFunction"`
	AssessmentRationale   string `json:"assessmentRationale"`
	ScoreAdjustmentReason string `json:"scoreAdjustmentReason,omitempty"`
}

type VendorRisk struct {
	RuleBasedScore              int    `json:"ruleBasedScore"`
	AgentAssessedTier           string `json:"agentAssessedTier"`
	ThirdPartyModelsIdentified  string `json:"thirdPartyModelsIdentified"`
	VendorDocumentationProvided bool   `json:"vendorDocumentationProvided"`
	KeyFinding                  string `json:"keyFinding"`
	AssessmentRationale         string `json:"assessmentRationale"`
}

type Finding struct {
	ID                       string `json:"id"`
	Title                    string `json:"title"`
	Description              string `json:"description"`
	AffectedDomain           string `json:"affectedDomain"`
	Severity                 string `json:"severity"`
	NistAiRmfFunction        string `json:"nistAiRmfFunction"`
	NistSp80053ControlFamily string `json:"nistSp80053ControlFamily"`
	SourceField              string `json:"sourceField"`
	EvidenceSummary          string `json:"evidenceSummary"`
}

type RecommendationDetail struct {
	ID              string   `json:"id"`
	RelatedFindings []string `json:"relatedFindings"`
	Action          string   `json:"action"`
	Owner           string   `json:"owner"`
	Type            string   `json:"type"` // Blocking|Advisory
	Effort          string   `json:"effort"`
	Rationale       string   `json:"rationale"`
}

type GovernanceDecision struct {
	Recommendation     string `json:"recommendation"` // Approve|Conditionally Approve|Reject|Escalate to Governance Board
	Rationale          string `json:"rationale"`
	BlockingItemCount  int    `json:"blockingItemCount"`
	AdvisoryItemCount  int    `json:"advisoryItemCount"`
	NextReviewDate     string `json:"nextReviewDate"`
	EscalationTriggers string `json:"escalationTriggers"`
}

type AnalysisRiskFlags struct {
	CarriedForward  []string `json:"carriedForward"`
	NewlyIdentified []string `json:"newlyIdentified"`
}

// legacyAnalysis is the flat response shape older analyzer versions return.
type legacyAnalysis struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Explanation     string   `json:"explanation"`
}

// NarrativeAnalyzer elaborates rule-based scores into a governance narrative.
// Implementations are best-effort: the orchestrator treats any error as a
// signal to fall back to the deterministic narrative.
type NarrativeAnalyzer interface {
	Analyze(ctx context.Context, fields map[string]interface{}, scores RiskScores) (*AIAnalysis, error)
}

const promptVersion = "v1.2"

// GeminiAnalyzer calls the Gemini API with the risk-assessment prompt and
// parses the JSON it returns.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGeminiAnalyzer builds an analyzer from GEMINI_API_KEY and GEMINI_MODEL.
// Returns an error when no key is configured; callers are expected to run
// without an analyzer in that case.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiAnalyzer{client: client, model: model}, nil
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, fields map[string]interface{}, scores RiskScores) (*AIAnalysis, error) {
	prompt, err := BuildRiskAssessmentPrompt(fields, scores)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			"You are an AI Risk Assessment Agent ("+promptVersion+") operating within an enterprise AI governance platform. "+
				"You evaluate AI system intake submissions against the NIST AI Risk Management Framework and organizational risk tolerance policies. "+
				"You are not a legal advisor; your assessments inform governance decisions. "+
				"Respond ONLY with valid JSON, no markdown fences, no commentary.",
			genai.RoleUser,
		),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("narrative analysis call failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return nil, errors.New("no text response from analyzer")
	}

	return ParseAnalysisResponse(text)
}

// BuildRiskAssessmentPrompt renders the analyzer prompt from the submission's
// governance fields and the rule-based scores.
func BuildRiskAssessmentPrompt(fields map[string]interface{}, scores RiskScores) (string, error) {
	fieldsJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode submission fields: %w", err)
	}

	var b strings.Builder
	b.WriteString("SUBMISSION DATA\n")
	b.Write(fieldsJSON)
	b.WriteString("\n\nRULE-BASED RISK SCORES\n")
	fmt.Fprintf(&b, "- Data Privacy Risk: %d/100\n", scores.DataPrivacyScore)
	fmt.Fprintf(&b, "- Human Oversight Risk: %d/100\n", scores.OversightScore)
	fmt.Fprintf(&b, "- Compliance Risk: %d/100\n", scores.ComplianceScore)
	fmt.Fprintf(&b, "- Vendor Risk: %d/100\n", scores.VendorScore)
	fmt.Fprintf(&b, "- Overall Risk Level: %s\n", scores.OverallLevel)

	b.WriteString("\nIDENTIFIED RISK FLAGS:\n")
	for _, flag := range scores.RiskFlags {
		fmt.Fprintf(&b, "- %s\n", flag)
	}

	b.WriteString(`
SCORE INTERPRETATION BANDS
- 0-25: Low risk (adequate controls appear to be in place)
- 26-50: Moderate risk (gaps exist that should be addressed before or shortly after deployment)
- 51-75: High risk (significant gaps requiring remediation before deployment)
- 76-100: Critical risk (unacceptable; must not proceed without executive review)
When rule-based scores and submission data conflict, flag the conflict explicitly and
assess based on the MORE CONSERVATIVE interpretation.

INCOMPLETE DATA POLICY
If any intake field is empty, "TBD", "N/A", "Unknown" or vague: treat it as a risk
finding, do NOT infer favorable answers, flag the specific field by name, and assign
the HIGHER risk assumption for that domain. Mark related recommendations as Blocking.
Teams must not be able to reduce their risk tier by leaving fields blank.

DOMAIN ANALYSIS
Analyze each of the five intake domains independently before determining the overall
tier: Basic Information (Map), Human Oversight (Govern), Data & Privacy (Map/Manage),
Ownership & Accountability (Govern), Compliance & Monitoring (Measure/Manage). The
HIGHEST applicable tier wins; never average across domains. If uncertain between two
tiers, choose the higher one. Identical input must produce identical output.

OUTPUT FORMAT
Respond ONLY with valid JSON in this exact structure:
{
  "assessmentMetadata": {"systemName": "...", "assessmentDate": "<ISO 8601>", "promptVersion": "` + promptVersion + `", "overallRiskTier": "Critical|High|Moderate|Low", "ruleBasedOverallLevel": "` + scores.OverallLevel + `", "tierAdjusted": false, "tierAdjustmentReason": "N/A"},
  "domainScores": [{"domain": "...", "ruleBasedScore": null, "agentAssessedTier": "...", "keyFinding": "...", "nistAiRmfFunction": "...", "assessmentRationale": "..."}],
  "vendorRisk": {"ruleBasedScore": ` + fmt.Sprintf("%d", scores.VendorScore) + `, "agentAssessedTier": "...", "thirdPartyModelsIdentified": "...", "vendorDocumentationProvided": false, "keyFinding": "...", "assessmentRationale": "..."},
  "findings": [{"id": "F-001", "title": "...", "description": "...", "affectedDomain": "...", "severity": "Critical|High|Moderate|Low", "nistAiRmfFunction": "...", "nistSp80053ControlFamily": "...", "sourceField": "...", "evidenceSummary": "..."}],
  "recommendations": [{"id": "R-001", "relatedFindings": ["F-001"], "action": "...", "owner": "...", "type": "Blocking|Advisory", "effort": "Low|Medium|High", "rationale": "..."}],
  "governanceDecision": {"recommendation": "Approve|Conditionally Approve|Reject|Escalate to Governance Board", "rationale": "...", "blockingItemCount": 0, "advisoryItemCount": 0, "nextReviewDate": "<ISO date>", "escalationTriggers": "..."},
  "executiveSummary": "2-3 sentences for a non-technical executive",
  "riskFlags": {"carriedForward": ["..."], "newlyIdentified": ["..."]}
}

Every recommendation must be specific and actionable with a named owner; never
fabricate findings or cite fields that do not exist in the submission data.
`)

	return b.String(), nil
}

// ParseAnalysisResponse extracts the JSON object from an analyzer reply and
// normalizes either response shape to AIAnalysis.
func ParseAnalysisResponse(text string) (*AIAnalysis, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var full FullAssessment
	if err := json.Unmarshal(raw, &full); err == nil && isStructuredResponse(&full) {
		return normalizeFullAssessment(&full), nil
	}

	var legacy legacyAnalysis
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("could not parse analyzer response: %w", err)
	}
	if legacy.Summary == "" || legacy.Explanation == "" {
		return nil, errors.New("analyzer response missing required fields")
	}
	return &AIAnalysis{
		Summary:         legacy.Summary,
		Recommendations: legacy.Recommendations,
		Explanation:     legacy.Explanation,
	}, nil
}

func isStructuredResponse(full *FullAssessment) bool {
	return full.ExecutiveSummary != "" && len(full.DomainScores) > 0
}

func normalizeFullAssessment(full *FullAssessment) *AIAnalysis {
	recommendations := make([]string, 0, len(full.Recommendations))
	for _, rec := range full.Recommendations {
		recommendations = append(recommendations,
			fmt.Sprintf("[%s] %s (Owner: %s, Effort: %s)", rec.Type, rec.Action, rec.Owner, rec.Effort))
	}

	return &AIAnalysis{
		Summary:         full.ExecutiveSummary,
		Recommendations: recommendations,
		Explanation:     buildExplanation(full),
		Full:            full,
	}
}

// buildExplanation renders the structured assessment as the markdown
// explanation stored alongside the scores.
func buildExplanation(full *FullAssessment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Risk Assessment Summary (%s)\n\n", full.AssessmentMetadata.PromptVersion)
	fmt.Fprintf(&b, "### Overall Assessment: %s\n\n", full.AssessmentMetadata.OverallRiskTier)

	if full.AssessmentMetadata.TierAdjusted {
		fmt.Fprintf(&b, "> **Tier Adjustment:** %s\n\n", full.AssessmentMetadata.TierAdjustmentReason)
	}

	b.WriteString("### Domain Analysis\n\n")
	b.WriteString("| Domain | Tier | Key Finding |\n")
	b.WriteString("|--------|------|-------------|\n")
	for _, domain := range full.DomainScores {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", domain.Domain, domain.AgentAssessedTier, domain.KeyFinding)
	}
	fmt.Fprintf(&b, "| Vendor Risk | %s | %s |\n\n", full.VendorRisk.AgentAssessedTier, full.VendorRisk.KeyFinding)

	if len(full.Findings) > 0 {
		b.WriteString("### Findings\n\n")
		for _, finding := range full.Findings {
			fmt.Fprintf(&b, "#### %s: %s\n", finding.ID, finding.Title)
			fmt.Fprintf(&b, "- **Severity:** %s\n", finding.Severity)
			fmt.Fprintf(&b, "- **Domain:** %s\n", finding.AffectedDomain)
			fmt.Fprintf(&b, "- **NIST Control:** %s\n", finding.NistSp80053ControlFamily)
			fmt.Fprintf(&b, "- **Description:** %s\n", finding.Description)
			fmt.Fprintf(&b, "- **Evidence:** %s\n\n", finding.EvidenceSummary)
		}
	}

	b.WriteString("### Governance Decision\n\n")
	fmt.Fprintf(&b, "**Recommendation:** %s\n\n", full.GovernanceDecision.Recommendation)
	fmt.Fprintf(&b, "%s\n\n", full.GovernanceDecision.Rationale)
	fmt.Fprintf(&b, "- Blocking Items: %d\n", full.GovernanceDecision.BlockingItemCount)
	fmt.Fprintf(&b, "- Advisory Items: %d\n", full.GovernanceDecision.AdvisoryItemCount)
	fmt.Fprintf(&b, "- Next Review: %s\n\n", full.GovernanceDecision.NextReviewDate)

	if len(full.RiskFlags.NewlyIdentified) > 0 {
		b.WriteString("### Newly Identified Risk Flags\n\n")
		for _, flag := range full.RiskFlags.NewlyIdentified {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	}

	return b.String()
}

// extractJSONObject pulls the outermost JSON object out of a model reply,
// tolerating prose or code fences around it.
func extractJSONObject(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in analyzer response")
	}
	return []byte(text[start : end+1]), nil
}
