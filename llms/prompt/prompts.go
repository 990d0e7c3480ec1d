// Package prompt holds the prompts sent to text and image models and the
// validated decoding of their JSON answers. Backends share it so that every
// model sees the same instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/smallnest/researchdeck/research"
)

// Truncation limits for findings embedded in prompts.
const (
	DesignFindingsLimit = 1500
	AuditFindingsLimit  = 2000
)

// Plan asks for 3-5 research objectives.
func Plan(topic string) string {
	return fmt.Sprintf(`Plan a deep research investigation for the following query: %q.
Break it down into 3-5 distinct, concrete search objectives.
For each objective, provide a "researchPlan" which is a brief description (1-2 sentences) of what specifically will be investigated and why.
Return as a JSON list of objects with "title", "id", and "researchPlan".`, topic)
}

// Search builds the grounded search prompt. Refinement passes carry the
// previous findings and the critique guidance.
func Search(req research.SearchRequest) string {
	if req.Refinement() {
		return fmt.Sprintf(`RESEARCH OBJECTIVE: %s.
PREVIOUS FINDINGS: %s
CRITIQUE FEEDBACK: %s.
Perform a deep-dive search specifically to address the missing data points identified in the feedback.`,
			req.Title, req.PriorFindings, req.Feedback)
	}
	return fmt.Sprintf(`Investigate this specific research objective: %q.
Provide a comprehensive, factual summary of findings based on search results.`, req.Title)
}

// SearchWithResults is the search prompt for backends without built-in
// grounding: the web results are inlined and must be the only evidence used.
func SearchWithResults(req research.SearchRequest, results []research.Source, snippets []string) string {
	var b strings.Builder
	b.WriteString(Search(req))
	b.WriteString("\n\nUse only these web search results as evidence and cite them by number:\n")
	for i, s := range results {
		snippet := ""
		if i < len(snippets) {
			snippet = snippets[i]
		}
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n", i+1, s.Title, s.URI, snippet)
	}
	return b.String()
}

// SearchQuery is the web query string used for a search pass.
func SearchQuery(req research.SearchRequest) string {
	if req.Refinement() && req.Feedback != "" {
		return req.Title + " " + req.Feedback
	}
	return req.Title
}

// Critique asks the quality auditor for a verdict.
func Critique(title, findings string) string {
	return fmt.Sprintf(`You are the Research Quality Auditor.
Objective to verify: %q
Findings to audit:
%s

CRITERIA:
1. Accuracy: Are there specific numbers/dates?
2. Depth: Is it just surface-level summary?
3. Missing Links: Is there a logical gap?

If findings are too brief or lack specific evidence, set "sufficient" to false and provide a "refinedQuery" for the Investigator to try again.

Return JSON:
{"sufficient": true|false, "feedback": "...", "refinedQuery": "..."}`, title, findings)
}

// Design asks for a slide layout.
func Design(req research.DesignRequest) string {
	layouts := make([]string, len(research.Layouts))
	for i, l := range research.Layouts {
		layouts[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf(`Design a high-impact presentation slide based on these findings:
%q

The speaker is defined as: %s
The visual artist is defined as: %s

Instructions:
1. Create a punchy, short TITLE.
2. Extract 3-4 key bullet POINTS that summarize the core essence.
3. Describe a cinematic BACKGROUND VISUAL that supports this specific content.
4. Select the best LAYOUT from: %s.

Return as JSON:
{
  "title": "...",
  "points": ["...", "..."],
  "visualPrompt": "Detailed prompt for an image model...",
  "layout": "..."
}`, Truncate(req.Findings, DesignFindingsLimit), req.SpeakerPersona, req.VisualPersona, strings.Join(layouts, ", "))
}

// Script asks for the spoken narration of a slide.
func Script(design research.SlideDesign, persona string) string {
	return fmt.Sprintf(`Write a 30-60 second HIGH-IMPACT speaker script for a slide with this content:
TITLE: %s
POINTS: %s

The speaker's persona is: %s

Instructions:
- Talk THROUGH the points, providing context and "wow" factor.
- Keep it natural, conversational, and energetic.
- IMPORTANT: STAY 100%% GROUNDED in the provided points. Do NOT invent fake data or hallucinate.
- Return ONLY the spoken text. NO meta-text, NO headers.`, design.Title, strings.Join(design.Points, ", "), persona)
}

// Audit asks for an authenticity check of a script against findings.
func Audit(script, findings string) string {
	return fmt.Sprintf(`Audit this speaker script for authenticity against the provided research findings.

SCRIPT: %q
FINDINGS: %q

Instructions:
1. Calculate an Authenticity Score (0-100) based on how many findings are accurately represented.
2. Identify Hallucination Risk (low, medium, high) based on invented facts or unverified claims.
3. Provide a brief 1-sentence critique.

Return as JSON:
{
  "authenticityScore": number,
  "hallucinationRisk": "low" | "medium" | "high",
  "critique": "string"
}`, script, Truncate(findings, AuditFindingsLimit))
}

// Image describes the slide background to an image model.
func Image(visualPrompt, persona string) string {
	return fmt.Sprintf(`Generate a high-impact, cinematic visual.
PROMPT: %s
STYLE / ARTISTIC DIRECTION: %s
ASPECT RATIO: EXACTLY 16:9 horizontal aspect ratio.
IMPORTANT: The image MUST occupy the entire 16:9 horizontal frame. bleed to edges.`, visualPrompt, persona)
}

// Report asks for the cross-objective report.
func Report(topic string, objectives []research.Objective) string {
	blocks := make([]string, len(objectives))
	for i, o := range objectives {
		blocks[i] = fmt.Sprintf("Objective: %s\nFinal Integrated Findings: %s", o.Title, o.Findings)
	}
	return fmt.Sprintf(`Synthesize a comprehensive research report for: %q.
Based on the following validated investigation vectors:
%s

Structure your response as JSON with:
- summary: Professional executive summary.
- detailedAnalysis: Long-form markdown analysis with sections.
- keyFindings: 5 punchy bullet points.
- dataPoints: Numerical trends discovered ({label, value}).`, topic, strings.Join(blocks, "\n\n"))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
