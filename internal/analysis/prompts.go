package analysis

import (
	"fmt"
	"strings"
)

// PresetOSINTStructured is the default report template: a fixed nine-section
// structure with evidence and likelihood badges.
const PresetOSINTStructured = "osint_structured_v1"

const defaultFocus = "operational changes, strikes, cross-border effects, aid/logistics, " +
	"diplomacy/sanctions, domestic developments, cyber/info ops."

const osintReportFormat = `Return Markdown only with the following sections in order:

1) Executive Summary
- 5–8 bullets with bottom-line-up-front and significance.

2) Key Events (Bullets)
- Each: DD Mon YYYY — concise event — citations [#n][#m].

3) Timeline (Chronological)
- 10–20 entries, DD Mon YYYY — event — citations.

4) Thematic Analysis
- Operations (fronts/axes), Strikes, Diplomacy, Aid & Logistics, Domestic (RU/UA), Cyber/InfoOps, Economy/Energy.

5) Claims and Corroboration
- For each notable claim, use this mini-structure (one block per claim):
  - Claim: <one sentence>
  - Who asserts: <outlet/person>
  - Evidence: ` + "`Single-source` | `Multi-source` | `Contested`" + `
  - Sources: <N> • Outlets: <M>
  - Assessment: <1–2 sentences>
  - Likelihood (UK MI yardstick): ` + "`Almost certain (90–100%)` | `Highly likely (80–90%)` | `Likely (55–75%)` | `About as likely as not (40–60%)` | `Unlikely (20–45%)` | `Highly unlikely (10–20%)` | `Remote (0–10%)`" + `
  - Citations: [#n][#m]

6) Outliers & Disinfo
- What, why it's questionable, likely impact, citations.

7) Assessment & Confidence
- 1 short paragraph; then "Confidence: low/medium/high" with reasons (sources, consistency, gaps).

8) Intelligence Gaps & Collection
- Bullets with concrete follow-ups, indicators to watch.

9) Sources Cited
- List [#n] with title or domain.`

const osintReportRules = `Rules:
- Use ONLY the provided documents; avoid speculation.
- Attribute clearly and cite inline with [#n] immediately after claims.
- Prefer cross-source corroboration; note contradictions explicitly.
- If insufficient evidence, say so.
- Keep language concise and analytical; avoid rhetorical flourish.
- Prefer high-credibility mainstream outlets; treat tabloids/aggregators/partisan blogs as low credibility. Do NOT base conclusions solely on low-credibility sources.
- Use proper names and locations; dates as DD Mon YYYY (UK).
- Use inline badges in backticks for Evidence and Likelihood as shown.
- Total length target: ~1200–1500 words.`

// SystemPrompt builds the per-run system instruction for a preset. Unknown
// presets fall back to a minimal summarization instruction.
func SystemPrompt(preset, start, end, q, focus string) string {
	if preset != PresetOSINTStructured {
		return fmt.Sprintf("You are an analyst. Summarize documents for %s from %s to %s with citations like [#n].", q, start, end)
	}

	focusText := strings.TrimSpace(focus)
	if focusText == "" {
		focusText = defaultFocus
	}
	var b strings.Builder
	b.WriteString("You are an OSINT analyst producing a decision-ready report on the Ukraine war.\n\n")
	fmt.Fprintf(&b, "Timeframe: %s to %s. Topic: %s.\n", start, end, q)
	fmt.Fprintf(&b, "Analyst priorities (focus): %s\n\n", focusText)
	b.WriteString("Focus directive: prioritize coverage of the analyst focus above when selecting events, structuring themes, and writing the Executive Summary. Explicitly reference focus items where applicable.\n\n")
	b.WriteString(osintReportFormat)
	b.WriteString("\n\n")
	b.WriteString(osintReportRules)
	return b.String()
}

// mapInstruction is the per-chunk instruction for the map phase.
func mapInstruction(part, total int, focus string) string {
	prefix := ""
	if total > 1 {
		prefix = fmt.Sprintf("Part %d/%d. ", part, total)
	}
	if strings.TrimSpace(focus) == "" {
		focus = "(none provided)"
	}
	return prefix + "You will receive a subset of the documents with IDs. Read and produce partial analysis notes that strictly follow the requested structure and include inline citations [#n]. Do not repeat the full documents.\n\n" +
		"Analyst focus: " + focus + "\n" +
		"In your notes, prioritize items relevant to the focus and explicitly mention them where appropriate.\n" +
		"For each claim, include: an Evidence badge (`Single-source`/`Multi-source`/`Contested`), Sources & Outlets counts, and a Likelihood using the UK MI yardstick terms."
}

// reduceInstruction asks for one cohesive report merged from partial notes.
func reduceInstruction(focus string) string {
	if strings.TrimSpace(focus) == "" {
		focus = "(none provided)"
	}
	return "Synthesize the partial analyses into ONE cohesive report following the exact section ordering and formatting rules. " +
		"Merge and deduplicate content; keep inline citations [#n] intact and comprehensive. " +
		"Ensure the analyst focus is clearly addressed throughout (especially in the Executive Summary and Thematic Analysis). " +
		"For Claims and Corroboration, make sure each claim shows: Evidence badge, Sources & Outlets counts, and Likelihood using the UK MI yardstick. " +
		"Analyst focus: " + focus
}
