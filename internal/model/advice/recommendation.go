package advice

import "strings"

// Recommendation is the structured payload returned by the recommendation
// endpoint. Every field is optional; absent fields are skipped when the
// payload is rendered for display.
type Recommendation struct {
	Stability     []string `json:"stability,omitempty"`
	HighGrowth    []string `json:"high_growth,omitempty"`
	PassiveIncome []string `json:"passive_income,omitempty"`
	RiskLevel     string   `json:"risk_level,omitempty"`
	Summary       string   `json:"summary,omitempty"`
}

// Response is the body of a successful POST /recommend exchange.
type Response struct {
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Fixed display strings. RenderReply output is shown verbatim to the user,
// so these must not change without a frontend audit.
const (
	replyHeader = "Here's what I found:"

	// NoRecommendationReply is rendered when the endpoint answered but
	// carried no recommendation payload.
	NoRecommendationReply = "I couldn't generate a proper recommendation."

	// FallbackReply is the single recovery message for any transport,
	// status, or decoding failure.
	FallbackReply = "Bot failed to respond. Try again later."
)

// RenderReply converts a recommendation into the display string appended as
// the bot's message. Deterministic: fields render in fixed order with fixed
// labels, one line each, and only when present and non-empty.
func RenderReply(rec *Recommendation) string {
	if rec == nil {
		return NoRecommendationReply
	}

	var b strings.Builder
	b.WriteString(replyHeader)

	if len(rec.Stability) > 0 {
		b.WriteString("\n💼 Stability-focused investments: ")
		b.WriteString(strings.Join(rec.Stability, ", "))
	}
	if len(rec.HighGrowth) > 0 {
		b.WriteString("\n🚀 High-Growth assets: ")
		b.WriteString(strings.Join(rec.HighGrowth, ", "))
	}
	if len(rec.PassiveIncome) > 0 {
		b.WriteString("\n🏡 Passive Income ideas: ")
		b.WriteString(strings.Join(rec.PassiveIncome, ", "))
	}
	if rec.RiskLevel != "" {
		b.WriteString("\n📊 Risk Level: ")
		b.WriteString(rec.RiskLevel)
	}
	if rec.Summary != "" {
		b.WriteString("\n📝 Summary: ")
		b.WriteString(rec.Summary)
	}

	return b.String()
}
