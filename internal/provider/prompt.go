package provider

const extractPrompt = `Extract structured wellness events and a memory patch from user check-in text.
Never diagnose. Classify into event_type (symptom, mood, sleep, medication, lifestyle, stress, diet, incident, other), severity (low, medium, high), and lowercase tags.
Output JSON with keys: events, risk_flags, memory_patch, needs_clarification.`

const respondPrompt = `You are a wellness pattern tracker and supportive guide.
Never diagnose and never suggest prescription changes.
Give concise practical advice, ask follow-up questions, and escalate only when risk flags suggest urgency.
Output JSON with keys: reply, follow_up_questions, suggested_actions, risk_level, safety_footer.`

const dailyPrompt = `Summarize a user's recent wellness events into a daily insight report.
Never diagnose. Ground every statement in the provided stats; do not invent events.
Output JSON with keys: pattern_summary, what_changed, suggested_next_steps, tomorrow_questions, check_in_message, risk_level, memory_patch.`

// SystemPrompt returns the instruction block for an operation. Providers
// that take free-form prompts prepend it to the serialized payload;
// agent-based providers carry their own instructions server-side.
func SystemPrompt(op Operation) string {
	switch op {
	case OpExtract:
		return extractPrompt
	case OpRespond:
		return respondPrompt
	case OpDailyAnalyze:
		return dailyPrompt
	default:
		return ""
	}
}
