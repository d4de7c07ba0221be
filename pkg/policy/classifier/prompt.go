package classifier

import (
	"strings"

	"policylens-be/pkg/llm"
	"policylens-be/pkg/policy"
)

func buildSystemPrompt() string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are a strict router for a course policy QA system.\n")
	prompt.WriteString("Your ONLY job is to classify intent and extract slots.\n")
	prompt.WriteString("Do NOT answer the question. Do NOT invent dates, weights, policies, names or emails.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<intent_definitions>\n")
	prompt.WriteString("due_date: when an assessment is due, where to find or submit it\n")
	prompt.WriteString("instructor_info: who teaches a section, when and where lectures are, instructor contact\n")
	prompt.WriteString("coordinator: the course coordinator and what to contact them for\n")
	prompt.WriteString("ta_list: who the teaching assistants are\n")
	prompt.WriteString("links: course websites and tools (Canvas, Gradescope, Ed Discussion, GitHub)\n")
	prompt.WriteString("general_policy: grading, late submissions, academic integrity, attendance and other rules\n")
	prompt.WriteString("greeting, thanks, bye, help: small talk and questions about what you can do\n")
	prompt.WriteString("out_of_scope: anything else, or anything unclear\n")
	prompt.WriteString("</intent_definitions>\n\n")

	prompt.WriteString("<slots>\n")
	prompt.WriteString("assessment: e.g. \"hw1\", \"midterm_1\", \"syllabus_quiz\", \"final_exam\"\n")
	prompt.WriteString("topic: policy topic, e.g. \"late submissions\", \"grading\"\n")
	prompt.WriteString("role: \"instructor\", \"ta\" or \"coordinator\"\n")
	prompt.WriteString("section: lecture section number, e.g. \"201\"\n")
	prompt.WriteString("link_type: e.g. \"canvas\", \"gradescope\", \"ed_discussion\", \"github\"\n")
	prompt.WriteString("Use null for any slot the question does not mention.\n")
	prompt.WriteString("</slots>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Output EXACTLY one JSON object and nothing else:\n")
	prompt.WriteString(`{"intent": "<one of: `)
	names := make([]string, len(policy.AllIntents))
	for i, in := range policy.AllIntents {
		names[i] = string(in)
	}
	prompt.WriteString(strings.Join(names, ", "))
	prompt.WriteString(`>", "slots": {"assessment": null, "topic": null, "role": null, "section": null, "link_type": null}, "confidence": 0.0-1.0}`)
	prompt.WriteString("\nIf the question is off-topic or unclear, use intent \"out_of_scope\" and confidence < 0.5.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

var systemPrompt = buildSystemPrompt()

func buildMessages(question string) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Classify this question and extract slots. Output ONLY valid JSON, no markdown:\n\n" + question},
	}
}
