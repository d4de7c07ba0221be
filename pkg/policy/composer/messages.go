package composer

import "policylens-be/pkg/policy"

var cannedReplies = map[policy.Intent]string{
	policy.IntentGreeting: "Hi! Ask me about this course's policies: due dates, instructors, TAs, links or course rules.",
	policy.IntentThanks:   "You're welcome! Let me know if you have other questions about the course.",
	policy.IntentBye:      "Goodbye, and good luck with the course!",
	policy.IntentHelp: "I answer questions about course policy using only the course's own documents. " +
		"Try \"When is hw1 due?\", \"Who are the TAs?\" or \"Where is the Gradescope link?\"",
}

func cannedReply(intent policy.Intent) string {
	return cannedReplies[intent]
}

func refusalMessage(contact string) string {
	if contact != "" {
		return "I couldn't find that in the course materials. Please post on Ed Discussion or Piazza, or email " + contact + "."
	}
	return "I couldn't find that in the course materials. Please post on Ed Discussion or Piazza with your question."
}
