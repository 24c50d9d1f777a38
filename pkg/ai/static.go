package ai

import (
	"fmt"
	"strings"
)

// domainQuestions is the built-in question bank used when every generation
// provider is unavailable. Domains mirror the interview tracks the product
// supports out of the box.
var domainQuestions = map[string][]string{
	"web-dev": {
		"Explain the difference between REST and GraphQL APIs.",
		"What are the security considerations in web development?",
		"How do you optimize web application performance?",
	},
	"ml": {
		"What is the bias-variance tradeoff?",
		"Explain cross-validation and its types.",
		"How do you handle overfitting in machine learning?",
	},
	"nlp": {
		"What is the difference between stemming and lemmatization?",
		"Explain how transformers handle long-range dependencies.",
		"How would you fine-tune a language model for question answering?",
	},
	"cv": {
		"Explain the difference between CNNs and Vision Transformers.",
		"What data augmentations help most in image classification?",
		"How does non-maximum suppression (NMS) work in object detection?",
	},
	"diffusion": {
		"What is the forward and reverse process in diffusion models?",
		"How do CLIP guidance and classifier-free guidance differ?",
		"Describe how you would fine-tune a Stable Diffusion model for a new style.",
	},
	"dl": {
		"What problems do residual connections solve?",
		"Compare batch normalization and layer normalization.",
		"When would you use LSTMs vs. Transformers?",
	},
	"rl": {
		"Differentiate on-policy and off-policy learning with examples.",
		"What is the role of the value function in actor-critic methods?",
		"How would you handle sparse rewards in RL?",
	},
	"data-science": {
		"How do you handle missing data and why choose a method?",
		"Explain feature leakage and how to detect/prevent it.",
		"What steps form a robust cross-validation strategy?",
	},
}

// genericQuestions backs domains with no dedicated bank so the fallback can
// still produce a full interview.
var genericQuestions = []string{
	"Walk me through a challenging technical problem you solved recently.",
	"How do you evaluate trade-offs when choosing between two designs?",
	"Describe how you debug an issue you cannot reproduce locally.",
}

// SupportedDomains lists the domains with a dedicated built-in question bank.
func SupportedDomains() []string {
	domains := make([]string, 0, len(domainQuestions))
	for domain := range domainQuestions {
		domains = append(domains, domain)
	}
	return domains
}

// BuiltinQuestions returns exactly count questions for the domain from the
// static bank. When the pool is smaller than count the pool is repeated
// cyclically, so the interview always has the configured number of questions.
func BuiltinQuestions(domain string, count int) []string {
	if count <= 0 {
		return nil
	}

	pool, ok := domainQuestions[strings.ToLower(strings.TrimSpace(domain))]
	if !ok || len(pool) == 0 {
		pool = genericQuestions
	}

	questions := make([]string, count)
	for i := 0; i < count; i++ {
		questions[i] = pool[i%len(pool)]
	}
	return questions
}

// HeuristicGrade scores an answer on length alone. It is a pure function of
// the input and never fails, making it the terminal fallback of the grading
// chain. Scores land in the 4..10 band for any non-empty answer; callers are
// expected to have short-circuited empty answers before grading.
func HeuristicGrade(input GradeInput) Grade {
	words := len(strings.Fields(input.Answer))

	score := 4.0 + float64(words)/10.0*3.0
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	grade := Grade{
		Score:        score,
		Feedback:     "Auto-scored by heuristic (no grading provider available).",
		Improvements: []string{"Provide more details and structure"},
	}
	if words > 0 {
		grade.Strengths = []string{"Answered the question"}
	} else {
		grade.Strengths = []string{"Attempted"}
	}
	return grade
}

// TemplatePreamble builds a canned conversational lead-in when no language
// model is reachable.
func TemplatePreamble(input PreambleInput) string {
	name := strings.TrimSpace(input.CandidateName)
	if name == "" {
		name = "there"
	}

	switch {
	case input.QuestionIndex <= 0:
		if input.Domain != "" {
			return fmt.Sprintf("Hello %s, let's get started with your interview in %s. Here's the first question:", name, input.Domain)
		}
		return fmt.Sprintf("Hello %s, let's get started with your interview. Here's the first question:", name)
	case input.QuestionIndex >= input.TotalQuestions-1:
		return fmt.Sprintf("Great going %s! You've come this far. Here's the last, but not the least, question:", name)
	default:
		return fmt.Sprintf("Nice progress %s. Let's keep the momentum. Here's the next question:", name)
	}
}

// SilentSynthesis is the terminal fallback for text-to-speech: no audio, so
// the client falls back to displaying the text instead of stalling.
func SilentSynthesis() Synthesis {
	return Synthesis{Audio: nil, MimeType: "audio/mpeg"}
}
