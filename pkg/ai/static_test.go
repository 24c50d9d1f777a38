package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinQuestionsExactCount(t *testing.T) {
	questions := BuiltinQuestions("nlp", 2)
	require.Len(t, questions, 2)
}

func TestBuiltinQuestionsCyclicRepetition(t *testing.T) {
	questions := BuiltinQuestions("ml", 7)
	require.Len(t, questions, 7)

	// Pool size is 3, so index i must equal index i mod 3.
	for i, q := range questions {
		require.Equal(t, questions[i%3], q)
	}
	require.Equal(t, questions[0], questions[3])
	require.Equal(t, questions[1], questions[4])
}

func TestBuiltinQuestionsUnknownDomainUsesGenericPool(t *testing.T) {
	questions := BuiltinQuestions("quantum-basket-weaving", 3)
	require.Len(t, questions, 3)
	for _, q := range questions {
		require.NotEmpty(t, q)
	}
}

func TestBuiltinQuestionsNonPositiveCount(t *testing.T) {
	require.Nil(t, BuiltinQuestions("nlp", 0))
	require.Nil(t, BuiltinQuestions("nlp", -1))
}

func TestHeuristicGradeScalesWithLength(t *testing.T) {
	short := HeuristicGrade(GradeInput{Answer: "Yes."})
	long := HeuristicGrade(GradeInput{Answer: "Transformers rely on self-attention which lets every token attend to every other token, avoiding the sequential bottleneck of recurrent models and enabling long-range dependency modelling."})

	require.Greater(t, long.Score, short.Score)
	require.LessOrEqual(t, long.Score, 10.0)
	require.GreaterOrEqual(t, short.Score, 1.0)
	require.NotEmpty(t, short.Feedback)
}

func TestHeuristicGradeIsDeterministic(t *testing.T) {
	input := GradeInput{Question: "q", Answer: "a reasonably sized answer with some words", Domain: "ml"}
	first := HeuristicGrade(input)
	second := HeuristicGrade(input)
	require.Equal(t, first, second)
}

func TestTemplatePreamblePositions(t *testing.T) {
	first := TemplatePreamble(PreambleInput{CandidateName: "Ava", Domain: "nlp", QuestionIndex: 0, TotalQuestions: 3})
	middle := TemplatePreamble(PreambleInput{CandidateName: "Ava", QuestionIndex: 1, TotalQuestions: 3})
	last := TemplatePreamble(PreambleInput{CandidateName: "Ava", QuestionIndex: 2, TotalQuestions: 3})

	require.Contains(t, first, "first question")
	require.Contains(t, middle, "next question")
	require.Contains(t, last, "last")
}

func TestTemplatePreambleMissingName(t *testing.T) {
	preamble := TemplatePreamble(PreambleInput{QuestionIndex: 0, TotalQuestions: 1})
	require.Contains(t, preamble, "there")
}

func TestParseGradeValidPayload(t *testing.T) {
	grade, err := parseGrade(`{"score": 7.5, "feedback": "solid", "strengths": ["clear"], "improvements": ["depth"]}`)
	require.NoError(t, err)
	require.Equal(t, 7.5, grade.Score)
	require.Equal(t, "solid", grade.Feedback)
	require.Equal(t, []string{"clear"}, grade.Strengths)
}

func TestParseGradeRejectsOutOfRangeScore(t *testing.T) {
	_, err := parseGrade(`{"score": 42, "feedback": "nope"}`)
	require.Error(t, err)
}

func TestParseGradeRejectsMissingFields(t *testing.T) {
	_, err := parseGrade(`{"score": 5}`)
	require.Error(t, err)
}

func TestParseGradeRejectsMalformedJSON(t *testing.T) {
	_, err := parseGrade(`the answer was great, 10/10`)
	require.Error(t, err)
}
