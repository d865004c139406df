package classifier

import (
	"fmt"
	"strings"

	"SocialListener/internal/domain"
)

// TaskSpec fixes the prompt, the category enum and the response schema of one kind of model call.
// Narrative tasks have no categories.
type TaskSpec struct {
	Name        string
	Instruction string
	Categories  []domain.Category
	Schema      string
}

// Match resolves a model-provided label against the enum, ignoring case and surrounding space.
func (t TaskSpec) Match(label string) (domain.Category, bool) {
	label = strings.TrimSpace(label)
	for _, c := range t.Categories {
		if strings.EqualFold(string(c), label) {
			return c, true
		}
	}
	return domain.Unclassified, false
}

const classificationSchema = `{"category": "<one of the categories above>", "summary": "<short synthesis of the text>"}`

var (
	// RedditPainPoint flags posts that express a problem, question or negative feedback.
	RedditPainPoint = TaskSpec{
		Name: "reddit-pain-point",
		Instruction: "Analyze the following social media post. Decide whether it expresses a problem, " +
			"an unmet need, a question or negative feedback (Problem) or not (Non-Problem).",
		Categories: []domain.Category{domain.CategoryProblem, domain.CategoryNonProblem},
		Schema:     classificationSchema,
	}

	// CommentCategories sorts YouTube comments by intent.
	CommentCategories = TaskSpec{
		Name:        "youtube-comment",
		Instruction: "Analyze the following YouTube comment and classify it by the intent of its author.",
		Categories: []domain.Category{
			domain.CategoryPositiveFeedback,
			domain.CategoryNegativeSentiment,
			domain.CategoryQuestion,
			domain.CategorySuggestion,
		},
		Schema: classificationSchema,
	}

	// TitleFormat classifies a video title by content format; used to compare old and new uploads.
	TitleFormat = TaskSpec{
		Name:        "youtube-title-format",
		Instruction: "Classify the content format of the YouTube video with the following title.",
		Categories: []domain.Category{
			domain.CategoryTutorial,
			domain.CategoryReview,
			domain.CategoryNews,
			domain.CategoryOpinion,
			domain.CategoryEntertainment,
		},
		Schema: classificationSchema,
	}

	ContentPillars = TaskSpec{
		Name: "youtube-content-pillars",
		Instruction: "As a YouTube content strategy expert, analyze the following list of video titles from a single channel. " +
			"Identify and summarize the main content pillars or themes of this channel as a concise bulleted list.",
	}

	FrequentQuestions = TaskSpec{
		Name: "youtube-frequent-questions",
		Instruction: "As a community manager, analyze the following questions extracted from a YouTube comment section. " +
			"Group them into recurring themes and count how many questions belong to each theme.",
		Schema: `{"themes": [{"theme": "<short description of the question theme>", "count": <number of questions>}]}`,
	}

	StrategyEvolution = TaskSpec{
		Name: "youtube-strategy-evolution",
		Instruction: "As a senior YouTube strategy consultant, compare the oldest and newest video titles of a channel, " +
			"each prefixed with its publication date. Summarize the changes in topics, titling style and target audience, " +
			"and use the dates to estimate when each shift began.",
	}

	NicheAssessment = TaskSpec{
		Name: "youtube-niche-assessment",
		Instruction: "As a YouTube niche analyst, evaluate the video age distribution and channel size distribution below " +
			"for a search keyword. Many old videos suggest room for fresh content; small channels ranking suggests a " +
			"newbie-friendly niche. Give a freshness score and a newbie-friendliness score from 1 to 10 with a brief justification.",
	}
)

// PainPointDeepDive asks for a structured pain-point analysis of a set of problem posts.
// The final line of the answer carries the machine-readable concentration score.
func PainPointDeepDive(context string) TaskSpec {
	return TaskSpec{
		Name: "reddit-deep-dive",
		Instruction: fmt.Sprintf("You are an expert market analyst specializing in the '%s' domain. "+
			"Analyze the following user posts to identify recurring pain points. Cover key pain points, user sentiment, "+
			"opportunity areas and important keywords. On a new line at the very end of your response, add the score "+
			"in the format `Pain-Point-Concentration-Score: X/10`.", context),
	}
}
