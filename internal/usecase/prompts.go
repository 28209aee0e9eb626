package usecase

import (
	"fmt"
	"strings"

	"feedagent/internal/domain"
	"feedagent/internal/ports"
)

const articleSummarySystem = `You are a skilled editor who creates concise,
insightful summaries of newsletter articles. Your summaries help busy
professionals quickly understand the key points and decide what deserves
deeper reading.

Your summaries should:
- Capture the core thesis or argument
- Highlight what's new or surprising
- Note practical implications
- Be written in clear, direct prose
- Avoid jargon unless essential

Always respond with valid JSON matching the requested schema.`

const digestSynthesisSystem = `You are creating a daily newsletter digest for
a busy professional. Your job is to synthesize multiple article summaries
into a coherent overview that surfaces the most important themes and
insights.

Your synthesis should:
- Identify connections across articles
- Highlight the most important takeaways
- Surface surprising or counterintuitive findings
- Prioritize actionable insights
- Be scannable and well-organized

Write in a warm but efficient tone—like a trusted colleague briefing you
over coffee.`

const overallSynthesisSystem = `You are creating the executive summary for a
daily newsletter digest. You need to identify the most important themes
across all categories and give the reader a quick understanding of what
matters today.`

var articleSummarySchema = ports.Schema{
	Name: "article_summary",
	Raw: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":       map[string]any{"type": "string", "description": "2-3 sentence summary"},
			"key_takeaways": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"action_items":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"topics":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"sentiment":     map[string]any{"type": "string"},
			"importance":    map[string]any{"type": "integer"},
		},
		"required": []string{"summary", "key_takeaways", "action_items"},
	},
}

var categorySynthesisSchema = ports.Schema{
	Name: "category_synthesis",
	Raw: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"synthesis":     map[string]any{"type": "string", "description": "2-4 sentence summary of the category"},
			"top_takeaways": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"must_read":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"synthesis", "top_takeaways", "must_read"},
	},
}

var overallSynthesisSchema = ports.Schema{
	Name: "overall_synthesis",
	Raw: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_themes":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"headline":          map[string]any{"type": "string"},
			"must_read_overall": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"overall_themes", "headline", "must_read_overall"},
	},
}

func articleSummaryPrompt(article domain.Article, content string) string {
	return fmt.Sprintf(`Summarize this article and extract key insights.

<article>
Title: %s
Author: %s
Source: %s
Published: %s

Content:
%s
</article>

Respond with JSON in this exact format:
{
    "summary": "2-3 sentence summary capturing the main point and why it matters",
    "key_takeaways": ["insight 1", "insight 2", "insight 3"],
    "action_items": ["actionable item if any"],
    "topics": ["topic1", "topic2"],
    "sentiment": "positive|negative|neutral|mixed",
    "importance": 1-5
}

Focus on what's genuinely useful. If there are no clear action items,
return an empty array.`,
		article.Title, article.Author, article.FeedName,
		article.Published.Format("2006-01-02"), content)
}

func categorySynthesisPrompt(category string, articles []domain.Article) string {
	var summaries []string
	for _, a := range articles {
		takeaways := "None"
		if len(a.KeyTakeaways) > 0 {
			takeaways = strings.Join(a.KeyTakeaways, ", ")
		}
		summary := a.Summary
		if summary == "" {
			summary = "No summary available"
		}
		summaries = append(summaries, fmt.Sprintf(
			"**%s** (%s)\nURL: %s\nSummary: %s\nKey points: %s",
			a.Title, a.FeedName, a.URL, summary, takeaways))
	}

	return fmt.Sprintf(`Here are the summaries from today's %s
articles:

%s

Create a synthesis for this category. Respond with JSON:
{
    "synthesis": "2-4 sentences summarizing key themes and important points across these articles",
    "top_takeaways": [
        "most important insight 1",
        "most important insight 2",
        "most important insight 3"
    ],
    "must_read": ["url1", "url2"]
}

Only include must_read URLs for articles that are exceptionally valuable.`,
		category, strings.Join(summaries, "\n\n"))
}

func overallSynthesisPrompt(categories []domain.CategoryDigest) string {
	var summaries []string
	for _, cd := range categories {
		takeaways := "None"
		if len(cd.TopTakeaways) > 0 {
			takeaways = strings.Join(cd.TopTakeaways, ", ")
		}
		summaries = append(summaries, fmt.Sprintf(
			"**%s** (%d articles)\nSynthesis: %s\nKey takeaways: %s",
			cd.Name, cd.ArticleCount, cd.Synthesis, takeaways))
	}

	return fmt.Sprintf(`Here are today's category summaries:

%s

Create an overall synthesis. Respond with JSON:
{
    "overall_themes": ["theme 1", "theme 2", "theme 3"],
    "headline": "One compelling sentence capturing what matters most today",
    "must_read_overall": ["url1"]
}

Be highly selective—only 1-3 must-read articles across everything.`,
		strings.Join(summaries, "\n\n"))
}
