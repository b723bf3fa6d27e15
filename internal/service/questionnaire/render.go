package questionnaire

import (
	"fmt"
	"math"
	"strings"

	"github.com/zhouzirui/mindcheck/backend/internal/model/chat"
	"github.com/zhouzirui/mindcheck/backend/internal/model/prediction"
)

const (
	msgPredictFallback = "We couldn't analyze the Twitter account. We'll proceed with demographic questions instead."
	msgIntro           = "To get more accurate results, please answer these questions:"
	msgProcessing      = "Processing your information..."
	msgPipelineFailed  = "Sorry, we couldn't process your information. Please try again later."
	msgDisclaimer      = "Important: This tool is not a substitute for professional medical advice, diagnosis, or treatment. " +
		"Always seek the advice of qualified health providers with any questions you may have."

	barCells = 20
)

func analyzingMessage(handle string) string {
	return fmt.Sprintf("Analyzing Twitter user: @%s...", handle)
}

func tweetCard(p prediction.TweetPrediction) chat.Card {
	card := chat.Card{
		Kind:       chat.CardTweet,
		Title:      "Twitter Analysis Results",
		Label:      "Sentiment Analysis Confidence",
		Percentage: oneDecimal(p.Confidence * 100),
		Indicated:  p.Depressed(),
		Weighting:  "Weight: 60% of final score",
	}
	if card.Indicated {
		card.Summary = "Our analysis of your tweets suggests potential depression indicators."
		card.Advice = "This doesn't constitute a medical diagnosis. Please consult a professional."
	} else {
		card.Summary = "Our analysis of your tweets doesn't suggest signs of depression."
		card.Advice = "Continue practicing good mental health habits."
	}
	return card
}

func demographicCard(p prediction.DemographicPrediction) chat.Card {
	card := chat.Card{
		Kind:       chat.CardDemographic,
		Title:      "Demographic Analysis Results",
		Label:      "Demographic Risk Confidence",
		Percentage: p.ConfidencePercentage,
		Indicated:  p.Depressed(),
		Weighting:  "Weight: 40% of final score",
	}
	if card.Indicated {
		card.Summary = "Based on your responses, our demographic assessment suggests potential risk factors for depression."
	} else {
		card.Summary = "Based on your responses, our demographic assessment doesn't show significant risk factors for depression."
	}
	return card
}

func finalCard(p prediction.FinalPrediction) chat.Card {
	card := chat.Card{
		Kind:       chat.CardFinal,
		Title:      "Final Combined Analysis",
		Label:      "Overall Depression Risk Score",
		Percentage: oneDecimal(p.WeightedScore * 100),
		Indicated:  p.Depressed(),
	}
	if card.Indicated {
		card.Summary = "Our combined analysis suggests you may be experiencing depression."
		card.Advice = "Recommendation: Consider reaching out to a mental health professional for further evaluation. " +
			"Early intervention can make a significant difference."
	} else {
		card.Summary = "Our combined analysis doesn't suggest signs of depression."
		card.Advice = "Recommendation: Maintain healthy habits and check in with yourself regularly. " +
			"Prevention is key to mental wellbeing."
	}
	return card
}

// renderCard produces the text form of a card for surfaces without rich rendering.
func renderCard(card chat.Card) string {
	var b strings.Builder
	b.WriteString(card.Title)
	b.WriteString("\n")
	b.WriteString(card.Summary)
	b.WriteString("\n")
	b.WriteString(card.Label)
	if card.Weighting != "" {
		b.WriteString(" (")
		b.WriteString(card.Weighting)
		b.WriteString(")")
	}
	b.WriteString("\n")
	b.WriteString(confidenceBar(card.Percentage))
	b.WriteString("\n")
	if card.Indicated {
		b.WriteString("Potential depression indicators")
	} else {
		b.WriteString("No significant indicators")
	}
	if card.Advice != "" {
		b.WriteString("\n")
		b.WriteString(card.Advice)
	}
	return b.String()
}

func confidenceBar(percentage float64) string {
	filled := int(math.Round(percentage / 100 * barCells))
	if filled < 0 {
		filled = 0
	}
	if filled > barCells {
		filled = barCells
	}
	return fmt.Sprintf("[%s%s] %.1f%%", strings.Repeat("#", filled), strings.Repeat("-", barCells-filled), percentage)
}

func oneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
