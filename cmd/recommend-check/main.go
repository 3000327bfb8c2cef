// Command recommend-check sends one recommendation request through the
// configured LLM provider chain, for checking credentials and prompts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mchlbschmdt/ai-concierge/cmd/mainconfig"
	"github.com/mchlbschmdt/ai-concierge/internal/app/bootstrap"
	"github.com/mchlbschmdt/ai-concierge/internal/intent"
	"github.com/mchlbschmdt/ai-concierge/internal/recommend"
)

func main() {
	query := flag.String("q", "somewhere good for dinner tonight", "guest message")
	address := flag.String("address", "7593 Gathering Dr, Reunion, Kissimmee, FL 34747", "property address")
	name := flag.String("name", "Sunny Villa", "property name")
	flag.Parse()

	cfg, logger := mainconfig.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := mainconfig.OptionalAWSConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aws config: %v\n", err)
		os.Exit(1)
	}
	rec, release, err := bootstrap.BuildRecommender(ctx, cfg, awsCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recommender: %v\n", err)
		os.Exit(1)
	}
	defer release()
	if rec == nil {
		fmt.Fprintln(os.Stderr, "no provider configured: set BEDROCK_MODEL_ID or GEMINI_API_KEY")
		os.Exit(1)
	}

	res := intent.NewClassifier().Classify(*query)
	req := recommend.RecommendationRequest{
		Query:           *query,
		PropertyName:    *name,
		PropertyAddress: *address,
		RequestType:     string(res.Intent),
		Vibe:            intent.DetectVibe(*query),
		MealType:        intent.MealType(*query),
	}
	fmt.Printf("intent: %s\nprompt:\n%s\n\n", res.Intent, recommend.BuildPrompt(req))

	start := time.Now()
	text, err := rec.GetRecommendations(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recommendation failed after %s: %v\n", time.Since(start).Round(time.Millisecond), err)
		os.Exit(1)
	}
	fmt.Printf("reply (%s, %d chars):\n%s\n", time.Since(start).Round(time.Millisecond), len(text), text)
}
