package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show query performance and tuning hints",
	Long: `Summarise recent query telemetry: timings, ratings, the questions that
rate worst and the documents used most, followed by recommendations.`,
	Args: cobra.NoArgs,
	RunE: runInsights,
}

var (
	insightsDays   int
	insightsJSON   bool
	insightsTrends bool
)

func init() {
	insightsCmd.Flags().IntVarP(&insightsDays, "days", "d", services.DefaultInsightDays, "Window in days")
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "Print insights as JSON")
	insightsCmd.Flags().BoolVar(&insightsTrends, "trends", false, "Also list response time samples")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	ctx := cmd.Context()
	insights, err := analyticsService.Insights(ctx, insightsDays)
	if err != nil {
		return fmt.Errorf("failed to compute insights: %w", err)
	}
	recs, err := analyticsService.Recommendations(ctx, insightsDays)
	if err != nil {
		return fmt.Errorf("failed to compute recommendations: %w", err)
	}

	var trend []domain.TrendPoint
	if insightsTrends {
		if trend, err = analyticsService.Trends(ctx, services.TrendTotalTime, insightsDays); err != nil {
			return fmt.Errorf("failed to read trends: %w", err)
		}
	}

	if insightsJSON {
		payload := struct {
			Insights        *domain.PerformanceInsights `json:"insights"`
			Recommendations []domain.Recommendation     `json:"recommendations"`
			Trend           []domain.TrendPoint         `json:"trend,omitempty"`
		}{insights, recs, trend}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding insights: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printInsights(cmd, insights)

	if len(trend) > 0 {
		cmd.Println()
		cmd.Println("Response time trend")
		for _, p := range trend {
			cmd.Printf("  %s  %.2fs\n", p.Date.Format("2006-01-02 15:04"), p.Value)
		}
	}

	cmd.Println()
	if len(recs) == 0 {
		cmd.Println("No recommendations. Performance looks healthy.")
		return nil
	}
	cmd.Println("Recommendations")
	for _, r := range recs {
		cmd.Printf("  - %s\n", r.Message)
	}
	return nil
}

func printInsights(cmd *cobra.Command, in *domain.PerformanceInsights) {
	cmd.Printf("Last %d days\n", in.Days)
	cmd.Printf("  Queries:          %d\n", in.TotalQueries)
	if in.TotalQueries == 0 {
		return
	}
	cmd.Printf("  Avg response:     %.2fs\n", in.AvgResponseTime)
	cmd.Printf("  Avg search:       %.2fs\n", in.AvgSearchTime)
	cmd.Printf("  Avg generation:   %.2fs\n", in.AvgGenerationTime)
	cmd.Printf("  Avg context:      %.0f chars\n", in.AvgContextLength)
	if in.AvgRating != nil {
		cmd.Printf("  Avg rating:       %.1f\n", *in.AvgRating)
	} else {
		cmd.Println("  Avg rating:       (no ratings)")
	}
	cmd.Printf("  Success rate:     %.0f%%\n", in.SuccessRate*100)

	if len(in.FailingQueries) > 0 {
		cmd.Println()
		cmd.Println("Lowest rated questions")
		for _, q := range in.FailingQueries {
			cmd.Printf("  %.1f  (%dx) %s\n", q.AvgRating, q.Count, q.Question)
		}
	}

	if len(in.TopDocuments) > 0 {
		cmd.Println()
		cmd.Println("Most used documents")
		for _, d := range in.TopDocuments {
			cmd.Printf("  %4d  %s (%d chunks)\n", d.UsageCount, d.Filename, d.ChunkCount)
		}
	}
}
