package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/database"
	"github.com/stemsi/exstem-mockexam/internal/logger"
	"github.com/stemsi/exstem-mockexam/internal/model"
	"github.com/stemsi/exstem-mockexam/internal/repository"
	"github.com/stemsi/exstem-mockexam/internal/service"
)

const (
	paperCode = "FA"
	perTopic  = 10
)

type topic struct {
	unit string
	name string
}

var topics = []topic{
	{"FA1", "Double entry bookkeeping"},
	{"FA1", "Accruals and prepayments"},
	{"FA2", "Non-current assets"},
	{"FA2", "Inventory valuation"},
	{"FA3", "Bank reconciliations"},
	{"FA3", "Control accounts"},
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	existing, err := questionRepo.CountByPaper(ctx, paperCode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count questions")
	}

	full, err := model.NewSessionConfig(paperCode, model.LengthTierFull)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve full tier")
	}

	fmt.Printf("=== Seeding paper %s (%d questions present) ===\n", paperCode, existing)

	if existing >= full.QuestionCount {
		fmt.Println("Paper already has enough questions for a full exam. Skipping insert.")
	} else {
		var questions []model.Question
		for _, t := range topics {
			for i := 0; i < perTopic; i++ {
				questions = append(questions, buildQuestion(t, len(questions)))
			}
		}
		if err := questionRepo.CreateBatch(ctx, questions); err != nil {
			log.Fatal().Err(err).Msg("Failed to insert questions")
		}
		fmt.Printf("Inserted %d questions across %d topics\n", len(questions), len(topics))
	}

	authService := service.NewAuthService(cfg)
	for _, tier := range []service.SubscriptionTier{service.TierFree, service.TierPro} {
		token, err := authService.GenerateToken(1, tier)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign dev token")
		}
		fmt.Printf("Dev token (user 1, %s): %s\n", tier, token)
	}

	fmt.Println("Seed completed!")
}

// buildQuestion cycles through every question type so a seeded exam
// exercises each validator.
func buildQuestion(t topic, n int) model.Question {
	unit := t.unit
	explanation := fmt.Sprintf("Worked solution for %s item %d.", t.name, n+1)
	q := model.Question{
		PaperCode:   paperCode,
		UnitCode:    &unit,
		TopicName:   t.name,
		Explanation: &explanation,
		Difficulty:  []string{"easy", "medium", "hard"}[n%3],
	}

	switch n % 6 {
	case 0:
		correct := n % 4
		q.Type = model.QuestionTypeMCQSingle
		q.Prompt = fmt.Sprintf("%s: which statement is correct? (#%d)", t.name, n+1)
		q.Options = []string{"Statement A", "Statement B", "Statement C", "Statement D"}
		q.CorrectOptionIndex = &correct
	case 1:
		q.Type = model.QuestionTypeMCQMulti
		q.Prompt = fmt.Sprintf("%s: select all that apply. (#%d)", t.name, n+1)
		q.Options = []string{"Option A", "Option B", "Option C", "Option D"}
		q.Metadata = mustJSON(model.MultiChoiceMetadata{CorrectAnswers: []int{0, 2}})
	case 2:
		q.Type = model.QuestionTypeFillInBlank
		q.Prompt = fmt.Sprintf("Cash received from a customer is a ___ to cash and a ___ to receivables. (#%d)", n+1)
		q.Metadata = mustJSON(model.FillInBlankMetadata{Blanks: []model.Blank{{Answer: "debit"}, {Answer: "credit"}}})
	case 3:
		amount := 1000 + n*25
		answer := fmt.Sprintf("%.2f", float64(amount)*0.2)
		tolerance := decimal.RequireFromString("0.01")
		q.Type = model.QuestionTypeCalculation
		q.Prompt = fmt.Sprintf("Calculate 20%% depreciation on an asset costing %d. (#%d)", amount, n+1)
		q.AnswerText = &answer
		q.Metadata = mustJSON(model.CalculationMetadata{Tolerance: &tolerance})
	case 4:
		q.Type = model.QuestionTypeMatching
		q.Prompt = fmt.Sprintf("Match each account to its classification. (#%d)", n+1)
		q.Metadata = mustJSON(model.MatchingMetadata{
			LeftItems:    []string{"Trade payables", "Machinery", "Sales"},
			RightItems:   []string{"Non-current asset", "Income", "Current liability"},
			CorrectPairs: model.Pairs{0: 2, 1: 0, 2: 1},
		})
	default:
		first := model.Scalar("1")
		second := model.Scalar("accrual")
		q.Type = model.QuestionTypeScenarioBased
		q.Prompt = fmt.Sprintf("Read the scenario and answer each part. (#%d)", n+1)
		q.Metadata = mustJSON(model.ScenarioMetadata{
			Scenario: "A business receives an electricity bill in January for December usage.",
			SubQuestions: []model.SubQuestion{
				{Prompt: "Which period bears the expense?", Options: []string{"January", "December"}, CorrectAnswer: &first},
				{Prompt: "Name the adjustment.", CorrectAnswer: &second},
			},
		})
	}
	return q
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
