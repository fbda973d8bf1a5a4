package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
)

// Walks a running server through the study flow: upload, condensation,
// quiz generation, submission, essay grading, cleanup.

const sampleNotes = `Photosynthesis takes place in the chloroplasts of plant cells.
The light-dependent reactions happen in the thylakoid membranes and produce ATP and NADPH.
The Calvin cycle runs in the stroma and uses ATP and NADPH to fix carbon dioxide into glucose.
Chlorophyll absorbs mostly red and blue light and reflects green light.
Cellular respiration releases the energy stored in glucose, producing carbon dioxide and water.`

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mintToken(secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
}

func step(title string) {
	color.Yellow("\n%s", title)
}

// check prints the status line and returns the body, exiting on transport errors.
func check(resp *resty.Response, err error) gjson.Result {
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.IsError() {
		color.Red("Status: %s %s", resp.Status(), gjson.GetBytes(resp.Body(), "message").String())
	} else {
		color.Green("Status: %s", resp.Status())
	}
	return gjson.ParseBytes(resp.Body())
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Info: No .env file found, using system env")
	}

	baseURL := getEnv("SMOKE_BASE_URL", "http://localhost:"+getEnv("APP_PORT", "3000")+"/api")
	token, err := mintToken(os.Getenv("JWT_SECRET"))
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(5 * time.Minute)

	color.Cyan("Starting study API smoke test against %s", baseURL)

	step("1. AI status")
	body := check(client.R().Get("/ai/v1/status"))
	fmt.Printf("Provider: %s (%s), quota exceeded: %v\n",
		body.Get("data.provider"), body.Get("data.model"), body.Get("data.quotaExceeded").Bool())

	step("2. Upload document")
	body = check(client.R().
		SetBody(map[string]string{"title": "Photosynthesis", "text": sampleNotes}).
		Post("/document/v1"))
	docID := body.Get("data.id").String()
	if docID == "" {
		color.Red("No document id returned")
		os.Exit(1)
	}
	fmt.Printf("Document: %s (%s)\n", docID, body.Get("data.condensation_status"))

	step("3. Wait for condensation")
	for i := 0; i < 30; i++ {
		body = check(client.R().Get("/document/v1/" + docID + "/condensation"))
		status := body.Get("data.status").String()
		if status != "pending" {
			fmt.Printf("Condensation: %s (strategy %s)\n", status, body.Get("data.strategy"))
			break
		}
		time.Sleep(2 * time.Second)
	}

	step("4. Generate quiz")
	body = check(client.R().
		SetBody(map[string]interface{}{"type": "mcq", "numQuestions": 3}).
		Post("/quiz/v1/document/" + docID + "/generate"))
	questions := body.Get("data.questions").Array()
	fmt.Printf("Questions: %d (mode %s, fallback %v)\n",
		len(questions), body.Get("data.mode"), body.Get("data.fallbackUsed").Bool())

	step("5. Submit the correct answers")
	answers := make([]string, 0, len(questions))
	for _, q := range questions {
		answers = append(answers, q.Get("correctAnswer").String())
	}
	body = check(client.R().
		SetBody(map[string]interface{}{"answers": answers}).
		Post("/quiz/v1/document/" + docID + "/submit"))
	fmt.Printf("Score: %d/%d (%d%%)\n",
		body.Get("data.correct").Int(), body.Get("data.total").Int(), body.Get("data.percentage").Int())

	step("6. Grade an essay answer")
	body = check(client.R().
		SetBody(map[string]interface{}{
			"correctAnswer": "Light reactions make ATP and NADPH; the Calvin cycle uses them to fix CO2 into glucose.",
			"userAnswer":    "The light reactions produce ATP which the Calvin cycle uses to make sugar.",
			"documentId":    docID,
		}).
		Post("/essay/v1/grade"))
	fmt.Printf("Essay: %d (%s) %s\n", body.Get("data.score").Int(), body.Get("data.grade"), body.Get("data.feedback"))

	step("7. Summary")
	body = check(client.R().Get("/document/v1/" + docID + "/summary"))
	fmt.Println(body.Get("data.summary").String())

	step("8. Cleanup")
	check(client.R().Delete("/document/v1/" + docID))

	color.Cyan("\nDone.")
}
