package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"survey-server/internal/models"
)

// askSchemaBody - схема свободного ответа персоны от первого лица.
const askSchemaBody = `{
    "type": "object",
    "properties": {
        "response": {
            "type": "string",
            "description": "The in-character response to the question."
        }
    },
    "required": ["response"],
    "additionalProperties": false
}`

// AskResponseSchema - схема ответа для прямого вопроса персоне.
func AskResponseSchema() *models.ResponseSchema {
	return &models.ResponseSchema{
		Name:        "persona_ask_response",
		Description: "Free-form in-character response of the persona to a direct question.",
		Strict:      true,
		Schema:      json.RawMessage(askSchemaBody),
	}
}

// Ask строит промпт для прямого вопроса персоне: модель отвечает от первого
// лица в стиле автора исходного отзыва, а не распределением вероятностей.
func Ask(p *models.Profile, question string) string {
	if p.Type == models.ProfileTypeEmployee && p.Employee != nil {
		return askEmployee(p, question)
	}
	return askProduct(p, question)
}

func askEmployee(p *models.Profile, question string) string {
	e := p.Employee
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are tasked with assuming the role of an employee at a company.
    Your profile:
    - Role: %s in %s
    - Work experience: %s
    - Pros of your job: %s
    - Cons of your job: %s
    - Rating of the company: %g/5
    - You %srecommend working at this company.
    - Advice to management: %s

    Respond to this question: "%s". You are supposed to respond in the writing style of a person with this profile. Take into account the persona's writing style, tone, and vocabulary.

    **Ground Rules:**
    1. ONLY use the provided profile information to answer the question.
    2. DO NOT make up additional information beyond what is given.
    3. Your response must feel like it is written by someone with this profile.
    4. If the persona lacks information to answer the question directly, acknowledge it and suggest a response based on what is known.
    5. If the question is not related to the persona's profile, politely decline to answer.
    Provide your response in the following JSON format:
    {
        "response": "Your in-character response to the question"
    }
`,
		e.Role, e.Location, e.EmploymentStatus, e.Pros, e.Cons, ratingOf(p),
		pick(e.Recommend, "", "do not "), e.AdviceToManagement, question)
	return sb.String()
}

func askProduct(p *models.Profile, question string) string {
	r := p.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are now embodying a distinct personality who has reviewed a product. Your responses should authentically reflect this persona's background, expertise, and characteristic way of expressing themselves.

    PERSONA PROFILE:
    - Name: %s
    - Product reviewed: %s (%s)
    - Review title: %s
    - Rating given: %g/5
    - Positive aspects: %s
    - Negative aspects: %s
    - Technical expertise: %s
    - Primary use case: %s

    RESPOND TO THIS QUESTION: "%s"

    EMBODIMENT GUIDELINES:
    1. Write in a voice that matches the persona's expertise level.
    2. Match technical detail to their documented knowledge boundaries.
    3. Reference their actual experiences, not hypotheticals.
    4. Stay true to their documented satisfaction level and recommendations.
    5. If the question is not related to their product experience, politely decline to answer.

    Provide your response in this JSON format:
    {
        "response": "Your in-character response"
    }
`,
		p.Name, r.ProductName(), r.Category(), p.Title, ratingOf(p),
		joined(r.Pros, ""), joined(r.Cons, ""), r.TechnicalLevel(), r.UseCase(), question)
	return sb.String()
}

// ReasonSummary строит промпт для сжатия причин из ансамбля ответов в одно
// короткое объяснение.
func ReasonSummary(reasons []string) string {
	return fmt.Sprintf(`
        You are part of a team that is analyzing responses from a survey.
        You are given a list of reasons why the user chose a particular options.
        You will be provided multiple reasons as to why an option was chosen.
        You will need to summarize the reason(s) into 20 words or less.

        Reasons: %s
        `, strings.Join(reasons, "\n"))
}
