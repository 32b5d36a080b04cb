package prompt

import (
	"fmt"
	"strings"

	"survey-server/internal/models"
)

// PersonalitySummary строит промпт для краткого (до 20 слов) резюме личности
// персоны. Используется как контекст при интерпретации ответов.
func PersonalitySummary(p *models.Profile) string {
	if p.Type == models.ProfileTypeEmployee && p.Employee != nil {
		return employeePersonalitySummary(p)
	}
	return productPersonalitySummary(p)
}

const summaryPreamble = `You are part of a team running simulations with personalities for survey analysis.
    You will be provided certain attributes of a persona/their responses or thoughts on something.
    You will be asked to summarize the personality of the persona based on the provided attributes.

    Your response should be a summary of the personality of the persona in 20 WORDS or less.
`

func employeePersonalitySummary(p *models.Profile) string {
	e := p.Employee
	var sb strings.Builder
	sb.WriteString(summaryPreamble)
	fmt.Fprintf(&sb, `
    The attributes are:
    - Name: %s
    - Role: %s in %s
    - Work experience: %s
    - Rating of the company: %g/5
`, p.Name, e.Role, e.Location, e.EmploymentStatus, ratingOf(p))

	if e.Pros != "" {
		fmt.Fprintf(&sb, "- Pros of your job: %s\n", e.Pros)
	}
	if e.Cons != "" {
		fmt.Fprintf(&sb, "- Cons of your job: %s\n", e.Cons)
	}

	var sentiment []string
	if e.Recommend != nil && !*e.Recommend {
		sentiment = append(sentiment, "Does not recommend")
	}
	if e.CEOApproval != nil && !*e.CEOApproval {
		sentiment = append(sentiment, "Does not approve of CEO")
	}
	if e.BusinessOutlook != nil && !*e.BusinessOutlook {
		sentiment = append(sentiment, "Negative business outlook")
	}
	if len(sentiment) > 0 {
		fmt.Fprintf(&sb, "- Overall sentiment: %s\n", strings.Join(sentiment, ", "))
	}

	if e.AdviceToManagement != "" {
		fmt.Fprintf(&sb, "- Key concerns: %s\n", e.AdviceToManagement)
	}

	return sb.String()
}

func productPersonalitySummary(p *models.Profile) string {
	r := p.Product
	var sb strings.Builder
	sb.WriteString(summaryPreamble)
	fmt.Fprintf(&sb, `
    The attributes are:
    - Name: %s
    - Product reviewed: %s (%s)
    - Location: %s
    - Rating given: %g/5
    - Review title: %s
`, p.Name, r.ProductName(), r.Category(), r.Location(), ratingOf(p), p.Title)

	if len(r.Pros) > 0 {
		fmt.Fprintf(&sb, "- Positive aspects: %s\n", strings.Join(r.Pros, ", "))
	}
	if len(r.Cons) > 0 {
		fmt.Fprintf(&sb, "- Negative aspects: %s\n", strings.Join(r.Cons, ", "))
	}
	if len(r.Themes) > 0 {
		fmt.Fprintf(&sb, "- Key themes: %s\n", strings.Join(r.Themes, ", "))
	}
	if r.TechnicalLevel() != "" {
		fmt.Fprintf(&sb, "- Technical expertise: %s\n", r.TechnicalLevel())
	}
	if r.UseCase() != "" {
		fmt.Fprintf(&sb, "- Use case: %s\n", r.UseCase())
	}
	if r.Recommend != nil && !*r.Recommend {
		sb.WriteString("- Overall sentiment: Does not recommend product\n")
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "- Suggested improvements: %s\n", strings.Join(r.Suggestions, ", "))
	}

	return sb.String()
}
