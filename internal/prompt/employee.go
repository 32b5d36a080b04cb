package prompt

import (
	"fmt"
	"strings"

	"survey-server/internal/models"
)

// EmployeeBuilders - варианты промптов для профилей сотрудников.
var EmployeeBuilders = []BuilderFunc{
	buildEmployeePromptV1,
	buildEmployeePromptV2,
	buildEmployeePromptV3,
	buildEmployeePromptV4,
}

func buildEmployeePromptV1(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	e := p.Employee
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a company survey response predictor.
    Your task is to estimate realistic probability distributions for how an employee with the following profile might respond, acknowledging that even predictable employees can vary their responses due to recent events or changes in mood.

    Employee profile:
    - Job role: %s based in %s
    - Employment details: %s
    - Positive aspects of their role: %s
    - Challenges or negatives of their role: %s
    - Company rating: %g/5
    - Overall attitude: %s, %s, %s outlook on company performance
    - Core concerns: %s

    Context from previous interactions:
`,
		e.Role, e.Location, e.EmploymentStatus, e.Pros, e.Cons, ratingOf(p),
		pick(e.Recommend, "Likely to recommend", "Unlikely to recommend"),
		pick(e.CEOApproval, "Approves of CEO", "unlikely to approve of CEO"),
		pick(e.BusinessOutlook, "Optimistic", "pessimistic"),
		e.AdviceToManagement)

	writeHistory(&sb, "The individual has previously answered the following questions:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on this information, predict the probability distribution for how this employee would answer the question: "%s"

    Account for:
    - Variations in daily experiences and emotions
    - Their earlier feedback and attitudes
    - How frustrations and benefits might influence their response
    - Patterns reflected in their sentiment and ratings

    Provide probabilities for each response option, ensuring they sum to 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Return your response in this JSON format:
    {
        "relevant": boolean (true if the question is related to the profile, false otherwise),
        "option": [
            {
                "option": "option1",
                "probability": probability
            },
            ...
        ],
        "reason": "Detailed reasoning for the assigned probabilities based on the persona"
    }

    If the question is unrelated to the employee's experience, set "relevant": false and leave other fields as empty strings.
`)

	return sb.String(), surveyResponseSchema("employee_response_v1")
}

func buildEmployeePromptV2(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	e := p.Employee
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are an AI model tasked with simulating employee survey responses.
    Your objective is to generate probability distributions for each option based on the following employee's profile, recognizing that responses may vary depending on recent experiences or emotions.

    Employee details:
    - Job title: %s, located in %s
    - Employment type: %s
    - Highlights of the job: %s
    - Pain points of the job: %s
    - Company rating: %g/5
    - Sentiment summary: %s, %s, %s business outlook
    - Major concerns or feedback: %s

    Previous survey responses:
`,
		e.Role, e.Location, e.EmploymentStatus, e.Pros, e.Cons, ratingOf(p),
		pick(e.Recommend, "Recommends", "Does not recommend"),
		pick(e.CEOApproval, "Approves of CEO", "does not approve of CEO"),
		pick(e.BusinessOutlook, "Positive", "poor"),
		e.AdviceToManagement)

	writeHistory(&sb, "The employee has previously responded as follows:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Given this context, simulate the probability distribution for their answer to the question: "%s"

    Consider the following factors:
    - Daily fluctuations in their mood or recent experiences
    - Feedback and sentiment patterns from their previous interactions
    - Key challenges and benefits identified in their role
    - General tendencies based on their sentiment and ratings

    List probabilities for each option below, ensuring they total 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Provide a response in the following JSON format:
    {
        "relevant": boolean (true if the question aligns with their profile, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "A clear explanation of how the persona's profile informed the distribution"
    }

    If the question does not align with the persona, set "relevant": false and leave the other fields blank.
`)

	return sb.String(), surveyResponseSchema("employee_response_v2")
}

func buildEmployeePromptV3(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	e := p.Employee
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a simulation model for employee surveys.
    Your role is to predict the probability distribution of responses an employee might give, considering the nuances of their profile and the potential for variation influenced by recent experiences or emotional states.

    Employee profile summary:
    - Position: %s located in %s
    - Employment details: %s
    - Positive job attributes: %s
    - Negative job attributes: %s
    - Overall company rating: %g/5
    - Sentiment analysis: %s, %s, %s
    - Primary concerns: %s

    Historical responses:
`,
		e.Role, e.Location, e.EmploymentStatus, e.Pros, e.Cons, ratingOf(p),
		pick(e.Recommend, "Likely to recommend", "Not likely to recommend"),
		pick(e.CEOApproval, "Positive CEO approval", "negative CEO approval"),
		pick(e.BusinessOutlook, "Positive business outlook", "poor business outlook"),
		e.AdviceToManagement)

	writeHistory(&sb, "The following context is derived from their earlier responses:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on the above, estimate the likelihood of their response to the question: "%s"

    Take into account:
    - Daily mood shifts and relevant interactions
    - Patterns observed in their feedback and attitudes
    - Highlights and challenges within their job role
    - Their typical rating and sentiment trends

    Specify the probabilities for each option, ensuring the total equals 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Deliver your output as a JSON object with the following structure:
    {
        "relevant": boolean (true if the question applies to the persona, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "Explanation of the assigned probabilities based on the persona's attributes"
    }

    If the question is irrelevant, set "relevant": false and leave the other fields blank.
`)

	return sb.String(), surveyResponseSchema("employee_response_v3")
}

func buildEmployeePromptV4(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	e := p.Employee
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a survey response simulator for company surveys.
    Your task is to generate realistic probability distributions for how an employee with this profile would respond, considering that even consistent employees might occasionally give different responses depending on their recent experiences and mood.

    Consider the following employee profile:
    - Role: %s in %s
    - Work experience: %s
    - Pros of your job: %s
    - Cons of your job: %s
    - Rating of the company: %g/5
    - Overall sentiment: %s, %s, %s business outlook
    - Key concerns: %s

    Previous conversation context:
`,
		e.Role, e.Location, e.EmploymentStatus, e.Pros, e.Cons, ratingOf(p),
		pick(e.Recommend, "", "Does not recommend"),
		pick(e.CEOApproval, "", "does not approve of CEO"),
		pick(e.BusinessOutlook, "", "negative"),
		e.AdviceToManagement)

	writeHistory(&sb, "The person responded to the following questions with following answers:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on this profile, simulate the probability distribution for how this employee would respond to: "%s"

    Consider:
    - Day-to-day variations in mood and experiences
    - Recent interactions reflected in their review
    - Impact of mentioned frustrations and positive points
    - Overall sentiment and rating tendency

    Provide probabilities for each option, ensuring they sum to 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Return a JSON object with:
    {
        "relevant": boolean (true if question relates to their experience, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "Detailed explanation of why this distribution makes sense for this persona"
    }

    If the question is not relevant to the persona's experience, set "relevant": false and leave other fields as empty strings.
`)

	return sb.String(), surveyResponseSchema("employee_response_v4")
}
