package prompt

import (
	"fmt"
	"strings"

	"survey-server/internal/models"
)

// ProductBuilders - варианты промптов для профилей обозревателей продуктов.
var ProductBuilders = []BuilderFunc{
	buildProductReviewerPromptV1,
	buildProductReviewerPromptV2,
	buildProductReviewerPromptV3,
	buildProductReviewerPromptV4,
}

func buildProductReviewerPromptV1(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	r := p.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a product survey response predictor.
    Your task is to estimate realistic probability distributions for how a customer with the following profile might respond, acknowledging that even satisfied customers can vary their responses based on recent experiences and product usage.

    Customer profile:
    - Product: %s (%s)
    - Location: %s
    - Rating given: %g/5
    - Review title: %s
    - Positive aspects: %s
    - Negative aspects: %s
    - Key themes: %s
    - Overall attitude: %s
    - Usage context: %s
    - Technical expertise: %s

    Context from previous interactions:
`,
		r.ProductName(), r.Category(), r.Location(), ratingOf(p), p.Title,
		joined(r.Pros, ""), joined(r.Cons, ""), joined(r.Themes, "None specified"),
		pick(r.Recommend, "Recommends product", "Does not recommend product"),
		r.UseCase(), r.TechnicalLevel())

	writeHistory(&sb, "The customer has previously answered the following questions:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on this information, predict the probability distribution for how this customer would answer the question: "%s"

    Account for:
    - Their overall product satisfaction level
    - Specific experiences mentioned in their review
    - Technical background and use case context
    - Pattern of likes and dislikes

    Provide probabilities for each response option, ensuring they sum to 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Return your response in this JSON format:
    {
        "relevant": boolean (true if the question relates to their experience, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "Detailed reasoning for the assigned probabilities based on the persona"
    }

    If the question is unrelated to the customer's experience, set "relevant": false and leave other fields as empty strings.
`)

	return sb.String(), surveyResponseSchema("product_reviewer_response_v1")
}

func buildProductReviewerPromptV2(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	r := p.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are an AI model tasked with simulating product review survey responses.
    Your objective is to generate probability distributions for each option based on the following customer's profile, recognizing that responses may vary depending on usage patterns and experiences.

    Product review details:
    - Product details: %s by %s
    - Category: %s
    - Customer location: %s
    - Satisfaction rating: %g/5
    - Key benefits: %s
    - Issues encountered: %s
    - Primary themes: %s
    - Recommendations: %s
    - Usage scenario: %s
    - Technical background: %s

    Previous survey responses:
`,
		r.ProductName(), r.Manufacturer(), r.Category(), r.Location(), ratingOf(p),
		joined(r.Pros, ""), joined(r.Cons, ""),
		joined(r.Themes, "None specified"), joined(r.Suggestions, "None provided"),
		r.UseCase(), r.TechnicalLevel())

	writeHistory(&sb, "The customer has previously responded as follows:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Given this context, simulate the probability distribution for their answer to: "%s"

    Consider these factors:
    - Overall product satisfaction
    - Specific experiences with the product
    - Technical expertise level
    - Use case requirements and expectations

    List probabilities for each option below, ensuring they total 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Provide a response in the following JSON format:
    {
        "relevant": boolean (true if the question aligns with their experience, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "A clear explanation of how the reviewer's profile informed the distribution"
    }

    If the question doesn't align with the reviewer's experience, set "relevant": false and leave other fields blank.
`)

	return sb.String(), surveyResponseSchema("product_reviewer_response_v2")
}

func buildProductReviewerPromptV3(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	r := p.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a simulation model for product review surveys.
    Your role is to predict the probability distribution of responses a customer might give, considering their experience with the product and their technical background.

    Review profile:
    - Product info: %s (%s)
    - Review summary: %s
    - Experience level: %s
    - Usage pattern: %s
    - Overall rating: %g/5
    - Highlighted features: %s
    - Reported issues: %s
    - Key themes identified: %s

    Previous interactions:
`,
		r.ProductName(), r.Category(), r.Summary, r.TechnicalLevel(), r.UseCase(), ratingOf(p),
		joined(r.Pros, ""), joined(r.Cons, ""), joined(r.Themes, "None specified"))

	writeHistory(&sb, "Context from earlier responses:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on the above, estimate the likelihood of their response to: "%s"

    Consider:
    - Product satisfaction level
    - Technical expertise and usage context
    - Specific experiences mentioned
    - Overall sentiment patterns

    Specify probabilities for each option, ensuring the total equals 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Deliver your output as a JSON object with the following structure:
    {
        "relevant": boolean (true if the question applies to their experience, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "Explanation of the probability distribution based on the reviewer's profile"
    }

    If the question is irrelevant, set "relevant": false and leave other fields blank.
`)

	return sb.String(), surveyResponseSchema("product_reviewer_response_v3")
}

func buildProductReviewerPromptV4(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	r := p.Product
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a survey response simulator for product reviews.
    Your task is to generate realistic probability distributions for how a customer with this profile would respond, considering their product experience and technical background.

    Customer and product profile:
    - Product reviewed: %s - %s
    - Review title: %s
    - Overall rating: %g/5
    - Product strengths: %s
    - Product weaknesses: %s
    - Technical proficiency: %s
    - Main themes: %s
    - Suggested improvements: %s

    Previous response history:
`,
		r.ProductName(), r.Category(), p.Title, ratingOf(p),
		joined(r.Pros, ""), joined(r.Cons, ""), r.TechnicalLevel(),
		joined(r.Themes, "None specified"), joined(r.Suggestions, "None provided"))

	writeHistory(&sb, "The reviewer has provided these previous responses:", p.ConversationHistory)

	fmt.Fprintf(&sb, `
    Based on this profile, simulate the probability distribution for how this customer would respond to: "%s"

    Consider:
    - Technical background and expertise level
    - Specific product experiences described
    - Overall satisfaction and rating given
    - Key themes and suggestions mentioned

    Provide probabilities for each option, ensuring they sum to 1:
`, question)
	writeOptions(&sb, options)

	sb.WriteString(`
    Return a JSON object with:
    {
        "relevant": boolean (true if question relates to their product experience, false otherwise),
        "option": {option1: probability, option2: probability, ...},
        "reason": "Detailed explanation of why this distribution makes sense for this reviewer"
    }

    If the question is not relevant to the reviewer's experience, set "relevant": false and leave other fields as empty strings.
`)

	return sb.String(), surveyResponseSchema("product_reviewer_response_v4")
}
