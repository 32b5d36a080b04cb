package analytics

import (
	"encoding/json"
	"fmt"

	"survey-server/internal/models"
)

// Промпты мета-анализа. Для каждого типа анализа есть две базовые
// формулировки - под сотрудников и под обозревателей продуктов.

func alignmentPrompt(profileType models.ProfileType, responseData, distributionData string) string {
	base := employeeAlignmentBase
	if profileType == models.ProfileTypeProduct {
		base = productAlignmentBase
	}
	return fmt.Sprintf(`
        %s

        Survey Questions:
        %s

        Response Data:
        %s

        Return a JSON object with:
        {
            "most_aligned_group": {
                "group_name": string,
                "alignment_score": number,
                "member_count": number,
                "key_characteristics": List[string]
            },
            "alignment_patterns": [
                {
                    "group": string,
                    "score": number (0-1),
                    "size": number,
                    "common_traits": List[string]
                }
            ],
            "notable_outliers": [
                {
                    "description": string,
                    "reason": string
                }
            ]
        }
        `, base, distributionData, responseData)
}

func consistencyPrompt(profileType models.ProfileType, responseData, distributionData string) string {
	base := employeeConsistencyBase
	if profileType == models.ProfileTypeProduct {
		base = productConsistencyBase
	}
	return fmt.Sprintf(`
        %s

        Survey Questions:
        %s

        Response Data:
        %s

        Return a JSON object with:
        {
            "overall_consistency": {
                "score": number (0-1),
                "confidence_level": number (0-1),
                "influential_factors": List[string]
            },
            "consistency_by_group": [
                {
                    "group": string,
                    "consistency_score": number (0-1),
                    "pattern_description": string
                }
            ],
            "response_trends": [
                {
                    "trend_description": string,
                    "affected_groups": List[string],
                    "significance": number (0-1)
                }
            ]
        }
        `, base, distributionData, responseData)
}

func demographicPrompt(profileType models.ProfileType, responseData, distributionData string) string {
	base := employeeDemographicBase
	if profileType == models.ProfileTypeProduct {
		base = productDemographicBase
	}
	return fmt.Sprintf(`
        %s

        Survey Questions:
        %s

        Response Data:
        %s

        Return a JSON object with:
        {
            "role_based_insights": [
                {
                    "role_type": string,
                    "key_patterns": List[string],
                    "sentiment_score": number (0-1)
                }
            ],
            "experience_level_insights": [
                {
                    "level": string,
                    "typical_responses": string,
                    "significant_differences": List[string]
                }
            ],
            "demographic_correlations": [
                {
                    "factor": string,
                    "correlation_strength": number (0-1),
                    "description": string
                }
            ]
        }
        `, base, distributionData, responseData)
}

func keyFindingsPrompt(alignment, consistency, demographic json.RawMessage) string {
	return fmt.Sprintf(`
        Generate key findings based on the following analysis results:

        Alignment Analysis: %s
        Consistency Analysis: %s
        Demographic Analysis: %s

        Generate a concise summary of the most important findings.

        Return a JSON object with:
        {
            "primary_findings": [
                {
                    "title": string,
                    "description": string,
                    "significance": number (0-1),
                    "supporting_data": string
                }
            ],
            "statistical_metrics": {
                "confidence_level": number (0-1),
                "margin_of_error": number (0-1),
                "response_quality_score": number (0-1)
            },
            "recommendations": [
                {
                    "title": string,
                    "description": string,
                    "priority": number (0-1)
                }
            ]
        }
        `, alignment, consistency, demographic)
}

const employeeAlignmentBase = `Analyze the alignment patterns between different employee personas in their survey responses.
        Focus on identifying groups based on role, experience level, and workplace priorities.

        Consider these employee aspects:
        1. Job role and department
        2. Experience level and tenure
        3. Management level
        4. Work satisfaction factors
        5. Career development priorities
        6. Work-life balance needs
        7. Team collaboration preferences
        8. Company culture alignment

        Look for alignments in:
        - Job satisfaction factors
        - Management perceptions
        - Career growth expectations
        - Work-life balance priorities
        - Team dynamics preferences
        - Company culture views

        Identify employee groups based on:
        - Similar role responsibilities
        - Experience level patterns
        - Management perspectives
        - Career development needs
        - Work style preferences
        - Cultural alignment patterns`

const productAlignmentBase = `Analyze how different types of product users align in their responses to feature preferences
        and product satisfaction. Focus on identifying patterns based on use cases and technical requirements.

        Consider these user aspects:
        1. Technical expertise level (beginner to expert)
        2. Primary use cases (e.g., gaming, productivity, professional)
        3. Feature priorities and requirements
        4. Performance expectations
        5. Value perception and price sensitivity
        6. Integration needs and ecosystem compatibility
        7. Support requirements and expectations

        Look for alignments in:
        - Feature importance rankings
        - Performance requirements
        - Quality vs price tradeoffs
        - Technical sophistication needs
        - Integration requirements
        - Support expectations

        Identify user groups based on:
        - Similar use case requirements
        - Technical expertise levels
        - Feature priority patterns
        - Value assessment approaches`

const employeeConsistencyBase = `Analyze the consistency of responses across different questions for each employee persona.
        Focus on how views remain stable or change across various workplace aspects.

        Track consistency in these areas:
        1. Overall job satisfaction
        2. Management perception
        3. Career development views
        4. Work-life balance assessment
        5. Team dynamics
        6. Company culture

        Consider these factors:
        - Role influence on views
        - Experience level impact
        - Department culture
        - Location differences
        - Career stage

        Look for patterns in:
        - Satisfaction trend stability
        - Management view consistency
        - Career outlook changes
        - Work-life balance perception
        - Cultural alignment trends`

const productConsistencyBase = `Analyze the consistency of product reviews and feedback across different aspects of the product.
        Focus on how opinions evolve with usage experience and across different features.

        Track consistency in these areas:
        1. Feature satisfaction over time
        2. Performance expectations vs reality
        3. Value perception stability
        4. Technical issue impacts
        5. Support experience influence

        Consider these factors:
        - Usage duration impact
        - Technical expertise influence
        - Use case complexity
        - Problem resolution experience

        Look for patterns in:
        - Initial vs long-term impressions
        - Feature satisfaction stability
        - Performance assessment consistency
        - Value perception changes
        - Technical issue tolerance`

const employeeDemographicBase = `Analyze how different demographic and role-based groups respond to workplace factors.
        Focus on patterns based on experience level, role type, and other demographics.

        Analyze these employee segments:
        1. Role categories: individual contributors, team leads/managers, department heads, executive level
        2. Experience levels: entry level, mid-career, senior level, leadership
        3. Department types: technical roles, business functions, support services, administrative roles
        4. Location factors: office-based, remote workers, hybrid arrangement

        Consider these factors:
        - Career progression patterns
        - Management relationships
        - Work-life balance needs
        - Professional development
        - Team collaboration
        - Workplace flexibility`

const productDemographicBase = `Analyze how different user segments respond to product features and capabilities.
        Focus on patterns based on technical expertise, use cases, and requirements.

        Analyze these user segments:
        1. Technical proficiency levels: beginner, intermediate, advanced/power users, professional/enterprise users
        2. Use case categories: personal/home use, professional/work use, educational use, enterprise use
        3. Technical requirements: basic functionality, performance-focused, integration-dependent, customization-heavy
        4. Value perception groups: budget-conscious, premium feature, enterprise/volume, specialized need

        Consider these factors:
        - Feature priority patterns
        - Performance expectations
        - Support needs
        - Integration requirements
        - Price sensitivity`
