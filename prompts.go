package main

import "fmt"

// One template per pipeline stage plus the synthesis and chat system
// prompts. The stage prompts instruct the model to answer with a bare
// category name or a small JSON object; validate.go enforces the
// allow-lists afterwards.

func buildClassificationPrompt(comment, benefitType string, score int) string {
	return fmt.Sprintf(`You are an expert HR analyst. Classify this employee feedback into exactly ONE of these categories:

Categories:
- Process Issues: Complicated procedures, reimbursement delays, difficult processes
- Coverage Issues: Inadequate benefits, poor service quality, coverage gaps
- Benefit Value: Cost concerns, location limitations, membership issues

Employee Feedback: %s
Benefit Type: %s
Satisfaction Score: %d/5

Respond with only the category name:`, comment, benefitType, score)
}

func buildSentimentPrompt(comment string, score int) string {
	return fmt.Sprintf(`Analyze the sentiment and severity of this employee feedback.

Sentiment: positive, negative, or neutral
Severity: 1-5 scale (1=minor, 5=critical issue requiring immediate attention)

Feedback: %s
Satisfaction Score: %d/5

Respond with JSON only (no markdown): {"sentiment": "neutral", "severity": 4}`, comment, score)
}

func buildActionPrompt(category, benefitType, sentiment string, severity int, comment string) string {
	return fmt.Sprintf(`Based on the feedback analysis, identify a specific actionable task.

Category: %s
Benefit: %s
Sentiment: %s
Severity: %d
Employee Comment: %s

Provide a specific, actionable task (not generic advice):`, category, benefitType, sentiment, severity, comment)
}

// The severity-to-priority mapping below is advisory for the model;
// route answers are validated against the label set only.
func buildRoutingPrompt(action, category, benefitType string, severity int) string {
	return fmt.Sprintf(`Route this task to the appropriate department and assign priority level.

Available Departments:
- Benefits Administration: Process improvements, reimbursements
- HR Benefits Team: Health insurance, life insurance, policy changes
- Vendor Management: Third-party services, gym memberships, external providers

Priority Levels: high (severity 4-5), medium (severity 3), low (severity 1-2)

Task: %s
Issue Category: %s
Benefit Type: %s
Severity Level: %d

Respond with JSON only (no markdown): {"department": "Benefits Administration", "priority": "low"}`, action, category, benefitType, severity)
}

func buildSynthesisPrompt(categories, highPriorityCount, problematicAreas string) string {
	return fmt.Sprintf(`Analyze the overall feedback patterns and provide strategic recommendations.

Data Summary:
- Category Distribution: %s
- High Priority Issues: %s items
- Top Problem Areas: %s

Provide exactly 3 strategic recommendations prioritized by impact and feasibility.
Include specific benefit cuts if data shows consistent negative feedback.
Focus on actionable changes that will improve employee satisfaction.

Format each recommendation as a bullet point.`, categories, highPriorityCount, problematicAreas)
}

// buildChatSystemPrompt renders the system message for the policy chat.
// Rebuilt from scratch on every turn so a changed employee context or
// policy blob takes effect immediately.
func buildChatSystemPrompt(companyName, employeeContext, policies string) string {
	return fmt.Sprintf(`You are %[1]s's AI assistant specializing in employee policies.

ROLE: Translate complex policies into clear, actionable advice
STYLE: Professional yet conversational, concise but complete
PERSONALIZATION: Tailor all responses to this employee profile: %[2]s

GUIDELINES:
- Use simple language, avoid jargon
- Give specific numbers, dates, and examples
- Focus on what matters most to THIS employee
- Keep responses under 150 words unless complex calculations needed
- Always explain "why this matters to you"
- If a policy doesn't apply to this employee, explain why

Use this policy info: %[3]s`, companyName, employeeContext, policies)
}
