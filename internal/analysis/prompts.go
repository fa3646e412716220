package analysis

import "fmt"

func buildFactCheckPrompt(content, language string) string {
	return fmt.Sprintf(`You are a fact-checking expert. Analyze the following content written in %s and provide a detailed assessment.

CONTENT TO ANALYZE:
%s

Provide your analysis in the following JSON format:

{
  "credibility_score": <number between 0 and 1, where 1 is fully trustworthy>,
  "overall_credibility": "<high, medium, low, very_low or unverifiable>",
  "summary": "<overall summary of the analysis in 2-3 sentences>",
  "claims": [
    {
      "text": "<specific claim found in the content>",
      "veracity": "<true, false, partially true, unverifiable>",
      "confidence": <number between 0 and 1>,
      "explanation": "<detailed explanation of the assessment>"
    }
  ],
  "red_flags": [
    "<warning signs found, such as sensationalist language or missing sources>"
  ],
  "recommendations": [
    "<trustworthy sources to verify the information>"
  ]
}

IMPORTANT:
- Be objective and evidence based
- Identify every verifiable claim
- Point out logical inconsistencies or missing evidence
- Consider context and nuance
- Write the summary, explanations, red flags and recommendations in %s
- Respond ONLY with the JSON object, no additional text`, language, content, language)
}

func buildClaimsPrompt(content string) string {
	return fmt.Sprintf(`Extract every verifiable factual claim from the following text.

Return ONLY a JSON array of strings, without explanations.

Text:
%s

Claims (JSON array):`, content)
}

func buildConsistencyPrompt(content string) string {
	return fmt.Sprintf(`Analyze the logical and internal consistency of the following text.
Identify contradictions, inconsistencies or logical problems.

Text:
%s

Return ONLY a JSON object in the format:
{
  "is_consistent": <true or false>,
  "inconsistencies": ["inconsistencies found"],
  "logical_issues": ["logical problems identified"]
}`, content)
}
