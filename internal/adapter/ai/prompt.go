package ai

import (
	"fmt"

	"github.com/fairyhunter13/smart-ats/internal/adapter/ai/tokencount"
)

const judgePromptTemplate = `Act as an expert ATS (Application Tracking System) with deep knowledge in recruitment,
HR analytics, and professional resume evaluation. Analyze the provided resume against
the job description with the highest accuracy and professional insight.

**ANALYSIS REQUIREMENTS:**
1. Calculate precise percentage match (0-100) based on skills, experience, and requirements alignment
2. Focus primarily on technical skills, experience relevance, and job requirement matches
3. Identify specific missing keywords that are critical for the role
4. Provide constructive career-focused recommendations and avoid detailed grammar analysis
5. Consider industry standards and current job market competitiveness
6. Emphasize content substance, skill alignment, and career development over writing mechanics
7. Prioritize ATS compatibility and keyword optimization over linguistic perfection

**RESUME:**
%s

**JOB DESCRIPTION:**
%s

**REQUIRED OUTPUT FORMAT (JSON):**
Return ONLY a valid JSON object with these exact fields:
{
    "jd_match": 75,
    "missing_keywords": ["Python", "Machine Learning", "SQL"],
    "profile_summary": "Professional analysis focusing on career alignment and skill gaps with actionable career advice",
    "strengths": ["Strong technical background", "Relevant experience"],
    "weaknesses": ["Missing cloud experience", "Limited leadership background"],
    "recommendations": ["Add cloud certifications", "Highlight team collaboration"]
}

CRITICAL REQUIREMENTS:
- jd_match must be a single number between 0-100 (not a list or string)
- missing_keywords must be an array of strings
- All fields are required
- Return only the JSON object, no additional text

**IMPORTANT:** Focus exclusively on career development, skill gaps, and ATS optimization.
Do NOT analyze grammar, writing style, or linguistic elements.
Provide actionable insights for improving job match percentage and career advancement.`

// BuildJudgePrompt renders the fixed-structure judge prompt. The resume and
// job description are truncated to fit the token budget (resume gets two
// thirds, job description one third) so oversized inputs cannot blow the
// judge's context window.
func BuildJudgePrompt(counter *tokencount.Counter, resumeText, jobDescription string, tokenBudget int) string {
	if counter != nil && tokenBudget > 0 {
		resumeBudget := tokenBudget * 2 / 3
		jdBudget := tokenBudget - resumeBudget
		resumeText = counter.Truncate(resumeText, resumeBudget)
		jobDescription = counter.Truncate(jobDescription, jdBudget)
	}
	return fmt.Sprintf(judgePromptTemplate, resumeText, jobDescription)
}
