package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/smart-ats/internal/adapter/ai/tokencount"
)

func TestBuildJudgePrompt(t *testing.T) {
	t.Parallel()

	counter := tokencount.NewCounter()
	prompt := BuildJudgePrompt(counter, "RESUME BODY", "JD BODY", 6000)

	assert.Contains(t, prompt, "RESUME BODY")
	assert.Contains(t, prompt, "JD BODY")
	assert.Contains(t, prompt, `"jd_match"`)
	assert.Contains(t, prompt, "Return ONLY a valid JSON object")
}

func TestBuildJudgePrompt_TruncatesOversizedInputs(t *testing.T) {
	t.Parallel()

	counter := tokencount.NewCounter()
	resume := strings.Repeat("experience with distributed systems ", 2000)
	jd := strings.Repeat("kubernetes golang terraform ", 2000)

	prompt := BuildJudgePrompt(counter, resume, jd, 300)
	assert.Less(t, len(prompt), len(resume))
}
