package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFormat(t *testing.T) {
	t.Parallel()

	t.Run("email_and_sections_pass", func(t *testing.T) {
		t.Parallel()
		text := "jane@example.com\nExperience\nSkills"
		assert.Empty(t, CheckFormat(text))
	})

	t.Run("missing_email_is_critical", func(t *testing.T) {
		t.Parallel()
		issues := CheckFormat("Experience\nSkills")
		require.Len(t, issues, 1)
		assert.Equal(t, "ats_critical", issues[0].IssueType)
	})

	t.Run("missing_sections_is_structural", func(t *testing.T) {
		t.Parallel()
		issues := CheckFormat("jane@example.com\nDid things at places.")
		require.Len(t, issues, 1)
		assert.Equal(t, "ats_structure", issues[0].IssueType)
	})

	t.Run("one_section_keyword_suffices", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, CheckFormat("jane@example.com\nProfessional background"))
	})

	t.Run("at_most_one_issue_email_wins", func(t *testing.T) {
		t.Parallel()
		issues := CheckFormat("nothing useful here")
		require.Len(t, issues, 1)
		assert.Equal(t, "ats_critical", issues[0].IssueType)
	})
}
