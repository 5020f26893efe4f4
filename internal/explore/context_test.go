package explore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_IsReady(t *testing.T) {
	c := DefaultContext()
	assert.False(t, c.IsReady())

	c.Owner = "acme"
	assert.False(t, c.IsReady())

	c.Resource = "billing"
	assert.True(t, c.IsReady())

	c.Resource = "   "
	assert.False(t, c.IsReady(), "blank resource is not ready")
}

func TestContext_SelectType_ResetsResource(t *testing.T) {
	c := Context{Type: SourceRepo, Owner: "acme", Resource: "billing", Revision: "abc123"}

	jira := c.SelectType(SourceJira)
	assert.Equal(t, SourceJira, jira.Type)
	assert.Equal(t, "jira", jira.Resource)
	assert.Equal(t, "acme", jira.Owner, "owner is untouched")

	conf := jira.SelectType(SourceConfluence)
	assert.Equal(t, "confluence", conf.Resource)

	repo := conf.SelectType(SourceRepo)
	assert.Equal(t, "", repo.Resource, "repo name is free-form and cleared")
	assert.Equal(t, "acme", repo.Owner)
}

func TestContext_SelectListing(t *testing.T) {
	c := Context{Type: SourceJira, Owner: "PAYMENTS", Resource: "jira"}

	next, err := c.SelectListing("acme/billing")
	require.NoError(t, err)
	assert.Equal(t, SourceRepo, next.Type)
	assert.Equal(t, "acme", next.Owner)
	assert.Equal(t, "billing", next.Resource)
}

func TestContext_SelectListing_Invalid(t *testing.T) {
	c := DefaultContext()
	for _, fullName := range []string{"", "no-separator", "/name", "owner/"} {
		_, err := c.SelectListing(fullName)
		assert.Error(t, err, "full name %q", fullName)
	}
}

func TestContext_PinnedRevision(t *testing.T) {
	c := Context{Type: SourceRepo, Owner: "acme", Resource: "billing", Revision: "abc123"}
	assert.Equal(t, "abc123", c.PinnedRevision())

	c.Type = SourceJira
	assert.Equal(t, "", c.PinnedRevision(), "revision is ignored off repos")
}

func TestSourceType_Valid(t *testing.T) {
	assert.True(t, SourceRepo.Valid())
	assert.True(t, SourceJira.Valid())
	assert.True(t, SourceConfluence.Valid())
	assert.False(t, SourceType("gitlab").Valid())
}

func TestDocFormat_Titles(t *testing.T) {
	assert.Equal(t, "KTai_Notes", FormatDoc.Title())
	assert.Equal(t, "KTai_Slides", FormatSlides.Title())
	assert.False(t, DocFormat("pdf").Valid())
}
