package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job_fetcher/internal/domain"
)

func TestWithinSource(t *testing.T) {
	listings := []domain.Listing{
		{ExternalID: "X", Source: "S", Title: "first"},
		{ExternalID: "X", Source: "S", Title: "second"},
		{ExternalID: "X", Source: "T", Title: "other source"},
		{ExternalID: "Y", Source: "S", Title: "other id"},
	}

	got := WithinSource(listings)

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "other source", got[1].Title)
	assert.Equal(t, "other id", got[2].Title)
}

func TestCrossSource_KeepsFirstByOrder(t *testing.T) {
	listings := []domain.Listing{
		{ExternalID: "a1", Source: "Adzuna", Title: "Senior  Engineer ", Company: "Acme Corp"},
		{ExternalID: "g1", Source: "Google Jobs", Title: "senior engineer", Company: "  ACME   corp"},
		{ExternalID: "g2", Source: "Google Jobs", Title: "Senior Engineer", Company: "Globex"},
	}

	got := CrossSource(listings)

	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ExternalID)
	assert.Equal(t, "g2", got[1].ExternalID)
}

func TestCrossSource_DoesNotMergeRetitledRoles(t *testing.T) {
	listings := []domain.Listing{
		{ExternalID: "a1", Source: "Adzuna", Title: "Senior Software Engineer", Company: "Acme"},
		{ExternalID: "g1", Source: "Google Jobs", Title: "Sr. Software Engineer", Company: "Acme"},
	}

	assert.Len(t, CrossSource(listings), 2)
}

func TestCrossSource_Empty(t *testing.T) {
	assert.Empty(t, CrossSource(nil))
	assert.Empty(t, WithinSource(nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "senior .net developer", Normalize("  Senior\t.NET \n Developer  "))
	assert.Equal(t, "", Normalize("   "))
}
