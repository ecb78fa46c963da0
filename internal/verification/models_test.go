package verification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certguard/pkg/domain-errors"
)

func TestCoverageUnmarshalDetails(t *testing.T) {
	t.Run("liability line decodes liability details", func(t *testing.T) {
		var c Coverage
		err := json.Unmarshal([]byte(`{
			"type": "public_liability",
			"limit": 20000000,
			"limit_type": "per_occurrence",
			"excess": 5000,
			"details": {"principal_indemnity": true, "cross_liability": true}
		}`), &c)
		require.NoError(t, err)

		d, ok := c.Liability()
		require.True(t, ok)
		assert.True(t, d.PrincipalIndemnity)
		assert.True(t, d.CrossLiability)
		assert.False(t, d.WaiverOfSubrogation)
	})

	t.Run("workers comp line decodes state details", func(t *testing.T) {
		var c Coverage
		err := json.Unmarshal([]byte(`{
			"type": "workers_comp",
			"limit": 50000000,
			"details": {"state": "NSW", "employer_indemnity": true}
		}`), &c)
		require.NoError(t, err)

		d, ok := c.WorkersComp()
		require.True(t, ok)
		assert.Equal(t, "NSW", d.State)
		assert.True(t, d.EmployerIndemnity)

		_, ok = c.Liability()
		assert.False(t, ok)
	})

	t.Run("absent and null details stay nil", func(t *testing.T) {
		for _, payload := range []string{
			`{"type": "public_liability", "limit": 1000000}`,
			`{"type": "public_liability", "limit": 1000000, "details": null}`,
		} {
			var c Coverage
			require.NoError(t, json.Unmarshal([]byte(payload), &c))
			assert.Nil(t, c.Details)
		}
	})
}

func TestExtractedPolicyDataValidate(t *testing.T) {
	valid := ExtractedPolicyData{
		PeriodEnd:       time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		ConfidenceScore: 0.9,
		Coverages:       []Coverage{{Type: CoveragePublicLiability, Limit: 1}},
	}
	assert.NoError(t, valid.Validate())

	t.Run("zero period end rejected", func(t *testing.T) {
		e := valid
		e.PeriodEnd = time.Time{}
		err := e.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("confidence out of range rejected", func(t *testing.T) {
		for _, score := range []float64{-0.1, 1.1} {
			e := valid
			e.ConfidenceScore = score
			assert.Error(t, e.Validate())
		}
	})

	t.Run("unknown coverage type rejected", func(t *testing.T) {
		e := valid
		e.Coverages = []Coverage{{Type: CoverageType("flood")}}
		err := e.Validate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
