package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"precision-medicine-server/internal/domain"
)

func TestExtractDiabetesReport(t *testing.T) {
	bag := Extract("Patient with type 2 Diabetes, currently on Metformin 500mg.")

	assert.Equal(t, []string{"diabetes"}, bag.Diseases)
	assert.Equal(t, []string{"metformin"}, bag.Medications)
	assert.Empty(t, bag.Symptoms)
	assert.Empty(t, bag.Genes)
}

func TestExtractEmptyTextYieldsEmptyCategories(t *testing.T) {
	bag := Extract("")

	assert.True(t, bag.IsEmpty())
	assert.NotNil(t, bag.Diseases)
	assert.NotNil(t, bag.LabValues)
}

func TestExtractLabValuesUsePlaceholder(t *testing.T) {
	bag := Extract("Fasting GLUCOSE elevated; hemoglobin within range.")

	assert.Equal(t, []domain.LabValue{
		{Name: "hemoglobin", Value: DetectedValue, Unit: "g/dL"},
		{Name: "glucose", Value: DetectedValue, Unit: "mg/dL"},
	}, bag.LabValues)
}

func TestExtractGenesAreCaseSensitive(t *testing.T) {
	bag := Extract("BRCA1 variant found. We will ret the sample and brca2 is negative.")

	assert.Equal(t, []string{"BRCA1"}, bag.Genes)
}

func TestExtractKeepsScanOrderAndOverlaps(t *testing.T) {
	bag := Extract("history of hyperthyroidism with severe headache")

	// "pain" is not present, "headache" is; hyperthyroidism does not contain hypothyroidism.
	assert.Equal(t, []string{"hyperthyroidism"}, bag.Diseases)
	assert.Equal(t, []string{"headache"}, bag.Symptoms)
}

func TestExtractIsMonotonicInKeywordPresence(t *testing.T) {
	base := "Routine check. No complaints."
	for _, kw := range diseaseKeywords {
		t.Run(kw, func(t *testing.T) {
			before := Extract(base)
			after := Extract(base + " Diagnosed: " + kw + ".")

			assert.Len(t, after.Diseases, len(before.Diseases)+countContaining(kw, diseaseKeywords))
			assert.Contains(t, after.Diseases, kw)

			removed := Extract(strings.ReplaceAll(base+" "+kw, kw, ""))
			assert.NotContains(t, removed.Diseases, kw)
		})
	}
}

// countContaining counts keywords that are substrings of kw, including kw itself.
func countContaining(kw string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(kw, k) {
			n++
		}
	}
	return n
}
