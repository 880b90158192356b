package clinical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var renderTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func renderFor(t *testing.T, info *MedicalInfo, opts Options) string {
	t.Helper()
	return Render(NewKnowledgeBase(), info, opts, "note.txt", renderTime)
}

func TestRenderICD10Gating(t *testing.T) {
	info := &MedicalInfo{
		ChiefComplaint: "Chest pain",
		Symptoms:       []string{"chest pain"},
		Conditions:     []string{"hypertension"},
	}

	t.Run("codes appear when enabled", func(t *testing.T) {
		out := renderFor(t, info, Options{IncludeICD10: true})
		assert.Contains(t, out, "Hypertension (I10)")
		assert.Contains(t, out, "Chest pain (R07.9)")
	})

	t.Run("no code token when disabled", func(t *testing.T) {
		out := renderFor(t, info, Options{IncludeICD10: false})
		assert.Contains(t, out, "Hypertension")
		assert.NotContains(t, out, "(I10)")
		assert.NotContains(t, out, "(R07.9)")
		assert.NotContains(t, out, CodeUndetermined)
	})

	t.Run("unmapped term gets placeholder code", func(t *testing.T) {
		out := renderFor(t, &MedicalInfo{Conditions: []string{"benign positional quirk"}}, Options{IncludeICD10: true})
		assert.Contains(t, out, "Benign positional quirk ("+CodeUndetermined+")")
	})
}

func TestRenderMedicationsFlag(t *testing.T) {
	info := &MedicalInfo{Medications: []string{"metformin 500mg"}}

	t.Run("included", func(t *testing.T) {
		out := renderFor(t, info, Options{IncludeMedications: true})
		assert.Contains(t, out, "Metformin 500mg")
	})

	t.Run("omitted", func(t *testing.T) {
		out := renderFor(t, info, Options{IncludeMedications: false})
		assert.NotContains(t, out, "Metformin")
		assert.Contains(t, out, fallbackMedsOmitted)
	})

	t.Run("enabled but none found", func(t *testing.T) {
		out := renderFor(t, &MedicalInfo{}, Options{IncludeMedications: true})
		assert.Contains(t, out, fallbackMedsNone)
	})
}

func TestRenderPlaceholderFallbacks(t *testing.T) {
	// A fully empty record still renders every section.
	out := renderFor(t, &MedicalInfo{}, Options{})

	for _, fallback := range []string{
		fallbackDemographics,
		fallbackSymptoms,
		fallbackHistory,
		fallbackAllergies,
		fallbackSocial,
		fallbackFamily,
		fallbackROS,
		fallbackVitals,
		fallbackLabs,
		fallbackImaging,
		fallbackExam,
		fallbackTimeline,
		fallbackContext,
		fallbackDifferential,
	} {
		assert.Contains(t, out, fallback)
	}
}

func TestRenderFormats(t *testing.T) {
	info := &MedicalInfo{ChiefComplaint: "Headache"}

	t.Run("soap", func(t *testing.T) {
		out := renderFor(t, info, Options{OutputFormat: "soap"})
		assert.Contains(t, out, "CLINICAL REPORT - SOAP FORMAT")
		assert.Contains(t, out, "SUBJECTIVE:")
		assert.Contains(t, out, "OBJECTIVE:")
		assert.Contains(t, out, "ASSESSMENT:")
		assert.Contains(t, out, "PLAN:")
	})

	t.Run("narrative", func(t *testing.T) {
		out := renderFor(t, info, Options{OutputFormat: "narrative"})
		assert.Contains(t, out, "CLINICAL NARRATIVE REPORT")
	})

	t.Run("structured", func(t *testing.T) {
		out := renderFor(t, info, Options{OutputFormat: "structured"})
		assert.Contains(t, out, "STRUCTURED CLINICAL REPORT")
		assert.Contains(t, out, "[CHIEF COMPLAINT]")
	})

	t.Run("unknown format falls back to soap", func(t *testing.T) {
		out := renderFor(t, info, Options{OutputFormat: "yaml"})
		assert.Contains(t, out, "CLINICAL REPORT - SOAP FORMAT")
		assert.Contains(t, out, "Output Format: soap")
	})
}

func TestRenderVitalsUnits(t *testing.T) {
	info := &MedicalInfo{
		Vitals: &Vitals{
			BloodPressure:    "150/90",
			HeartRate:        "88",
			Temperature:      "98.6",
			RespiratoryRate:  "18",
			OxygenSaturation: "96",
		},
	}
	out := renderFor(t, info, Options{})

	assert.Contains(t, out, "BP: 150/90 mmHg")
	assert.Contains(t, out, "HR: 88 bpm")
	assert.Contains(t, out, "Temp: 98.6 F")
	assert.Contains(t, out, "RR: 18 breaths/min")
	assert.Contains(t, out, "SpO2: 96%")
}

func TestRenderLabsSorted(t *testing.T) {
	info := &MedicalInfo{
		Labs: map[string]string{
			"WBC":     "11.2",
			"Glucose": "140",
			"Sodium":  "138",
		},
	}
	out := renderFor(t, info, Options{OutputFormat: "structured"})

	glucose := strings.Index(out, "Glucose: 140")
	sodium := strings.Index(out, "Sodium: 138")
	wbc := strings.Index(out, "WBC: 11.2")
	require.True(t, glucose >= 0 && sodium >= 0 && wbc >= 0)
	assert.Less(t, glucose, sodium)
	assert.Less(t, sodium, wbc)
}

func TestRenderDisclaimerAndFooter(t *testing.T) {
	opts := Options{
		OutputFormat:       "narrative",
		DetailLevel:        "comprehensive",
		IncludeICD10:       true,
		IncludeMedications: true,
	}
	for _, format := range []string{"soap", "narrative", "structured"} {
		opts.OutputFormat = format
		out := renderFor(t, &MedicalInfo{}, opts)

		assert.Contains(t, out, "DISCLAIMER:", "format %s", format)
		assert.Contains(t, out, "REPORT METADATA", "format %s", format)
		assert.Contains(t, out, "Source File: note.txt")
		assert.Contains(t, out, "Generated At: 2026-03-14T09:30:00Z")
		assert.Contains(t, out, "Output Format: "+format)
		assert.Contains(t, out, "Detail Level: comprehensive")
		assert.Contains(t, out, "Include ICD-10 Codes: true")
		assert.Contains(t, out, "Include Medications: true")
	}
}
