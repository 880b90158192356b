package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichClinicalContext(t *testing.T) {
	age := func(n int) *int { return &n }

	tests := []struct {
		name string
		info MedicalInfo
		want string
	}{
		{
			name: "empty record",
			info: MedicalInfo{},
			want: "",
		},
		{
			name: "elderly with conditions and medications",
			info: MedicalInfo{
				Demographics: Demographics{Age: age(72)},
				Conditions:   []string{"hypertension", "diabetes"},
				Medications:  []string{"lisinopril"},
			},
			want: "elderly patient with known hypertension, diabetes with on current medications",
		},
		{
			name: "pediatric",
			info: MedicalInfo{Demographics: Demographics{Age: age(9)}},
			want: "pediatric patient",
		},
		{
			name: "adult age adds nothing",
			info: MedicalInfo{
				Demographics: Demographics{Age: age(40)},
				Conditions:   []string{"asthma"},
			},
			want: "known asthma",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			Enrich(&info)
			assert.Equal(t, tt.want, info.ClinicalContext)
		})
	}
}

func TestEnrichDifferentialDiagnosis(t *testing.T) {
	t.Run("chest pain complaint", func(t *testing.T) {
		info := MedicalInfo{ChiefComplaint: "Chest pain radiating to left arm"}
		Enrich(&info)
		assert.Equal(t, []string{
			"Acute coronary syndrome",
			"Gastroesophageal reflux disease",
			"Musculoskeletal chest pain",
			"Pulmonary embolism",
		}, info.DifferentialDiagnosis)
	})

	t.Run("overlapping rules deduplicate", func(t *testing.T) {
		// Both the chest pain and shortness of breath rules contribute
		// pulmonary embolism; it must appear once.
		info := MedicalInfo{ChiefComplaint: "chest pain and shortness of breath"}
		Enrich(&info)

		count := 0
		for _, dx := range info.DifferentialDiagnosis {
			if dx == "Pulmonary embolism" {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Contains(t, info.DifferentialDiagnosis, "Acute coronary syndrome")
		assert.Contains(t, info.DifferentialDiagnosis, "Pneumonia")
	})

	t.Run("diabetes with fatigue", func(t *testing.T) {
		info := MedicalInfo{
			Conditions: []string{"type 2 diabetes"},
			Symptoms:   []string{"fatigue"},
		}
		Enrich(&info)
		assert.Contains(t, info.DifferentialDiagnosis, "Poorly controlled diabetes mellitus")
	})

	t.Run("no matching rule leaves list empty", func(t *testing.T) {
		info := MedicalInfo{ChiefComplaint: "rash on forearm"}
		Enrich(&info)
		assert.Empty(t, info.DifferentialDiagnosis)
	})
}

func TestEnrichAssessmentPlan(t *testing.T) {
	t.Run("symptom driven diagnostics", func(t *testing.T) {
		info := MedicalInfo{Symptoms: []string{"chest pain", "fever"}}
		Enrich(&info)
		assert.Contains(t, info.AssessmentPlan.Diagnostic, "12-lead EKG")
		assert.Contains(t, info.AssessmentPlan.Diagnostic, "Blood cultures")
	})

	t.Run("condition driven therapy and monitoring", func(t *testing.T) {
		info := MedicalInfo{Conditions: []string{"hypertension", "type 2 diabetes"}}
		Enrich(&info)
		assert.Contains(t, info.AssessmentPlan.Therapeutic,
			"Continue antihypertensive regimen; adjust per blood pressure response")
		assert.Contains(t, info.AssessmentPlan.Monitoring, "Blood pressure monitoring")
		assert.Contains(t, info.AssessmentPlan.Monitoring, "Blood glucose monitoring; periodic HbA1c")
	})

	t.Run("oxygen saturation triggers pulse oximetry", func(t *testing.T) {
		info := MedicalInfo{Vitals: &Vitals{OxygenSaturation: "91"}}
		Enrich(&info)
		assert.Contains(t, info.AssessmentPlan.Monitoring, "Continuous pulse oximetry as clinically indicated")
	})

	t.Run("shared diagnostic items deduplicate", func(t *testing.T) {
		// Chest pain and shortness of breath both order a chest x-ray.
		info := MedicalInfo{Symptoms: []string{"chest pain", "shortness of breath"}}
		Enrich(&info)

		count := 0
		for _, item := range info.AssessmentPlan.Diagnostic {
			if item == "Chest X-ray" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("follow up always present", func(t *testing.T) {
		empty := MedicalInfo{}
		Enrich(&empty)
		require.Len(t, empty.AssessmentPlan.FollowUp, 1)
		assert.Equal(t, defaultFollowUp, empty.AssessmentPlan.FollowUp[0])
	})
}

func TestEnrichDoesNotMutateExtractionFields(t *testing.T) {
	info := MedicalInfo{
		ChiefComplaint: "chest pain",
		Symptoms:       []string{"chest pain"},
		Conditions:     []string{"hypertension"},
		Medications:    []string{"aspirin 81 mg"},
	}
	Enrich(&info)

	assert.Equal(t, "chest pain", info.ChiefComplaint)
	assert.Equal(t, []string{"chest pain"}, info.Symptoms)
	assert.Equal(t, []string{"hypertension"}, info.Conditions)
	assert.Equal(t, []string{"aspirin 81 mg"}, info.Medications)
}
