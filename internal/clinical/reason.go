package clinical

import "strings"

// Enrich derives secondary fields from a fully extracted record: the
// clinical context summary, the differential diagnosis list, and the
// assessment/plan skeleton. It only adds fields; extraction-stage fields
// are never mutated.
func Enrich(info *MedicalInfo) {
	info.ClinicalContext = clinicalContext(info)
	info.DifferentialDiagnosis = differentialDiagnosis(info)
	info.AssessmentPlan = assessmentPlan(info)
}

func clinicalContext(info *MedicalInfo) string {
	var parts []string

	if age := info.Demographics.Age; age != nil {
		switch {
		case *age < 18:
			parts = append(parts, "pediatric patient")
		case *age > 65:
			parts = append(parts, "elderly patient")
		}
	}

	if len(info.Conditions) > 0 {
		parts = append(parts, "known "+strings.Join(info.Conditions, ", "))
	}

	if len(info.Medications) > 0 {
		parts = append(parts, "on current medications")
	}

	return strings.Join(parts, " with ")
}

// differentialRule pairs a predicate with the differentials it contributes.
// Rules are evaluated independently, never as a cascade, so adding a rule
// is purely additive.
type differentialRule struct {
	applies   func(*MedicalInfo) bool
	diagnoses []string
}

func complaintContains(substr string) func(*MedicalInfo) bool {
	return func(info *MedicalInfo) bool {
		return strings.Contains(strings.ToLower(info.ChiefComplaint), substr)
	}
}

var differentialRules = []differentialRule{
	{
		applies: complaintContains("chest pain"),
		diagnoses: []string{
			"Acute coronary syndrome",
			"Gastroesophageal reflux disease",
			"Musculoskeletal chest pain",
			"Pulmonary embolism",
		},
	},
	{
		applies: complaintContains("shortness of breath"),
		diagnoses: []string{
			"Congestive heart failure exacerbation",
			"COPD exacerbation",
			"Pneumonia",
			"Pulmonary embolism",
		},
	},
	{
		applies: complaintContains("abdominal pain"),
		diagnoses: []string{
			"Gastritis",
			"Acute appendicitis",
			"Cholecystitis",
			"Peptic ulcer disease",
		},
	},
	{
		applies: func(info *MedicalInfo) bool {
			return hasConditionContaining(info, "diabetes") && hasSymptom(info, "fatigue")
		},
		diagnoses: []string{
			"Poorly controlled diabetes mellitus",
			"Diabetic complications workup indicated",
		},
	},
}

// differentialDiagnosis fires every matching rule and deduplicates the
// union, preserving rule order.
func differentialDiagnosis(info *MedicalInfo) []string {
	var out []string
	seen := make(map[string]bool)
	for _, rule := range differentialRules {
		if !rule.applies(info) {
			continue
		}
		for _, dx := range rule.diagnoses {
			if seen[dx] {
				continue
			}
			seen[dx] = true
			out = append(out, dx)
		}
	}
	return out
}

type planBucket int

const (
	bucketDiagnostic planBucket = iota
	bucketTherapeutic
	bucketMonitoring
	bucketFollowUp
)

type planRule struct {
	applies func(*MedicalInfo) bool
	bucket  planBucket
	items   []string
}

func hasSymptom(info *MedicalInfo, term string) bool {
	for _, s := range info.Symptoms {
		if s == term {
			return true
		}
	}
	return false
}

func hasCondition(info *MedicalInfo, term string) bool {
	for _, c := range info.Conditions {
		if c == term {
			return true
		}
	}
	return false
}

func hasConditionContaining(info *MedicalInfo, substr string) bool {
	for _, c := range info.Conditions {
		if strings.Contains(c, substr) {
			return true
		}
	}
	return false
}

var planRules = []planRule{
	{
		applies: func(i *MedicalInfo) bool { return hasSymptom(i, "chest pain") },
		bucket:  bucketDiagnostic,
		items: []string{
			"12-lead EKG",
			"Chest X-ray",
			"Serial cardiac enzymes (troponin)",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasSymptom(i, "shortness of breath") },
		bucket:  bucketDiagnostic,
		items: []string{
			"Chest X-ray",
			"Arterial blood gas",
			"BNP level",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasSymptom(i, "abdominal pain") },
		bucket:  bucketDiagnostic,
		items: []string{
			"Complete blood count",
			"Comprehensive metabolic panel",
			"Abdominal imaging as indicated",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasSymptom(i, "fever") },
		bucket:  bucketDiagnostic,
		items: []string{
			"Blood cultures",
			"Urinalysis",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasCondition(i, "hypertension") },
		bucket:  bucketTherapeutic,
		items: []string{
			"Continue antihypertensive regimen; adjust per blood pressure response",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasConditionContaining(i, "diabetes") },
		bucket:  bucketTherapeutic,
		items: []string{
			"Continue glycemic control regimen; reinforce dietary counseling",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasCondition(i, "asthma") || hasCondition(i, "copd") },
		bucket:  bucketTherapeutic,
		items: []string{
			"Bronchodilator therapy as needed; assess inhaler technique",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasCondition(i, "hypertension") },
		bucket:  bucketMonitoring,
		items: []string{
			"Blood pressure monitoring",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return hasConditionContaining(i, "diabetes") },
		bucket:  bucketMonitoring,
		items: []string{
			"Blood glucose monitoring; periodic HbA1c",
		},
	},
	{
		applies: func(i *MedicalInfo) bool { return i.Vitals != nil && i.Vitals.OxygenSaturation != "" },
		bucket:  bucketMonitoring,
		items: []string{
			"Continuous pulse oximetry as clinically indicated",
		},
	},
}

// defaultFollowUp is always present regardless of which rules fire.
const defaultFollowUp = "Follow up with primary care provider to review findings and adjust management"

func assessmentPlan(info *MedicalInfo) AssessmentPlan {
	plan := AssessmentPlan{}
	for _, rule := range planRules {
		if !rule.applies(info) {
			continue
		}
		switch rule.bucket {
		case bucketDiagnostic:
			plan.Diagnostic = appendUnique(plan.Diagnostic, rule.items)
		case bucketTherapeutic:
			plan.Therapeutic = appendUnique(plan.Therapeutic, rule.items)
		case bucketMonitoring:
			plan.Monitoring = appendUnique(plan.Monitoring, rule.items)
		case bucketFollowUp:
			plan.FollowUp = appendUnique(plan.FollowUp, rule.items)
		}
	}
	plan.FollowUp = appendUnique(plan.FollowUp, []string{defaultFollowUp})
	return plan
}

func appendUnique(dst []string, items []string) []string {
	for _, item := range items {
		dup := false
		for _, existing := range dst {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, item)
		}
	}
	return dst
}
