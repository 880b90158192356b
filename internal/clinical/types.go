package clinical

// DefaultChiefComplaint is used when no complaint can be detected or inferred.
const DefaultChiefComplaint = "General medical evaluation"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Demographics struct {
	Age    *int   `json:"age,omitempty"`
	Gender Gender `json:"gender,omitempty"`
	Race   string `json:"race,omitempty"`
}

// Vitals holds labeled vital-sign values as they appeared in the source text.
// A nil *Vitals means no vital sign was found; individual fields are empty
// when their pattern did not match.
type Vitals struct {
	BloodPressure    string `json:"blood_pressure,omitempty"`
	HeartRate        string `json:"heart_rate,omitempty"`
	Temperature      string `json:"temperature,omitempty"`
	RespiratoryRate  string `json:"respiratory_rate,omitempty"`
	OxygenSaturation string `json:"oxygen_saturation,omitempty"`
}

// AssessmentPlan buckets recommended actions by intent.
type AssessmentPlan struct {
	Diagnostic  []string `json:"diagnostic"`
	Therapeutic []string `json:"therapeutic"`
	Monitoring  []string `json:"monitoring"`
	FollowUp    []string `json:"follow_up"`
}

// MedicalInfo is the structured record populated from a single document.
// It is built in one synchronous pass: extraction fills the top section,
// enrichment adds the bottom section without touching extracted fields.
// Records carry no identity and are discarded after rendering.
type MedicalInfo struct {
	Demographics   Demographics `json:"demographics"`
	ChiefComplaint string       `json:"chief_complaint"`

	Symptoms    []string `json:"symptoms"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
	Procedures  []string `json:"procedures"`

	Vitals          *Vitals           `json:"vitals,omitempty"`
	Labs            map[string]string `json:"labs,omitempty"`
	Imaging         []string          `json:"imaging,omitempty"`
	Allergies       string            `json:"allergies,omitempty"`
	SocialHistory   string            `json:"social_history,omitempty"`
	FamilyHistory   []string          `json:"family_history,omitempty"`
	ReviewOfSystems []string          `json:"review_of_systems,omitempty"`
	PhysicalExam    []string          `json:"physical_exam,omitempty"`
	Timeline        []string          `json:"timeline,omitempty"`

	// Populated by Enrich, never by the extractor.
	ClinicalContext       string         `json:"clinical_context,omitempty"`
	DifferentialDiagnosis []string       `json:"differential_diagnosis,omitempty"`
	AssessmentPlan        AssessmentPlan `json:"assessment_plan"`
}

// Options controls report rendering. DetailLevel is echoed verbatim in the
// metadata footer and is not validated.
type Options struct {
	OutputFormat       string `json:"output_format"`
	DetailLevel        string `json:"detail_level"`
	IncludeICD10       bool   `json:"include_icd10"`
	IncludeMedications bool   `json:"include_medications"`
}

// Format selects a report template.
type Format string

const (
	FormatSOAP       Format = "soap"
	FormatNarrative  Format = "narrative"
	FormatStructured Format = "structured"
)

// ParseFormat resolves a requested output format. Unknown or empty values
// default to SOAP rather than failing.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatNarrative:
		return FormatNarrative
	case FormatStructured:
		return FormatStructured
	default:
		return FormatSOAP
	}
}
