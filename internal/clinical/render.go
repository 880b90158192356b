package clinical

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Section fallbacks. Every template section renders one of these when its
// backing data is absent, so a report is always complete and well-formed.
const (
	fallbackDemographics = "Demographics not documented"
	fallbackSymptoms     = "No specific symptoms documented"
	fallbackHistory      = "No significant past medical history documented"
	fallbackMedsOmitted  = "No medications documented"
	fallbackMedsNone     = "No current medications identified"
	fallbackAllergies    = "No known allergies documented"
	fallbackSocial       = "Social history not documented"
	fallbackFamily       = "Family history not documented"
	fallbackROS          = "Review of systems not documented"
	fallbackVitals       = "Vital signs to be obtained during clinical encounter"
	fallbackLabs         = "Laboratory studies pending"
	fallbackImaging      = "No imaging studies documented"
	fallbackExam         = "Physical examination to be performed"
	fallbackTimeline     = "Onset and course not specified"
	fallbackContext      = "Clinical context to be established"
	fallbackDifferential = "Differential diagnosis to be refined after clinical evaluation"
	fallbackProcedures   = "No procedures documented"
)

// sections holds every logical report section rendered once from the
// record. The three templates arrange and label the same values; none of
// them recomputes a section.
type sections struct {
	demographics string
	complaint    string
	timeline     string
	symptoms     string
	history      []string
	medications  []string
	procedures   []string
	allergies    string
	social       string
	family       string
	ros          string
	vitals       []string
	labs         []string
	imaging      []string
	exam         string
	context      string
	differential []string
	plan         AssessmentPlan
}

func buildSections(kb *KnowledgeBase, info *MedicalInfo, opts Options) *sections {
	s := &sections{
		complaint: info.ChiefComplaint,
		plan:      info.AssessmentPlan,
	}

	s.demographics = formatDemographics(info.Demographics)
	s.timeline = orFallback(strings.Join(info.Timeline, "; "), fallbackTimeline)
	s.symptoms = orFallback(joinTerms(kb, info.Symptoms, opts.IncludeICD10), fallbackSymptoms)

	if len(info.Conditions) > 0 {
		for _, c := range info.Conditions {
			s.history = append(s.history, formatTerm(kb, c, opts.IncludeICD10))
		}
	} else {
		s.history = []string{fallbackHistory}
	}

	switch {
	case !opts.IncludeMedications:
		s.medications = []string{fallbackMedsOmitted}
	case len(info.Medications) == 0:
		s.medications = []string{fallbackMedsNone}
	default:
		for _, m := range info.Medications {
			s.medications = append(s.medications, capitalize(m))
		}
	}

	if len(info.Procedures) > 0 {
		for _, p := range info.Procedures {
			s.procedures = append(s.procedures, capitalize(p))
		}
	} else {
		s.procedures = []string{fallbackProcedures}
	}

	s.allergies = orFallback(info.Allergies, fallbackAllergies)
	s.social = orFallback(info.SocialHistory, fallbackSocial)
	s.family = orFallback(strings.Join(info.FamilyHistory, "; "), fallbackFamily)
	s.ros = orFallback(strings.Join(info.ReviewOfSystems, "; "), fallbackROS)

	s.vitals = formatVitals(info.Vitals)
	s.labs = formatLabs(info.Labs)

	if len(info.Imaging) > 0 {
		s.imaging = info.Imaging
	} else {
		s.imaging = []string{fallbackImaging}
	}

	s.exam = orFallback(strings.Join(info.PhysicalExam, "; "), fallbackExam)
	s.context = orFallback(info.ClinicalContext, fallbackContext)

	if len(info.DifferentialDiagnosis) > 0 {
		s.differential = info.DifferentialDiagnosis
	} else {
		s.differential = []string{fallbackDifferential}
	}

	return s
}

func formatDemographics(d Demographics) string {
	var parts []string
	if d.Age != nil {
		parts = append(parts, fmt.Sprintf("%d-year-old", *d.Age))
	}
	if d.Race != "" {
		parts = append(parts, strings.ToLower(d.Race))
	}
	if d.Gender != "" {
		parts = append(parts, string(d.Gender))
	}
	if len(parts) == 0 {
		return fallbackDemographics
	}
	return capitalize(strings.Join(parts, " ") + " patient")
}

// formatTerm annotates a dictionary term with its diagnostic code, but only
// when the ICD-10 flag is set; with the flag off no code token appears
// anywhere in the output.
func formatTerm(kb *KnowledgeBase, term string, includeICD10 bool) string {
	if !includeICD10 {
		return capitalize(term)
	}
	return fmt.Sprintf("%s (%s)", capitalize(term), kb.DiagnosticCode(term))
}

func joinTerms(kb *KnowledgeBase, terms []string, includeICD10 bool) string {
	if len(terms) == 0 {
		return ""
	}
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, formatTerm(kb, t, includeICD10))
	}
	return strings.Join(out, ", ")
}

func formatVitals(v *Vitals) []string {
	if v == nil {
		return []string{fallbackVitals}
	}
	var lines []string
	if v.BloodPressure != "" {
		lines = append(lines, "BP: "+v.BloodPressure+" mmHg")
	}
	if v.HeartRate != "" {
		lines = append(lines, "HR: "+v.HeartRate+" bpm")
	}
	if v.Temperature != "" {
		lines = append(lines, "Temp: "+v.Temperature+" F")
	}
	if v.RespiratoryRate != "" {
		lines = append(lines, "RR: "+v.RespiratoryRate+" breaths/min")
	}
	if v.OxygenSaturation != "" {
		lines = append(lines, "SpO2: "+v.OxygenSaturation+"%")
	}
	return lines
}

// formatLabs renders lab values in sorted key order so repeated calls over
// the same record produce identical output.
func formatLabs(labs map[string]string) []string {
	if len(labs) == 0 {
		return []string{fallbackLabs}
	}
	names := make([]string, 0, len(labs))
	for name := range labs {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+labs[name])
	}
	return lines
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// Render produces the final report text for the requested format. Unknown
// formats fall back to SOAP. The disclaimer and the metadata footer are
// appended uniformly after whichever template body was produced.
func Render(kb *KnowledgeBase, info *MedicalInfo, opts Options, fileName string, generatedAt time.Time) string {
	s := buildSections(kb, info, opts)

	var body string
	switch ParseFormat(opts.OutputFormat) {
	case FormatNarrative:
		body = renderNarrative(s)
	case FormatStructured:
		body = renderStructured(s)
	default:
		body = renderSOAP(s)
	}

	return body + disclaimer + metadataFooter(fileName, generatedAt, opts)
}

func renderSOAP(s *sections) string {
	var b strings.Builder

	b.WriteString("CLINICAL REPORT - SOAP FORMAT\n")
	b.WriteString("=============================\n\n")

	b.WriteString("SUBJECTIVE:\n")
	b.WriteString("Patient: " + s.demographics + "\n")
	b.WriteString("Chief Complaint: " + s.complaint + "\n")
	b.WriteString("Onset/Timeline: " + s.timeline + "\n")
	b.WriteString("Symptoms: " + s.symptoms + "\n")
	b.WriteString("Past Medical History:\n")
	writeBullets(&b, s.history)
	b.WriteString("Medications:\n")
	writeBullets(&b, s.medications)
	b.WriteString("Allergies: " + s.allergies + "\n")
	b.WriteString("Social History: " + s.social + "\n")
	b.WriteString("Family History: " + s.family + "\n")
	b.WriteString("Review of Systems: " + s.ros + "\n")

	b.WriteString("\nOBJECTIVE:\n")
	b.WriteString("Vital Signs:\n")
	writeBullets(&b, s.vitals)
	b.WriteString("Laboratory Results:\n")
	writeBullets(&b, s.labs)
	b.WriteString("Imaging:\n")
	writeBullets(&b, s.imaging)
	b.WriteString("Physical Exam: " + s.exam + "\n")

	b.WriteString("\nASSESSMENT:\n")
	b.WriteString("Clinical Context: " + s.context + "\n")
	b.WriteString("Differential Diagnosis:\n")
	writeNumbered(&b, s.differential)

	b.WriteString("\nPLAN:\n")
	writePlan(&b, s.plan)

	return b.String()
}

func renderNarrative(s *sections) string {
	var b strings.Builder

	b.WriteString("CLINICAL NARRATIVE REPORT\n")
	b.WriteString("=========================\n\n")

	b.WriteString(s.demographics + " presenting with " + lowerFirst(s.complaint) + ". ")
	b.WriteString("Onset and course: " + lowerFirst(s.timeline) + ".\n\n")

	b.WriteString("Reported symptoms include: " + s.symptoms + ". ")
	b.WriteString("Past medical history is notable for: " + strings.Join(s.history, "; ") + ". ")
	b.WriteString("Current medications: " + strings.Join(s.medications, "; ") + ". ")
	b.WriteString("Allergies: " + s.allergies + ".\n\n")

	b.WriteString("Social history: " + s.social + ". ")
	b.WriteString("Family history: " + s.family + ". ")
	b.WriteString("Review of systems: " + s.ros + ".\n\n")

	b.WriteString("On objective evaluation - " + strings.Join(s.vitals, "; ") + ". ")
	b.WriteString("Laboratory results: " + strings.Join(s.labs, "; ") + ". ")
	b.WriteString("Imaging: " + strings.Join(s.imaging, "; ") + ". ")
	b.WriteString("Physical exam: " + s.exam + ".\n\n")

	b.WriteString("Clinical impression: " + s.context + ". ")
	b.WriteString("Differential considerations include: " + strings.Join(s.differential, "; ") + ".\n\n")

	b.WriteString("Recommended plan:\n")
	writePlan(&b, s.plan)

	return b.String()
}

func renderStructured(s *sections) string {
	var b strings.Builder

	b.WriteString("STRUCTURED CLINICAL REPORT\n")
	b.WriteString("==========================\n\n")

	section := func(title string, lines []string) {
		b.WriteString("[" + title + "]\n")
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	section("PATIENT PROFILE", []string{s.demographics})
	section("CHIEF COMPLAINT", []string{s.complaint})
	section("TIMELINE", []string{s.timeline})
	section("SYMPTOMS", []string{s.symptoms})
	section("PAST MEDICAL HISTORY", s.history)
	section("MEDICATIONS", s.medications)
	section("PROCEDURES", s.procedures)
	section("ALLERGIES", []string{s.allergies})
	section("SOCIAL HISTORY", []string{s.social})
	section("FAMILY HISTORY", []string{s.family})
	section("REVIEW OF SYSTEMS", []string{s.ros})
	section("VITAL SIGNS", s.vitals)
	section("LABORATORY RESULTS", s.labs)
	section("IMAGING", s.imaging)
	section("PHYSICAL EXAM", []string{s.exam})
	section("CLINICAL CONTEXT", []string{s.context})
	section("DIFFERENTIAL DIAGNOSIS", s.differential)

	b.WriteString("[PLAN]\n")
	writePlan(&b, s.plan)

	return b.String()
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
}

func writeNumbered(b *strings.Builder, lines []string) {
	for i, line := range lines {
		fmt.Fprintf(b, "  %d. %s\n", i+1, line)
	}
}

func writePlan(b *strings.Builder, plan AssessmentPlan) {
	writePlanBucket(b, "Diagnostic", plan.Diagnostic, "Diagnostic workup per clinical judgment")
	writePlanBucket(b, "Therapeutic", plan.Therapeutic, "Therapy per clinical judgment")
	writePlanBucket(b, "Monitoring", plan.Monitoring, "Routine monitoring")
	writePlanBucket(b, "Follow-up", plan.FollowUp, defaultFollowUp)
}

func writePlanBucket(b *strings.Builder, label string, items []string, fallback string) {
	b.WriteString(label + ":\n")
	if len(items) == 0 {
		b.WriteString("  - " + fallback + "\n")
		return
	}
	writeBullets(b, items)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

const disclaimer = `
----------------------------------------------------------------------
DISCLAIMER: This report was generated automatically from the uploaded
document text using dictionary-driven pattern extraction. It is intended
for decision support only. All findings, differentials, and plan items
require verification by a licensed clinician before clinical use.
----------------------------------------------------------------------
`

func metadataFooter(fileName string, generatedAt time.Time, opts Options) string {
	var b strings.Builder
	b.WriteString("\nREPORT METADATA\n")
	b.WriteString("Source File: " + fileName + "\n")
	b.WriteString("Generated At: " + generatedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("Output Format: " + string(ParseFormat(opts.OutputFormat)) + "\n")
	b.WriteString("Detail Level: " + opts.DetailLevel + "\n")
	fmt.Fprintf(&b, "Include ICD-10 Codes: %t\n", opts.IncludeICD10)
	fmt.Fprintf(&b, "Include Medications: %t\n", opts.IncludeMedications)
	return b.String()
}
