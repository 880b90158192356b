package clinical

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor scans normalized text and populates a MedicalInfo record.
// Every sub-extractor is independent: none reads a field another one wrote,
// so their relative order carries no meaning. Extraction never fails; a
// pattern that does not match simply leaves its "not found" sentinel.
type Extractor struct {
	kb *KnowledgeBase

	symptomPatterns    []termPattern
	conditionPatterns  []termPattern
	medicationPatterns []medicationPattern
	procedurePatterns  []termPattern
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

type medicationPattern struct {
	term     string
	re       *regexp.Regexp
	dosageRe *regexp.Regexp
}

func NewExtractor(kb *KnowledgeBase) *Extractor {
	e := &Extractor{kb: kb}

	e.symptomPatterns = compileTerms(kb.Symptoms)
	e.conditionPatterns = compileTerms(kb.Conditions)
	e.procedurePatterns = compileTerms(kb.Procedures)

	e.medicationPatterns = make([]medicationPattern, 0, len(kb.Medications))
	for _, term := range kb.Medications {
		e.medicationPatterns = append(e.medicationPatterns, medicationPattern{
			term:     term,
			re:       termRegexp(term),
			dosageRe: regexp.MustCompile(`(?i)\b` + termExpr(term) + `\s+(\d+(?:\.\d+)?\s*(?:mg|mcg|g|units?))\b`),
		})
	}

	return e
}

func compileTerms(terms []string) []termPattern {
	out := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		out = append(out, termPattern{term: term, re: termRegexp(term)})
	}
	return out
}

// termExpr builds the expression for a dictionary phrase: words are quoted
// and joined so any whitespace run between them matches.
func termExpr(term string) string {
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func termRegexp(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + termExpr(term) + `\b`)
}

// Extract builds a fresh MedicalInfo from normalized text. The chief
// complaint fallback to the first detected symptom happens here, at the
// composition level, so the sub-extractors stay independent of each other.
func (e *Extractor) Extract(text string) *MedicalInfo {
	info := &MedicalInfo{
		Demographics: Demographics{
			Age:    extractAge(text),
			Gender: extractGender(text),
			Race:   extractRace(text),
		},
		Symptoms:    matchTerms(text, e.symptomPatterns),
		Conditions:  matchTerms(text, e.conditionPatterns),
		Medications: e.matchMedications(text),
		Procedures:  matchTerms(text, e.procedurePatterns),

		Vitals:          extractVitals(text),
		Labs:            extractLabs(text),
		Imaging:         extractImaging(text),
		Allergies:       extractAllergies(text),
		SocialHistory:   extractSocialHistory(text),
		FamilyHistory:   extractFamilyHistory(text),
		ReviewOfSystems: extractReviewOfSystems(text),
		PhysicalExam:    extractPhysicalExam(text),
		Timeline:        extractTimeline(text),
	}

	info.ChiefComplaint = extractChiefComplaint(text, info.Symptoms)

	return info
}

// matchTerms tests every dictionary pattern against the text and collects
// hits in dictionary scan order, not text order. Duplicate occurrences in
// the text collapse to a single entry.
func matchTerms(text string, patterns []termPattern) []string {
	var found []string
	for _, p := range patterns {
		if p.re.MatchString(text) {
			found = append(found, p.term)
		}
	}
	return found
}

// matchMedications is matchTerms plus a dosage suffix: when a dosage token
// immediately follows the medication name somewhere in the document, it is
// appended to the stored entry. On documents listing several medications
// with dosages between them the pairing can mismatch; this mirrors the
// historical behavior and is a known limitation.
func (e *Extractor) matchMedications(text string) []string {
	var found []string
	for _, p := range e.medicationPatterns {
		if !p.re.MatchString(text) {
			continue
		}
		entry := p.term
		if m := p.dosageRe.FindStringSubmatch(text); m != nil {
			entry = p.term + " " + strings.ToLower(collapseSpaces(m[1]))
		}
		found = append(found, entry)
	}
	return found
}

// Age patterns are tried in fixed priority order; the first hit wins.
// Values are parsed as integers with no range validation.
var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,3})[-\s]year[-\s]old\b`),
	regexp.MustCompile(`(?i)\bage:?\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s*yo\b`),
	regexp.MustCompile(`(?i)\b(\d{1,3})\s*y\.o\.`),
}

func extractAge(text string) *int {
	for _, re := range agePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if age, err := strconv.Atoi(m[1]); err == nil && age >= 0 {
				return &age
			}
		}
	}
	return nil
}

var (
	maleRe   = regexp.MustCompile(`(?i)\b(?:male|man|gentleman|boy)\b`)
	femaleRe = regexp.MustCompile(`(?i)\b(?:female|woman|lady|girl)\b`)
)

// extractGender checks male-indicating words before female-indicating ones;
// the first category that matches anywhere wins.
func extractGender(text string) Gender {
	if maleRe.MatchString(text) {
		return GenderMale
	}
	if femaleRe.MatchString(text) {
		return GenderFemale
	}
	return ""
}

var racePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brace:?\s+([a-zA-Z ]+?)(?:[.,\n]|$)`),
	regexp.MustCompile(`(?i)\b(caucasian|african american|hispanic|asian|native american|pacific islander)\b`),
}

func extractRace(text string) string {
	for _, re := range racePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// Chief complaint: labeled fields first, then the free-text presentation
// phrasing. Captures keep their original casing for display.
var chiefComplaintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)chief complaint:\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)presenting complaint:\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)\bcc:\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)patient\s+(?:[a-z]+\s+)*?(?:presents?\s+with|complain(?:s|ing)?\s+of|reports?)\s+([^\n.]+)`),
}

func extractChiefComplaint(text string, symptoms []string) string {
	for _, re := range chiefComplaintPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if c := strings.TrimSpace(m[1]); c != "" {
				return c
			}
		}
	}
	if len(symptoms) > 0 {
		return capitalize(symptoms[0])
	}
	return DefaultChiefComplaint
}

var (
	bpRe   = regexp.MustCompile(`(?i)\b(?:blood pressure|bp)[:\s]+(\d{2,3}\s*/\s*\d{2,3})\b`)
	hrRe   = regexp.MustCompile(`(?i)\b(?:heart rate|hr|pulse)[:\s]+(\d{2,3})\b`)
	tempRe = regexp.MustCompile(`(?i)\b(?:temperature|temp)[:\s]+(\d{2,3}(?:\.\d+)?)\b`)
	rrRe   = regexp.MustCompile(`(?i)\b(?:respiratory rate|rr)[:\s]+(\d{1,2})\b`)
	o2Re   = regexp.MustCompile(`(?i)\b(?:oxygen saturation|o2 sat(?:uration)?|spo2)[:\s]+(\d{2,3})\s*%?`)
)

// extractVitals returns nil, not an empty struct, when no vital matched.
func extractVitals(text string) *Vitals {
	v := &Vitals{}
	found := false

	if m := bpRe.FindStringSubmatch(text); m != nil {
		v.BloodPressure = collapseSpaces(strings.ReplaceAll(m[1], " ", ""))
		found = true
	}
	if m := hrRe.FindStringSubmatch(text); m != nil {
		v.HeartRate = m[1]
		found = true
	}
	if m := tempRe.FindStringSubmatch(text); m != nil {
		v.Temperature = m[1]
		found = true
	}
	if m := rrRe.FindStringSubmatch(text); m != nil {
		v.RespiratoryRate = m[1]
		found = true
	}
	if m := o2Re.FindStringSubmatch(text); m != nil {
		v.OxygenSaturation = m[1]
		found = true
	}

	if !found {
		return nil
	}
	return v
}

var labPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Glucose", regexp.MustCompile(`(?i)\bglucose[:\s]+(\d+(?:\.\d+)?(?:\s*mg/d[lL])?)`)},
	{"Hemoglobin", regexp.MustCompile(`(?i)\bhemoglobin[:\s]+(\d+(?:\.\d+)?(?:\s*g/d[lL])?)`)},
	{"Hemoglobin A1c", regexp.MustCompile(`(?i)\b(?:hba1c|a1c|hemoglobin a1c)[:\s]+(\d+(?:\.\d+)?%?)`)},
	{"WBC", regexp.MustCompile(`(?i)\bwbc[:\s]+(\d+(?:[.,]\d+)?)`)},
	{"Platelets", regexp.MustCompile(`(?i)\bplatelets?[:\s]+(\d+(?:,\d+)?)`)},
	{"Creatinine", regexp.MustCompile(`(?i)\bcreatinine[:\s]+(\d+(?:\.\d+)?)`)},
	{"BUN", regexp.MustCompile(`(?i)\bbun[:\s]+(\d+(?:\.\d+)?)`)},
	{"Sodium", regexp.MustCompile(`(?i)\bsodium[:\s]+(\d+(?:\.\d+)?)`)},
	{"Potassium", regexp.MustCompile(`(?i)\bpotassium[:\s]+(\d+(?:\.\d+)?)`)},
	{"Troponin", regexp.MustCompile(`(?i)\btroponin[:\s]+(<?\s*\d+(?:\.\d+)?)`)},
	{"Cholesterol", regexp.MustCompile(`(?i)\b(?:total )?cholesterol[:\s]+(\d+(?:\.\d+)?)`)},
	{"TSH", regexp.MustCompile(`(?i)\btsh[:\s]+(\d+(?:\.\d+)?)`)},
}

// extractLabs returns nil, not an empty map, when no lab value matched.
func extractLabs(text string) map[string]string {
	var labs map[string]string
	for _, p := range labPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			if labs == nil {
				labs = make(map[string]string)
			}
			labs[p.name] = collapseSpaces(strings.TrimSpace(m[1]))
		}
	}
	return labs
}

// Imaging captures run up to the next line break or period.
var imagingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(chest x-?ray[^.\n]*)`),
	regexp.MustCompile(`(?i)\b(ct[:\s][^.\n]*)`),
	regexp.MustCompile(`(?i)\b(mri[:\s][^.\n]*)`),
	regexp.MustCompile(`(?i)\b(ultrasound[^.\n]*)`),
	regexp.MustCompile(`(?i)\b(echocardiogram[^.\n]*|echo[:\s][^.\n]*)`),
	regexp.MustCompile(`(?i)\b(e[kc]g[^.\n]*)`),
}

func extractImaging(text string) []string {
	var findings []string
	for _, re := range imagingPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if f := strings.TrimSpace(m[1]); f != "" {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

// NKDAAllergies is the normalized value used when an NKDA marker is present.
const NKDAAllergies = "NKDA (No Known Drug Allergies)"

var (
	nkdaRe           = regexp.MustCompile(`(?i)\b(?:nkda|no known(?:\s+drug)?\s+allerg)`)
	allergyLabeledRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\ballergies?[:\s]+([^.\n]+)`),
		regexp.MustCompile(`(?i)\ballergic to[:\s]+([^.\n]+)`),
	}
)

// extractAllergies short-circuits on an NKDA marker before trying the
// labeled patterns.
func extractAllergies(text string) string {
	if nkdaRe.MatchString(text) {
		return NKDAAllergies
	}
	for _, re := range allergyLabeledRe {
		if m := re.FindStringSubmatch(text); m != nil {
			if a := strings.TrimSpace(m[1]); a != "" {
				return a
			}
		}
	}
	return ""
}

var socialHistoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)social history[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\b((?:current|former|non-?)\s*smoker[^.\n]*)`),
	regexp.MustCompile(`(?i)\b(smokes\s+[^.\n]+)`),
	regexp.MustCompile(`(?i)\b(tobacco use[^.\n]*)`),
	regexp.MustCompile(`(?i)\b(alcohol use[^.\n]*)`),
	regexp.MustCompile(`(?i)\b(drinks\s+[^.\n]+)`),
	regexp.MustCompile(`(?i)\b(denies\s+(?:tobacco|smoking|alcohol|drug)[^.\n]*)`),
}

// extractSocialHistory collects every match across the patterns and joins
// them with "; "; empty string when nothing matched.
func extractSocialHistory(text string) string {
	parts := collectMatches(text, socialHistoryPatterns)
	return strings.Join(parts, "; ")
}

var familyHistoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)family history[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\b((?:mother|father|brother|sister|grandmother|grandfather)\s+(?:with|has|had|died of)\s+[^.\n]+)`),
}

func extractFamilyHistory(text string) []string {
	return collectMatches(text, familyHistoryPatterns)
}

var rosPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)review of systems[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\bros[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\b((?:denies|negative for)\s+[^.\n]+)`),
}

func extractReviewOfSystems(text string) []string {
	return collectMatches(text, rosPatterns)
}

var physicalExamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)physical exam(?:ination)?[:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\bon exam(?:ination)?[,:\s]+([^.\n]+)`),
	regexp.MustCompile(`(?i)\bpe:\s*([^.\n]+)`),
}

func extractPhysicalExam(text string) []string {
	return collectMatches(text, physicalExamPatterns)
}

// Timeline patterns cover relative-time phrasings; every distinct match is
// collected in pattern order.
var timelinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d+\s+(?:day|week|month|year)s?\s+(?:ago|prior))\b`),
	regexp.MustCompile(`(?i)\b(since\s+\d[^.,\n;]*)`),
	regexp.MustCompile(`(?i)\b(for\s+(?:the\s+(?:past|last)\s+)?\d+\s+(?:day|week|month|year)s?)\b`),
}

func extractTimeline(text string) []string {
	return collectMatches(text, timelinePatterns)
}

// collectMatches gathers capture group 1 of every match of every pattern,
// trimmed and deduplicated case-insensitively, preserving first occurrence
// order.
func collectMatches(text string, patterns []*regexp.Regexp) []string {
	var out []string
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v := strings.TrimSpace(m[1])
			if v == "" {
				continue
			}
			key := strings.ToLower(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
