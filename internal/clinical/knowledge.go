package clinical

import "strings"

// CodeUndetermined is returned for terms with no diagnostic code mapping.
const CodeUndetermined = "To be determined"

// KnowledgeBase holds the static medical vocabulary used by the extractor.
// All terms are lowercase; matching is case-insensitive on the caller side.
// A KnowledgeBase is immutable after construction and safe for concurrent use.
type KnowledgeBase struct {
	Symptoms    []string
	Conditions  []string
	Medications []string
	Procedures  []string
	Specialties []string

	diagnosticCodes map[string]string
}

func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Symptoms:        symptomTerms,
		Conditions:      conditionTerms,
		Medications:     medicationTerms,
		Procedures:      procedureTerms,
		Specialties:     specialtyTerms,
		diagnosticCodes: diagnosticCodes,
	}
}

// DiagnosticCode resolves a condition or symptom phrase to its ICD-10 code.
// Lookup is exact-string after case normalization; unmapped terms resolve to
// CodeUndetermined, never an error.
func (kb *KnowledgeBase) DiagnosticCode(term string) string {
	if code, ok := kb.diagnosticCodes[strings.ToLower(strings.TrimSpace(term))]; ok {
		return code
	}
	return CodeUndetermined
}

var symptomTerms = []string{
	"chest pain",
	"shortness of breath",
	"abdominal pain",
	"headache",
	"dizziness",
	"nausea",
	"vomiting",
	"diarrhea",
	"constipation",
	"fever",
	"chills",
	"fatigue",
	"weakness",
	"cough",
	"sore throat",
	"runny nose",
	"congestion",
	"wheezing",
	"palpitations",
	"syncope",
	"back pain",
	"joint pain",
	"muscle pain",
	"numbness",
	"tingling",
	"swelling",
	"rash",
	"itching",
	"weight loss",
	"weight gain",
	"night sweats",
	"loss of appetite",
	"difficulty swallowing",
	"blurred vision",
	"double vision",
	"hearing loss",
	"ear pain",
	"urinary frequency",
	"painful urination",
	"blood in urine",
	"blood in stool",
	"leg pain",
	"leg swelling",
	"confusion",
	"insomnia",
}

var conditionTerms = []string{
	"hypertension",
	"high blood pressure",
	"diabetes",
	"diabetes mellitus",
	"type 2 diabetes",
	"type 1 diabetes",
	"hyperlipidemia",
	"high cholesterol",
	"coronary artery disease",
	"heart failure",
	"congestive heart failure",
	"atrial fibrillation",
	"myocardial infarction",
	"heart attack",
	"angina",
	"stroke",
	"transient ischemic attack",
	"peripheral artery disease",
	"deep vein thrombosis",
	"pulmonary embolism",
	"asthma",
	"copd",
	"chronic obstructive pulmonary disease",
	"emphysema",
	"chronic bronchitis",
	"pneumonia",
	"bronchitis",
	"sleep apnea",
	"pulmonary fibrosis",
	"tuberculosis",
	"gerd",
	"gastroesophageal reflux",
	"peptic ulcer",
	"gastritis",
	"irritable bowel syndrome",
	"crohn's disease",
	"ulcerative colitis",
	"celiac disease",
	"diverticulitis",
	"pancreatitis",
	"cirrhosis",
	"hepatitis",
	"fatty liver disease",
	"gallstones",
	"chronic kidney disease",
	"kidney stones",
	"urinary tract infection",
	"benign prostatic hyperplasia",
	"hypothyroidism",
	"hyperthyroidism",
	"osteoporosis",
	"osteoarthritis",
	"rheumatoid arthritis",
	"gout",
	"lupus",
	"fibromyalgia",
	"anemia",
	"iron deficiency anemia",
	"leukemia",
	"lymphoma",
	"depression",
	"anxiety",
	"bipolar disorder",
	"schizophrenia",
	"dementia",
	"alzheimer's disease",
	"parkinson's disease",
	"epilepsy",
	"seizure disorder",
	"migraine",
	"multiple sclerosis",
	"neuropathy",
	"obesity",
	"metabolic syndrome",
	"cancer",
}

var medicationTerms = []string{
	"lisinopril",
	"enalapril",
	"ramipril",
	"losartan",
	"valsartan",
	"olmesartan",
	"amlodipine",
	"nifedipine",
	"diltiazem",
	"verapamil",
	"metoprolol",
	"atenolol",
	"carvedilol",
	"propranolol",
	"bisoprolol",
	"hydrochlorothiazide",
	"chlorthalidone",
	"furosemide",
	"spironolactone",
	"torsemide",
	"atorvastatin",
	"simvastatin",
	"rosuvastatin",
	"pravastatin",
	"lovastatin",
	"ezetimibe",
	"fenofibrate",
	"gemfibrozil",
	"metformin",
	"glipizide",
	"glyburide",
	"glimepiride",
	"sitagliptin",
	"linagliptin",
	"empagliflozin",
	"dapagliflozin",
	"canagliflozin",
	"pioglitazone",
	"insulin",
	"liraglutide",
	"semaglutide",
	"dulaglutide",
	"aspirin",
	"clopidogrel",
	"ticagrelor",
	"prasugrel",
	"warfarin",
	"apixaban",
	"rivaroxaban",
	"dabigatran",
	"heparin",
	"enoxaparin",
	"albuterol",
	"ipratropium",
	"tiotropium",
	"budesonide",
	"fluticasone",
	"salmeterol",
	"formoterol",
	"montelukast",
	"prednisone",
	"prednisolone",
	"methylprednisolone",
	"omeprazole",
	"pantoprazole",
	"esomeprazole",
	"lansoprazole",
	"ranitidine",
	"famotidine",
	"ondansetron",
	"metoclopramide",
	"levothyroxine",
	"methimazole",
	"sertraline",
	"fluoxetine",
	"escitalopram",
	"citalopram",
	"paroxetine",
	"venlafaxine",
	"duloxetine",
	"bupropion",
	"mirtazapine",
	"trazodone",
	"alprazolam",
	"lorazepam",
	"clonazepam",
	"diazepam",
	"zolpidem",
	"gabapentin",
	"pregabalin",
	"tramadol",
	"oxycodone",
	"hydrocodone",
	"morphine",
	"acetaminophen",
	"ibuprofen",
	"naproxen",
	"meloxicam",
	"celecoxib",
	"amoxicillin",
	"azithromycin",
	"ciprofloxacin",
	"levofloxacin",
	"doxycycline",
	"cephalexin",
	"ceftriaxone",
	"metronidazole",
	"nitrofurantoin",
	"tamsulosin",
	"finasteride",
	"allopurinol",
	"colchicine",
	"hydroxychloroquine",
	"methotrexate",
}

var procedureTerms = []string{
	"appendectomy",
	"cholecystectomy",
	"colonoscopy",
	"endoscopy",
	"angioplasty",
	"stent placement",
	"coronary artery bypass",
	"cardiac catheterization",
	"pacemaker implantation",
	"hip replacement",
	"knee replacement",
	"hernia repair",
	"hysterectomy",
	"cesarean section",
	"tonsillectomy",
	"thyroidectomy",
	"mastectomy",
	"biopsy",
	"dialysis",
	"blood transfusion",
	"lumbar puncture",
	"intubation",
	"tracheostomy",
	"skin graft",
	"cataract surgery",
}

var specialtyTerms = []string{
	"cardiology",
	"pulmonology",
	"gastroenterology",
	"nephrology",
	"endocrinology",
	"neurology",
	"oncology",
	"hematology",
	"rheumatology",
	"infectious disease",
	"psychiatry",
	"dermatology",
	"orthopedics",
	"urology",
	"gynecology",
	"ophthalmology",
	"otolaryngology",
	"general surgery",
	"internal medicine",
	"family medicine",
	"emergency medicine",
	"anesthesiology",
	"radiology",
	"pathology",
}

// diagnosticCodes maps condition/symptom phrases to ICD-10 codes. Aliases
// share a code (e.g. "copd" and its long form both resolve to J44.9).
var diagnosticCodes = map[string]string{
	"hypertension":                          "I10",
	"high blood pressure":                   "I10",
	"diabetes":                              "E11.9",
	"diabetes mellitus":                     "E11.9",
	"type 2 diabetes":                       "E11.9",
	"type 1 diabetes":                       "E10.9",
	"hyperlipidemia":                        "E78.5",
	"high cholesterol":                      "E78.5",
	"coronary artery disease":               "I25.10",
	"heart failure":                         "I50.9",
	"congestive heart failure":              "I50.9",
	"atrial fibrillation":                   "I48.91",
	"myocardial infarction":                 "I21.9",
	"heart attack":                          "I21.9",
	"angina":                                "I20.9",
	"stroke":                                "I63.9",
	"transient ischemic attack":             "G45.9",
	"peripheral artery disease":             "I73.9",
	"deep vein thrombosis":                  "I82.40",
	"pulmonary embolism":                    "I26.99",
	"asthma":                                "J45.909",
	"copd":                                  "J44.9",
	"chronic obstructive pulmonary disease": "J44.9",
	"emphysema":                             "J43.9",
	"chronic bronchitis":                    "J42",
	"pneumonia":                             "J18.9",
	"bronchitis":                            "J40",
	"sleep apnea":                           "G47.33",
	"pulmonary fibrosis":                    "J84.10",
	"tuberculosis":                          "A15.9",
	"gerd":                                  "K21.9",
	"gastroesophageal reflux":               "K21.9",
	"peptic ulcer":                          "K27.9",
	"gastritis":                             "K29.70",
	"irritable bowel syndrome":              "K58.9",
	"crohn's disease":                       "K50.90",
	"ulcerative colitis":                    "K51.90",
	"celiac disease":                        "K90.0",
	"diverticulitis":                        "K57.92",
	"pancreatitis":                          "K85.90",
	"cirrhosis":                             "K74.60",
	"hepatitis":                             "K75.9",
	"fatty liver disease":                   "K76.0",
	"gallstones":                            "K80.20",
	"chronic kidney disease":                "N18.9",
	"kidney stones":                         "N20.0",
	"urinary tract infection":               "N39.0",
	"benign prostatic hyperplasia":          "N40.1",
	"hypothyroidism":                        "E03.9",
	"hyperthyroidism":                       "E05.90",
	"osteoporosis":                          "M81.0",
	"osteoarthritis":                        "M19.90",
	"rheumatoid arthritis":                  "M06.9",
	"gout":                                  "M10.9",
	"lupus":                                 "M32.9",
	"fibromyalgia":                          "M79.7",
	"anemia":                                "D64.9",
	"iron deficiency anemia":                "D50.9",
	"depression":                            "F32.9",
	"anxiety":                               "F41.9",
	"bipolar disorder":                      "F31.9",
	"schizophrenia":                         "F20.9",
	"dementia":                              "F03.90",
	"alzheimer's disease":                   "G30.9",
	"parkinson's disease":                   "G20",
	"epilepsy":                              "G40.909",
	"seizure disorder":                      "G40.909",
	"migraine":                              "G43.909",
	"multiple sclerosis":                    "G35",
	"neuropathy":                            "G62.9",
	"obesity":                               "E66.9",
	"metabolic syndrome":                    "E88.81",

	"chest pain":           "R07.9",
	"shortness of breath":  "R06.02",
	"abdominal pain":       "R10.9",
	"headache":             "R51.9",
	"dizziness":            "R42",
	"nausea":               "R11.0",
	"vomiting":             "R11.10",
	"diarrhea":             "R19.7",
	"fever":                "R50.9",
	"fatigue":              "R53.83",
	"cough":                "R05.9",
	"syncope":              "R55",
	"palpitations":         "R00.2",
	"back pain":            "M54.9",
	"rash":                 "R21",
	"weight loss":          "R63.4",
	"confusion":            "R41.0",
	"urinary frequency":    "R35.0",
	"painful urination":    "R30.0",
	"blood in urine":       "R31.9",
	"insomnia":             "G47.00",
	"loss of appetite":     "R63.0",
	"night sweats":         "R61",
	"difficulty swallowing": "R13.10",
}
