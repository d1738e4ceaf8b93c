// Package extraction finds known medical keywords in free-text report content.
package extraction

import (
	"strings"

	"precision-medicine-server/internal/domain"
)

// DetectedValue marks a lab test as present in the report.
const DetectedValue = "Detected"

var diseaseKeywords = []string{
	"diabetes", "hypertension", "cancer", "asthma", "arthritis",
	"alzheimer", "parkinson", "hypothyroidism", "hyperthyroidism",
	"fibroids", "covid", "tuberculosis", "pneumonia", "anemia",
}

var symptomKeywords = []string{
	"pain", "fever", "cough", "fatigue", "headache",
	"nausea", "vomiting", "dizziness", "rash", "swelling",
	"shortness of breath", "insomnia", "anxiety", "depression",
}

type labKeyword struct {
	name string
	unit string
}

var labKeywords = []labKeyword{
	{name: "hemoglobin", unit: "g/dL"},
	{name: "glucose", unit: "mg/dL"},
	{name: "cholesterol", unit: "mg/dL"},
	{name: "triglycerides", unit: "mg/dL"},
	{name: "creatinine", unit: "mg/dL"},
	{name: "TSH", unit: "mIU/L"},
	{name: "T3", unit: "ng/dL"},
	{name: "T4", unit: "μg/dL"},
	{name: "WBC", unit: "cells/μL"},
	{name: "RBC", unit: "million/μL"},
}

// Gene symbols are matched case-sensitively so that e.g. "ret" or "apc" in prose do not match.
var geneKeywords = []string{
	"BRCA1", "BRCA2", "EGFR", "KRAS", "HER2", "TP53",
	"BRAF", "MLH1", "MSH2", "APC", "RET", "PTEN",
}

var medicationKeywords = []string{
	"aspirin", "acetaminophen", "ibuprofen", "lisinopril",
	"metformin", "atorvastatin", "levothyroxine", "amlodipine",
	"albuterol", "metoprolol", "simvastatin", "omeprazole",
}

// Extract scans text for the fixed keyword lists. It never fails; categories
// without matches are empty.
func Extract(text string) domain.EntityBag {
	bag := domain.NewEntityBag()
	lower := strings.ToLower(text)

	bag.Diseases = appendContained(bag.Diseases, lower, diseaseKeywords)
	bag.Symptoms = appendContained(bag.Symptoms, lower, symptomKeywords)

	for _, lab := range labKeywords {
		if strings.Contains(lower, strings.ToLower(lab.name)) {
			bag.LabValues = append(bag.LabValues, domain.LabValue{
				Name:  lab.name,
				Value: DetectedValue,
				Unit:  lab.unit,
			})
		}
	}

	for _, gene := range geneKeywords {
		if strings.Contains(text, gene) {
			bag.Genes = append(bag.Genes, gene)
		}
	}

	bag.Medications = appendContained(bag.Medications, lower, medicationKeywords)
	return bag
}

func appendContained(dst []string, lower string, keywords []string) []string {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			dst = append(dst, k)
		}
	}
	return dst
}
