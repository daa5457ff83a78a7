// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

package mailer

// Polish display labels for the form select values. Unknown values pass
// through unchanged so a template never renders empty.

var subjectLabels = map[string]string{
	"kurs-b":       "Zapytanie o kurs kat. B",
	"kurs-be":      "Zapytanie o kurs kat. B+E",
	"doszkalanie":  "Jazdy doszkalające",
	"wspolpraca":   "Współpraca",
	"inne":         "Inne",
}

var courseLabels = map[string]string{
	"b":          "Kurs kat. B",
	"b-express":  "Kurs kat. B (ekspresowy)",
	"be":         "Kurs kat. B+E",
	"be-express": "Kurs kat. B+E (ekspresowy)",
}

var cityLabels = map[string]string{
	"klecko":  "Kłecko",
	"gniezno": "Gniezno",
}

// SubjectLabel maps a contact-form subject value to its Polish label.
func SubjectLabel(value string) string {
	if label, ok := subjectLabels[value]; ok {
		return label
	}
	return value
}

// CourseLabel maps a registration course value to its Polish label.
func CourseLabel(value string) string {
	if label, ok := courseLabels[value]; ok {
		return label
	}
	return value
}

// CityLabel maps a registration city value to its Polish label.
func CityLabel(value string) string {
	if label, ok := cityLabels[value]; ok {
		return label
	}
	return value
}
