package router

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of a rule set.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads keyword rules from a YAML file. The file holds a top-level
// "rules" list of pattern/source pairs.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	return file.Rules, nil
}

// DefaultRules returns the built-in rule set for the university knowledge
// base. Patterns are word stems so they match inflected Russian forms.
func DefaultRules() []Rule {
	return []Rule{
		// Leadership
		{Pattern: "ректор", Source: "02_leadership.md"},
		{Pattern: "проректор", Source: "02_leadership.md"},
		{Pattern: "руководство", Source: "02_leadership.md"},
		{Pattern: "бегентаев", Source: "02_leadership.md"},
		{Pattern: "ермекбаев", Source: "02_leadership.md"},
		{Pattern: "кульдеев", Source: "02_leadership.md"},
		{Pattern: "ускенбаева", Source: "02_leadership.md"},
		{Pattern: "шалабаев", Source: "02_leadership.md"},
		// Institutes
		{Pattern: "институт", Source: "03_institutes.md"},
		{Pattern: "кафедр", Source: "03_institutes.md"},
		{Pattern: "иаиит", Source: "03_institutes.md"},
		{Pattern: "факультет", Source: "03_institutes.md"},
		{Pattern: "структура", Source: "03_institutes.md"},
		// Dormitory
		{Pattern: "общежити", Source: "08_dormitory.md"},
		{Pattern: "заселен", Source: "08_dormitory.md"},
		{Pattern: "дормитор", Source: "08_dormitory.md"},
		// Study process
		{Pattern: "кредит", Source: "04_study_process.md"},
		{Pattern: "аттестац", Source: "04_study_process.md"},
		{Pattern: "экзамен", Source: "04_study_process.md"},
		{Pattern: "сессия", Source: "04_study_process.md"},
		{Pattern: "силлабус", Source: "04_study_process.md"},
		{Pattern: "эдвайзер", Source: "04_study_process.md"},
		{Pattern: "пропуск", Source: "04_study_process.md"},
		// Grades and GPA
		{Pattern: "оценк", Source: "05_grades_gpa.md"},
		{Pattern: "gpa", Source: "05_grades_gpa.md"},
		{Pattern: "балл", Source: "05_grades_gpa.md"},
		{Pattern: "ретейк", Source: "05_grades_gpa.md"},
		{Pattern: "retake", Source: "05_grades_gpa.md"},
		// Registration
		{Pattern: "регистрац", Source: "06_registration.md"},
		{Pattern: "дисциплин", Source: "06_registration.md"},
		// Services
		{Pattern: "библиотек", Source: "07_services.md"},
		{Pattern: "медицинск", Source: "07_services.md"},
		{Pattern: "медпункт", Source: "07_services.md"},
		{Pattern: "психолог", Source: "07_services.md"},
		{Pattern: "карьер", Source: "07_services.md"},
		{Pattern: "оплат", Source: "07_services.md"},
		{Pattern: "воинск", Source: "07_services.md"},
		{Pattern: "справк", Source: "07_services.md"},
		{Pattern: "регистратор", Source: "07_services.md"},
		{Pattern: "международн", Source: "07_services.md"},
		{Pattern: "мобильност", Source: "07_services.md"},
		// Student life
		{Pattern: "стипенди", Source: "09_student_life.md"},
		{Pattern: "онай", Source: "09_student_life.md"},
		{Pattern: "оңай", Source: "09_student_life.md"},
		{Pattern: "организаци", Source: "09_student_life.md"},
		{Pattern: "клуб", Source: "09_student_life.md"},
		{Pattern: "банковск", Source: "09_student_life.md"},
		// Contacts
		{Pattern: "контакт", Source: "10_contacts.md"},
		{Pattern: "телефон", Source: "10_contacts.md"},
		{Pattern: "email", Source: "10_contacts.md"},
		{Pattern: "почт", Source: "10_contacts.md"},
		// FAQ
		{Pattern: "отчислен", Source: "11_faq.md"},
		{Pattern: "перевод", Source: "11_faq.md"},
		{Pattern: "академ", Source: "11_faq.md"},
		{Pattern: "грант", Source: "11_faq.md"},
		{Pattern: "первая неделя", Source: "11_faq.md"},
		// General info
		{Pattern: "адрес", Source: "01_general_info.md"},
		{Pattern: "корпус", Source: "01_general_info.md"},
		{Pattern: "кампус", Source: "01_general_info.md"},
		{Pattern: "добраться", Source: "01_general_info.md"},
		{Pattern: "расположен", Source: "01_general_info.md"},
		{Pattern: "гук", Source: "01_general_info.md"},
		{Pattern: "гмк", Source: "01_general_info.md"},
		{Pattern: "нк", Source: "01_general_info.md"},
		{Pattern: "мук", Source: "01_general_info.md"},
		{Pattern: "ккц", Source: "01_general_info.md"},
	}
}
