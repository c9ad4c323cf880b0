package finance

import "fmt"

// Logical store locations for one billing year. The legacy paths are older
// layouts still found in long-lived databases; the cache reads them as
// fallbacks and merges them into the current shape.
func classesPath(year int) string      { return fmt.Sprintf("finance/%d/classes", year) }
func plansPath(year int) string        { return fmt.Sprintf("finance/%d/plans", year) }
func studentFeesPath(year int) string  { return fmt.Sprintf("finance/%d/studentFees", year) }
func studentPlansPath(year int) string { return fmt.Sprintf("finance/%d/studentPlans", year) }

func classPath(year int, name string) string {
	return fmt.Sprintf("finance/%d/classes/%s", year, name)
}

func planPath(year int, planID string) string {
	return fmt.Sprintf("finance/%d/plans/%s", year, planID)
}

func studentFeePath(year int, studentID string) string {
	return fmt.Sprintf("finance/%d/studentFees/%s", year, studentID)
}

func studentPlanPath(year int, studentID string) string {
	return fmt.Sprintf("finance/%d/studentPlans/%s", year, studentID)
}

func customSchedulePath(year int, studentID string) string {
	return fmt.Sprintf("finance/%d/studentCustomSchedules/%s", year, studentID)
}

func legacyClassesPath(year int) string { return fmt.Sprintf("feesStructure/%d", year) }
func legacyPlansPath(year int) string   { return fmt.Sprintf("installmentPlans/%d", year) }

func legacyStudentOverridesPath(year int) string {
	return fmt.Sprintf("studentOverrides/%d", year)
}
