package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadEmployees(t *testing.T) {
	path := writeTempCSV(t, "employees.csv",
		"EmployeeID,Age,Tenure,Department,Gender\n"+
			"7,34,5,Engineering,Female\n"+
			"12,51,20,Finance,Male\n")

	employees, err := LoadEmployees(path)
	if err != nil {
		t.Fatalf("LoadEmployees failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
	want := Employee{EmployeeID: 7, Age: 34, Tenure: 5, Department: "Engineering", Gender: "Female"}
	if employees[7] != want {
		t.Fatalf("employees[7] = %+v, want %+v", employees[7], want)
	}
}

func TestLoadEmployeesReorderedColumns(t *testing.T) {
	path := writeTempCSV(t, "employees.csv",
		"Gender,Department,EmployeeID,Tenure,Age\n"+
			"Male,Sales,3,2,29\n")

	employees, err := LoadEmployees(path)
	if err != nil {
		t.Fatalf("LoadEmployees failed: %v", err)
	}
	want := Employee{EmployeeID: 3, Age: 29, Tenure: 2, Department: "Sales", Gender: "Male"}
	if employees[3] != want {
		t.Fatalf("expected columns resolved by header name, got %+v", employees[3])
	}
}

func TestLoadEmployeesMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "employees.csv",
		"EmployeeID,Age,Department,Gender\n"+
			"7,34,Engineering,Female\n")

	if _, err := LoadEmployees(path); err == nil || !strings.Contains(err.Error(), "Tenure") {
		t.Fatalf("expected missing-column error naming Tenure, got %v", err)
	}
}

func TestLoadEmployeesBadValue(t *testing.T) {
	path := writeTempCSV(t, "employees.csv",
		"EmployeeID,Age,Tenure,Department,Gender\n"+
			"7,thirty-four,5,Engineering,Female\n")

	_, err := LoadEmployees(path)
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row-level error, got %v", err)
	}
}

func TestLoadBenefitCatalog(t *testing.T) {
	path := writeTempCSV(t, "benefits.csv",
		"BenefitID,BenefitType,BenefitSubType\n"+
			"3,Health,Dental\n"+
			"9,Perks,Gym\n")

	catalog, err := LoadBenefitCatalog(path)
	if err != nil {
		t.Fatalf("LoadBenefitCatalog failed: %v", err)
	}
	if catalog[3] != "Health: Dental" || catalog[9] != "Perks: Gym" {
		t.Fatalf("unexpected catalog labels: %v", catalog)
	}
}

func TestLoadFeedbackKeepsTableOrder(t *testing.T) {
	path := writeTempCSV(t, "feedback.csv",
		"EmployeeID,BenefitID,Comments,SatisfactionScore\n"+
			"12,3,\"reimbursement took 2 months, twice\",2\n"+
			"7,9,gym is fine,4\n")

	records, err := LoadFeedback(path)
	if err != nil {
		t.Fatalf("LoadFeedback failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EmployeeID != 12 || records[1].EmployeeID != 7 {
		t.Fatalf("expected records in table order, got %+v", records)
	}
	if records[0].Comments != "reimbursement took 2 months, twice" {
		t.Fatalf("expected quoted comma preserved, got %q", records[0].Comments)
	}
	if records[0].SatisfactionScore != 2 {
		t.Fatalf("unexpected score: %d", records[0].SatisfactionScore)
	}
}

func TestLoadFeedbackMissingFile(t *testing.T) {
	if _, err := LoadFeedback(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
