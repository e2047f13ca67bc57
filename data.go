package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Loaders for the three tabular inputs. Each table is read once at
// startup and treated as read-only for the rest of the run.

func LoadEmployees(path string) (map[int64]Employee, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "EmployeeID", "Age", "Tenure", "Department", "Gender")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	employees := make(map[int64]Employee, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row[cols["EmployeeID"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid EmployeeID %q", path, i+2, row[cols["EmployeeID"]])
		}
		age, err := strconv.Atoi(strings.TrimSpace(row[cols["Age"]]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid Age %q", path, i+2, row[cols["Age"]])
		}
		tenure, err := strconv.Atoi(strings.TrimSpace(row[cols["Tenure"]]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid Tenure %q", path, i+2, row[cols["Tenure"]])
		}
		employees[id] = Employee{
			EmployeeID: id,
			Age:        age,
			Tenure:     tenure,
			Department: strings.TrimSpace(row[cols["Department"]]),
			Gender:     strings.TrimSpace(row[cols["Gender"]]),
		}
	}
	return employees, nil
}

// LoadBenefitCatalog maps BenefitID to a "BenefitType: BenefitSubType"
// label.
func LoadBenefitCatalog(path string) (map[int64]string, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "BenefitID", "BenefitType", "BenefitSubType")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	catalog := make(map[int64]string, len(rows))
	for i, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row[cols["BenefitID"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid BenefitID %q", path, i+2, row[cols["BenefitID"]])
		}
		catalog[id] = strings.TrimSpace(row[cols["BenefitType"]]) + ": " + strings.TrimSpace(row[cols["BenefitSubType"]])
	}
	return catalog, nil
}

// LoadFeedback returns the feedback rows in table order.
func LoadFeedback(path string) ([]FeedbackRecord, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header, "EmployeeID", "BenefitID", "Comments", "SatisfactionScore")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	records := make([]FeedbackRecord, 0, len(rows))
	for i, row := range rows {
		employeeID, err := strconv.ParseInt(strings.TrimSpace(row[cols["EmployeeID"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid EmployeeID %q", path, i+2, row[cols["EmployeeID"]])
		}
		benefitID, err := strconv.ParseInt(strings.TrimSpace(row[cols["BenefitID"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid BenefitID %q", path, i+2, row[cols["BenefitID"]])
		}
		score, err := strconv.Atoi(strings.TrimSpace(row[cols["SatisfactionScore"]]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid SatisfactionScore %q", path, i+2, row[cols["SatisfactionScore"]])
		}
		records = append(records, FeedbackRecord{
			EmployeeID:        employeeID,
			BenefitID:         benefitID,
			Comments:          row[cols["Comments"]],
			SatisfactionScore: score,
		})
	}
	return records, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}
	return all[0], all[1:], nil
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.TrimSpace(h)] = i
	}
	cols := make(map[string]int, len(names))
	for _, name := range names {
		idx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = idx
	}
	return cols, nil
}
