package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RunConsoleChat is the line-oriented front end: one employee ID read
// at startup (a failed lookup is fatal here), then a prompt/response
// loop until the "quit" sentinel.
func RunConsoleChat(cfg Config, db *sql.DB) error {
	employees, err := LoadEmployees(cfg.EmployeeDataPath)
	if err != nil {
		return err
	}
	policies, err := LoadPolicies(cfg.PoliciesPath)
	if err != nil {
		return err
	}

	sessionID := fmt.Sprintf("console-%d", time.Now().Unix())
	session := NewChatSession(cfg, employees, policies, db, "console", sessionID)

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Print("What is your employee ID? ")
	if !scanner.Scan() {
		return scanner.Err()
	}
	idText := strings.TrimSpace(scanner.Text())
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid employee ID %q", idText)
	}
	if err := session.SetEmployee(id); err != nil {
		return err
	}
	if emp, ok := session.Employee(); ok {
		fmt.Println(employeeContextString(emp))
	}

	fmt.Println("What policy can I help you with today? To finish this conversation please write 'quit'.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" {
			return nil
		}

		reply, err := session.Ask(input)
		if err != nil {
			// Transport errors end the turn, not the session.
			fmt.Printf("Error generating response: %v\n", err)
			continue
		}
		fmt.Printf("Assistant: %s\n", reply)
	}
}
