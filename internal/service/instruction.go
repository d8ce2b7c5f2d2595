package service

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// balanceInstruction is the fixed multi-step task given to the browser
// automation agent. The display name is its only parameter.
const balanceInstruction = `You are checking an employee's paid time off balance.
1. Open the "PTO Balances" spreadsheet shared with the HR workspace.
2. Go to the sheet named "Current Year".
3. Find the row whose "Employee Name" column equals {{printf "%q" .Name}}. Match the name exactly, ignoring case.
4. Read the value in the "Remaining PTO (days)" column of that row.
5. Reply with that value only, as a plain number such as 4.5, with no words or units.
If no row matches, reply with the word NOT_FOUND.`

var instructionTemplate = template.Must(template.New("balance").Parse(balanceInstruction))

type instructionData struct {
	Name string
}

// BuildInstruction renders the balance task for name. The same name always
// renders the same instruction.
func BuildInstruction(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", fmt.Errorf("cannot build instruction: empty name")
	}

	var buf bytes.Buffer
	if err := instructionTemplate.Execute(&buf, instructionData{Name: name}); err != nil {
		return "", fmt.Errorf("failed to render instruction: %w", err)
	}
	return buf.String(), nil
}
