package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

type FillRequest struct {
	Questionnaire    Questionnaire
	Schema           string
	PatientStatement string
}

type FollowUpRequest struct {
	InitialStatement string
	Remaining        []string
}

func formatRemainingSection(questions []string) string {
	if len(questions) == 0 {
		return ""
	}
	var buf strings.Builder
	buf.WriteString("# REMAINING_QUESTIONS:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("#", "Question")
	for i, q := range questions {
		_ = table.Append(strconv.Itoa(i+1), q)
	}
	_ = table.Render()
	return buf.String()
}

func FormatFillRequest(req *FillRequest) (string, error) {
	stateJSON, err := sonic.Marshal(req.Questionnaire)
	if err != nil {
		return "", err
	}
	sections := []string{
		fmt.Sprintf("# PRO_QUESTIONNAIRE (JSON):\n```json\n%s\n```", string(stateJSON)),
	}
	if req.Schema != "" {
		sections = append(sections, fmt.Sprintf("# PRO_QUESTIONNAIRE schema JSON:\n```json\n%s\n```", req.Schema))
	}
	sections = append(sections, fmt.Sprintf("# PATIENT_STATEMENT (TEXT):\n%s", req.PatientStatement))
	return strings.Join(sections, "\n\n"), nil
}

func FormatFollowUpRequest(req *FollowUpRequest) string {
	sections := []string{
		fmt.Sprintf("# PATIENT'S INITIAL STATEMENT:\n%q", req.InitialStatement),
	}
	if s := formatRemainingSection(req.Remaining); s != "" {
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n\n")
}
