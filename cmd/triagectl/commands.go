package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check triaged server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Status string `json:"status"`
		}
		if err := doJSON("GET", "/health", nil, &resp); err != nil {
			return err
		}
		fmt.Printf("Server: %s\nStatus: %s\n", serverURL, resp.Status)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single triage pass",
	Long: `Run a single triage pass: ingest pending inbox documents and
process every new subscribed ledger event into a case record.

Examples:
  triagectl scan
  triagectl scan --server http://localhost:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			DocumentsIngested int `json:"documents_ingested"`
			EventsCreated     int `json:"events_created"`
			CasesCreated      int `json:"cases_created"`
			EventsSkipped     int `json:"events_skipped"`
			Failures          []struct {
				Kind    string `json:"kind"`
				EventID string `json:"event_id"`
				Message string `json:"message"`
			} `json:"failures"`
		}
		err := doJSON("POST", "/api/v1/scan", nil, &result)
		if err != nil {
			return err
		}

		fmt.Println("Scan results:")
		fmt.Printf("  Documents ingested: %d\n", result.DocumentsIngested)
		fmt.Printf("  Events created:     %d\n", result.EventsCreated)
		fmt.Printf("  Cases created:      %d\n", result.CasesCreated)
		fmt.Printf("  Events skipped:     %d\n", result.EventsSkipped)
		if len(result.Failures) > 0 {
			fmt.Printf("  Failures: %d\n", len(result.Failures))
			for _, f := range result.Failures {
				fmt.Printf("    - [%s] %s %s\n", f.Kind, f.EventID, f.Message)
			}
			os.Exit(1)
		}
		return nil
	},
}

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Inspect case records",
}

var caseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all case records",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cases []struct {
			EventID   string `json:"event_id"`
			EventType string `json:"event_type"`
			Location  string `json:"location"`
			Status    string `json:"status"`
			Emails    int    `json:"emails"`
		}
		if err := doJSON("GET", "/api/v1/cases", nil, &cases); err != nil {
			return err
		}
		if len(cases) == 0 {
			fmt.Println("No case records found.")
			return nil
		}
		for _, c := range cases {
			fmt.Printf("%s  %-20s  %-12s  %s (%d emails)\n",
				c.EventID, c.EventType, c.Status, c.Location, c.Emails)
		}
		return nil
	},
}

var caseViewCmd = &cobra.Command{
	Use:   "view <event_id>",
	Short: "Show the full case record for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec json.RawMessage
		if err := doJSON("GET", "/api/v1/cases/"+args[0], nil, &rec); err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, rec, "", "  "); err != nil {
			return err
		}
		fmt.Println(pretty.String())
		return nil
	},
}

var caseApproveCmd = &cobra.Command{
	Use:   "approve <event_id> <email_index>",
	Short: "Mark a drafted email as sent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("email index must be a number: %q", args[1])
		}
		path := fmt.Sprintf("/api/v1/cases/%s/emails/%s/approve", args[0], args[1])
		if err := doJSON("POST", path, nil, nil); err != nil {
			return err
		}
		fmt.Printf("Email %s of case %s marked sent.\n", args[1], args[0])
		return nil
	},
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Inspect and create ledger events",
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all ledger events",
	RunE: func(cmd *cobra.Command, args []string) error {
		var events []struct {
			ID      string `json:"event_id"`
			Type    string `json:"event_type"`
			Urgency string `json:"urgency"`
			Status  string `json:"status"`
			Summary string `json:"summary"`
		}
		if err := doJSON("GET", "/api/v1/events", nil, &events); err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}
		for _, ev := range events {
			summary := ev.Summary
			if len(summary) > 60 {
				summary = summary[:60] + "..."
			}
			fmt.Printf("%s  %-20s  %-8s  %-10s  %s\n",
				ev.ID, ev.Type, ev.Urgency, ev.Status, summary)
		}
		return nil
	},
}

var eventCreateCmd = &cobra.Command{
	Use:   "create [file]",
	Short: "Create an event from a file or stdin",
	Long: `Create a ledger event from raw document content.

Examples:
  # From a file
  triagectl event create complaint.txt

  # From stdin
  cat email.txt | triagectl event create -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var content []byte
		var source string
		var err error
		if len(args) == 0 || args[0] == "-" {
			content, err = io.ReadAll(os.Stdin)
			source = "stdin"
		} else {
			content, err = os.ReadFile(args[0])
			source = args[0]
		}
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}

		var ev struct {
			ID      string `json:"event_id"`
			Type    string `json:"event_type"`
			Urgency string `json:"urgency"`
		}
		req := map[string]string{"content": string(content), "source": source}
		if err := doJSON("POST", "/api/v1/events", req, &ev); err != nil {
			return err
		}
		fmt.Printf("Event created: %s (type: %s, urgency: %s)\n", ev.ID, ev.Type, ev.Urgency)
		return nil
	},
}

func init() {
	caseCmd.AddCommand(caseListCmd)
	caseCmd.AddCommand(caseViewCmd)
	caseCmd.AddCommand(caseApproveCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventCreateCmd)
}
