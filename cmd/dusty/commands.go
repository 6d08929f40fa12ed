package main

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dustybot/dusty/internal/config"
	"github.com/dustybot/dusty/internal/storage"
)

// --- users ---

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List household members",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loadAPIClient()
		if err != nil {
			return err
		}

		users, err := client.listUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No members registered.")
			return nil
		}

		for _, u := range users {
			role := ""
			if u.Admin {
				role = "  (admin)"
			}
			aliases := ""
			if u.Aliases != "" {
				aliases = "  aka " + u.Aliases
			}
			fmt.Printf("%s  %s%s%s\n", colorize(colorBold, u.Name), u.Phone, aliases, role)
		}
		return nil
	},
}

// --- chores ---

var choresCmd = &cobra.Command{
	Use:   "chores",
	Short: "Show the chore board",
	RunE: func(cmd *cobra.Command, args []string) error {
		assignee, _ := cmd.Flags().GetString("assignee")
		unassigned, _ := cmd.Flags().GetBool("unassigned")

		client, err := loadAPIClient()
		if err != nil {
			return err
		}

		chores, err := client.listChores(cmd.Context(), assignee, unassigned)
		if err != nil {
			return err
		}
		if len(chores) == 0 {
			fmt.Println("No open chores.")
			return nil
		}

		for _, c := range chores {
			var details []string
			if !c.DueDate.IsZero() {
				details = append(details, "due "+c.DueDate.Format("Mon Jan 2"))
			}
			if c.Recurrence != "" {
				details = append(details, c.Recurrence)
			}
			suffix := ""
			if len(details) > 0 {
				suffix = "  [" + strings.Join(details, ", ") + "]"
			}
			fmt.Printf("%s  %s%s\n", colorize(colorCyan, c.ID[:8]), c.Name, suffix)
		}
		return nil
	},
}

var choresDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a chore by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loadAPIClient()
		if err != nil {
			return err
		}

		if err := client.deleteChore(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Deleted chore %s", args[0])
		return nil
	},
}

func init() {
	choresCmd.Flags().String("assignee", "", "filter by member name")
	choresCmd.Flags().Bool("unassigned", false, "show only unclaimed chores")
	choresCmd.AddCommand(choresDeleteCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently completed chores",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := loadAPIClient()
		if err != nil {
			return err
		}

		entries, err := client.listHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No completed chores yet.")
			return nil
		}

		users, err := client.listUsers(cmd.Context())
		if err != nil {
			return err
		}
		names := memberNames(users)
		for _, e := range entries {
			fmt.Println(historyLine(e, names))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
}

// --- say ---

var sayCmd = &cobra.Command{
	Use:   "say <message>",
	Short: "Send a message to dusty as a household member",
	Long: `Send a message to dusty as a household member and print the replies.

Examples:
  dusty say --as becky "add dishes for tomorrow"
  dusty say --as mike "done with dishes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		as, _ := cmd.Flags().GetString("as")
		if as == "" {
			return fmt.Errorf("--as <member> is required")
		}
		message := strings.Join(args, " ")

		client, err := loadAPIClient()
		if err != nil {
			return err
		}

		phone, err := memberPhone(cmd.Context(), client, as)
		if err != nil {
			return err
		}

		form := url.Values{}
		form.Set("From", phone)
		form.Set("Body", message)
		resp, err := client.postForm(cmd.Context(), "/sms", form)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		var reply struct {
			Messages []string `xml:"Message"`
		}
		if err := xml.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return fmt.Errorf("parsing reply: %w", err)
		}
		for _, m := range reply.Messages {
			fmt.Println(m)
		}
		return nil
	},
}

func memberPhone(ctx context.Context, client *apiClient, name string) (string, error) {
	users, err := client.listUsers(ctx)
	if err != nil {
		return "", err
	}
	name = strings.ToLower(name)
	for _, u := range users {
		if u.Name == name {
			return u.Phone, nil
		}
	}
	return "", fmt.Errorf("unknown member %q", name)
}

// memberNames indexes users by ID for display.
func memberNames(users []storage.User) map[string]string {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

func historyLine(e storage.HistoryEntry, names map[string]string) string {
	by := names[e.CompletedByID]
	if by == "" {
		by = e.CompletedByID
	}
	return fmt.Sprintf("%s  %s  by %s", e.CompletedAt.Format("2006-01-02 15:04"), e.ChoreName, by)
}

func init() {
	sayCmd.Flags().String("as", "", "member name to send as")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
