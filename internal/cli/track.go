package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/followviz/followviz/pkg/source"
)

// trackCommand creates the track command for message-delivery tracking.
func (c *CLI) trackCommand() *cobra.Command {
	var (
		configPath string
		baseURL    string
		storeID    string
		clusterID  string
		storeIDs   []string
		demo       bool
	)

	cmd := &cobra.Command{
		Use:   "track <message-key>",
		Short: "Track a message's delivery across POS terminals",
		Long: `Query the message-delivery tracking service for the state of one message
key across the store fleet, broken down per store and per terminal.`,
		Example: `  # Track a message everywhere
  followviz track MSG-2024-001

  # Only within one cluster
  followviz track MSG-2024-001 --cluster cluster-nyc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := source.TrackOptions{
				StoreID:   storeID,
				ClusterID: clusterID,
				StoreIDs:  storeIDs,
			}

			if demo {
				printTracking(source.DemoTracking(args[0], opts))
				return nil
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.POSBaseURL
			}
			if baseURL == "" {
				return fmt.Errorf("no tracking service configured: pass --base-url, --demo, or set pos_base_url in the config")
			}

			client := source.NewPOSClient(baseURL)
			spinner := newSpinnerWithContext(cmd.Context(), "tracking message")
			spinner.Start()
			resp, err := client.TrackMessage(cmd.Context(), args[0], opts)
			spinner.Stop()
			if err != nil {
				return err
			}

			printTracking(resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "tracking service base URL")
	cmd.Flags().StringVar(&storeID, "store", "", "limit tracking to one store")
	cmd.Flags().StringVar(&clusterID, "cluster", "", "limit tracking to one cluster")
	cmd.Flags().StringSliceVar(&storeIDs, "stores", nil, "limit tracking to a set of stores")
	cmd.Flags().BoolVar(&demo, "demo", false, "use the built-in demo tracking data")

	cmd.AddCommand(c.trackTreeCommand())

	return cmd
}

// trackTreeCommand creates the track tree subcommand.
func (c *CLI) trackTreeCommand() *cobra.Command {
	var (
		configPath string
		baseURL    string
		demo       bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the region/cluster/store/terminal hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if demo {
				fmt.Print(source.TreeSummary(source.DemoTree()))
				return nil
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.POSBaseURL
			}
			if baseURL == "" {
				return fmt.Errorf("no tracking service configured: pass --base-url, --demo, or set pos_base_url in the config")
			}

			client := source.NewPOSClient(baseURL)
			tree, err := client.FetchTree(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(source.TreeSummary(tree))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "tracking service base URL")
	cmd.Flags().BoolVar(&demo, "demo", false, "use the built-in demo hierarchy")

	return cmd
}

// printTracking renders a tracking response as a per-store table plus overall
// stats.
func printTracking(resp *source.TrackingResponse) {
	fmt.Println(StyleTitle.Render("Message " + resp.MessageKey))
	fmt.Println()

	failureRates := source.FailureRate(resp)

	rows := [][]string{}
	for _, store := range resp.Stores {
		rows = append(rows, []string{
			store.StoreName,
			fmt.Sprintf("%d", store.StatusCounts[source.POSStatusDelivered]),
			fmt.Sprintf("%d", store.StatusCounts[source.POSStatusProcessing]),
			fmt.Sprintf("%d", store.StatusCounts[source.POSStatusPending]),
			fmt.Sprintf("%d", store.StatusCounts[source.POSStatusFailed]),
			fmt.Sprintf("%.0f%%", failureRates[store.StoreID]*100),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Store", "Delivered", "Processing", "Pending", "Failed", "Fail %").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 1:
				return StyleSuccess
			case 4, 5:
				if rows[row][4] != "0" {
					return StyleError
				}
				return StyleDim
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
	fmt.Println()
	fmt.Println("  " + StyleDim.Render(overallLine(resp.OverallStats)))

	for _, store := range resp.Stores {
		for _, pos := range store.POSStatuses {
			if pos.Status != source.POSStatusFailed {
				continue
			}
			printWarning("%s / %s failed after %d retries (last update %s)",
				store.StoreName, pos.POSName, pos.RetryAttempts, pos.LastUpdate)
		}
	}
}

// overallLine formats the overall status counts on one line, in a stable
// order.
func overallLine(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", stats[k], k))
	}
	return "overall: " + strings.Join(parts, " · ")
}
