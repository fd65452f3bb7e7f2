package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/logging"
	"github.com/smazurov/pinpanel/internal/pins/store"
	"github.com/spf13/cobra"
)

// CreateStateCmd creates the state command.
func CreateStateCmd() *cobra.Command {
	var dataDir string
	var serverURL string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print pin state and exit",
		Long: `Prints the configured pins. By default the persisted configuration is read from the data ` +
			`directory. With --server the live state, including input levels, is fetched from a running instance.`,
		Args: cobra.NoArgs,
		// Skip the server bootstrap run by the root command
		PersistentPreRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				list models.PinListData
				err  error
			)
			if serverURL != "" {
				list, err = fetchLiveState(cmd.Context(), serverURL)
			} else {
				list, err = readPersistedState(dataDir)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if err := writeTable(out, list); err != nil {
				return err
			}
			if serverURL == "" {
				return writeHistory(out, dataDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", "data", "Data directory holding cfg.json")
	cmd.Flags().StringVarP(&serverURL, "server", "s", "", "Base URL of a running pinpanel, e.g. http://localhost:5000")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func readPersistedState(dataDir string) (models.PinListData, error) {
	cfg, err := store.NewJSON(dataDir).Load()
	if err != nil {
		return models.PinListData{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	list := models.PinListData{Pins: make([]models.PinData, len(cfg.GPIO))}
	for i, r := range cfg.GPIO {
		list.Pins[i] = r.ToModel()
	}
	list.Count = len(list.Pins)
	return list, nil
}

func fetchLiveState(ctx context.Context, serverURL string) (models.PinListData, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := strings.TrimSuffix(serverURL, "/") + "/api/gpio"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.PinListData{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return models.PinListData{}, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.PinListData{}, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var list models.PinListData
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return models.PinListData{}, fmt.Errorf("failed to decode server response: %w", err)
	}
	return list, nil
}

func writeTable(out io.Writer, list models.PinListData) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tNAME\tMODE\tVALUE")
	for _, p := range list.Pins {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.Pin, p.Name, p.Mode, p.Value)
	}
	return tw.Flush()
}

func writeHistory(out io.Writer, dataDir string) error {
	snapshots, err := store.NewJSON(dataDir).ListSnapshots(false)
	if err != nil {
		return err
	}
	logDates, err := logging.ListLogDates(filepath.Join(dataDir, "logs"))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nsnapshots: %s\n", joinOrNone(snapshots))
	fmt.Fprintf(out, "log files: %s\n", joinOrNone(logDates))
	return nil
}

func joinOrNone(dates []string) string {
	if len(dates) == 0 {
		return "none"
	}
	return strings.Join(dates, ", ")
}
