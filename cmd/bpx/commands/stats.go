package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/buyukakyuz/bpx/internal/cli/output"
	"github.com/buyukakyuz/bpx/pkg/config"
)

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live server statistics",
	Long: `Query a running BPX server's /api/v1/stats endpoint and render the
result as a table.

Examples:
  # Query the server at the configured listen address
  bpx stats

  # Query a specific address
  bpx stats --addr http://localhost:8080`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "", "Server address (default: http listen_addr from config)")
}

type statsResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Error     string                 `json:"error"`
}

func runStats(cmd *cobra.Command, args []string) error {
	addr := statsAddr
	if addr == "" {
		cfg, err := config.MustLoad(GetConfigFile())
		if err != nil {
			return fmt.Errorf("failed to resolve server address: %w (use --addr to bypass config)", err)
		}
		addr = httpAddrFromListenAddr(cfg.Server.ListenAddr)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/api/v1/stats")
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", addr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode stats response: %w", err)
	}

	if parsed.Status != "healthy" {
		return fmt.Errorf("server reported unhealthy: %s", parsed.Error)
	}

	table := output.NewTableData("Metric", "Value")
	for _, key := range []string{"active_sessions"} {
		if v, ok := parsed.Data[key]; ok {
			table.AddRow(key, fmt.Sprintf("%v", v))
		}
	}

	return output.PrintTable(cmd.OutOrStdout(), table)
}

// httpAddrFromListenAddr turns a bind address like ":8080" or
// "0.0.0.0:8080" into a dialable http:// URL for the local client.
func httpAddrFromListenAddr(listenAddr string) string {
	host := listenAddr
	if len(host) > 0 && host[0] == ':' {
		host = "localhost" + host
	}
	return "http://" + host
}
