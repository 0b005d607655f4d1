// Package ctl provides commands that control a running "proxyconf serve"
// through its REST API.
package ctl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rennerdo30/proxyconf/internal/api"
	"github.com/rennerdo30/proxyconf/internal/cli"
)

// APIClient is a client for the proxyconf REST API.
type APIClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewCommands creates the ctl command tree.
func NewCommands() *cobra.Command {
	var (
		apiURL   string
		apiToken string
		asJSON   bool
	)

	root := &cobra.Command{
		Use:   "ctl",
		Short: "Control a running proxyconf server",
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "http://127.0.0.1:7390", "API server URL")
	root.PersistentFlags().StringVar(&apiToken, "token", "", "API authentication token")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := NewAPIClient(apiURL, apiToken).Status()
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), status, asJSON)
		},
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	var flags cli.ProxyFlags
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change the proxy configuration",
		Long: `Change the proxy configuration of a running server. Flags that are
not given keep their current value.

Example:
  proxyconf ctl set --type http --ip 10.0.0.1 --port 3128`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewAPIClient(apiURL, apiToken)
			current, err := client.Status()
			if err != nil {
				return err
			}

			cfg, passwordSet, err := flags.Merge(cmd, current.Configuration)
			if err != nil {
				return err
			}
			req := api.ProxyRequest{
				Type:     cfg.Type,
				IP:       cfg.IP,
				Port:     cfg.Port,
				Username: cfg.Username,
			}
			if passwordSet {
				req.Password = &cfg.Password
			}

			status, err := client.SetProxy(req)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), status, false)
		},
	}
	flags.Register(setCmd)

	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Stop advertising the proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := NewAPIClient(apiURL, apiToken).SetDisabled(true)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), status, false)
		},
	}

	enableCmd := &cobra.Command{
		Use:   "enable",
		Short: "Advertise the configured proxy again",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := NewAPIClient(apiURL, apiToken).SetDisabled(false)
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), status, false)
		},
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var health map[string]interface{}
			if err := NewAPIClient(apiURL, apiToken).getJSON("/api/v1/health", &health); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %v\n", health["status"])
			return nil
		},
	}

	root.AddCommand(showCmd, setCmd, disableCmd, enableCmd, healthCmd)
	return root
}

func printStatus(out io.Writer, status api.ProxyStatus, asJSON bool) error {
	if asJSON {
		return cli.PrintJSON(out, status)
	}
	return cli.PrintStatus(out, status)
}

// Status fetches the proxy status.
func (c *APIClient) Status() (api.ProxyStatus, error) {
	var status api.ProxyStatus
	err := c.getJSON("/api/v1/proxy", &status)
	return status, err
}

// SetProxy replaces the proxy configuration.
func (c *APIClient) SetProxy(req api.ProxyRequest) (api.ProxyStatus, error) {
	var status api.ProxyStatus
	err := c.putJSON("/api/v1/proxy", req, &status)
	return status, err
}

// SetDisabled switches the proxy off or on.
func (c *APIClient) SetDisabled(disabled bool) (api.ProxyStatus, error) {
	var status api.ProxyStatus
	err := c.putJSON("/api/v1/proxy/disabled", api.DisabledRequest{Disabled: &disabled}, &status)
	return status, err
}

func (c *APIClient) doRequest(method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Client.Do(req)
}

func (c *APIClient) getJSON(path string, v interface{}) error {
	resp, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, v)
}

func (c *APIClient) putJSON(path string, body, v interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.doRequest(http.MethodPut, path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, v)
}

func decodeResponse(resp *http.Response, v interface{}) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
