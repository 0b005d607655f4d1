// Package cli holds output and flag helpers shared by the proxyconf
// commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rennerdo30/proxyconf/internal/api"
	"github.com/rennerdo30/proxyconf/internal/netproxy"
)

// PrintStatus writes status as an aligned table.
func PrintStatus(out io.Writer, status api.ProxyStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	cfg := status.Configuration

	fmt.Fprintf(w, "Type:\t%s\n", cfg.Type)
	fmt.Fprintf(w, "Address:\t%s:%d\n", cfg.IP, cfg.Port)
	if cfg.Username != "" || cfg.Password != "" || status.PasswordSet {
		password := cfg.Password
		if password == "" && status.PasswordSet {
			password = "(hidden)"
		}
		fmt.Fprintf(w, "Username:\t%s\n", cfg.Username)
		fmt.Fprintf(w, "Password:\t%s\n", password)
	}
	fmt.Fprintf(w, "Disabled:\t%t\n", status.Disabled)
	fmt.Fprintf(w, "Authentication:\t%s\n", requiredText(status.AuthenticationRequired))
	for _, v := range (netproxy.Env{}).Vars() {
		fmt.Fprintf(w, "%s:\t%s\n", v.Name, status.Environment[v.Name])
	}

	return w.Flush()
}

// PrintJSON writes v as indented JSON.
func PrintJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requiredText(required bool) string {
	if required {
		return "required"
	}
	return "not required"
}

// ProxyFlags binds the flags that describe a proxy configuration.
type ProxyFlags struct {
	Type     string
	IP       string
	Port     uint16
	Username string
	Password string
}

// Register adds the proxy flags to cmd.
func (f *ProxyFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Type, "type", "t", "", "proxy type: none, http, http-pw, socks5, socks5-pw, socks4")
	cmd.Flags().StringVar(&f.IP, "ip", "", "proxy host or IP address")
	cmd.Flags().Uint16VarP(&f.Port, "port", "p", 0, "proxy port")
	cmd.Flags().StringVarP(&f.Username, "username", "u", "", "proxy username")
	cmd.Flags().StringVar(&f.Password, "password", "", "proxy password")
}

// Merge overlays the flags the user set on base. passwordSet reports
// whether --password was given.
func (f *ProxyFlags) Merge(cmd *cobra.Command, base netproxy.Configuration) (cfg netproxy.Configuration, passwordSet bool, err error) {
	cfg = base
	flags := cmd.Flags()

	if flags.Changed("type") {
		if cfg.Type, err = netproxy.ParseType(f.Type); err != nil {
			return cfg, false, err
		}
	}
	if flags.Changed("ip") {
		cfg.IP = f.IP
	}
	if flags.Changed("port") {
		cfg.Port = f.Port
	}
	if flags.Changed("username") {
		cfg.Username = f.Username
	}
	if flags.Changed("password") {
		cfg.Password = f.Password
		passwordSet = true
	}

	return cfg, passwordSet, nil
}
