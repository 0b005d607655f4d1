package config

// DefaultConfigTemplate is the commented configuration written by
// "proxyconf config init".
const DefaultConfigTemplate = `# proxyconf configuration

# Persistent proxy settings (Network/Proxy/* keys).
settings:
  path: '%s'
  save_delay: "5s"          # Wait this long after a change before writing

# Application logging
logging:
  level: info               # debug, info, warn, error
  format: text              # text or json
  output: stderr            # stdout, stderr, discard, or a file path

# REST API used by "proxyconf serve"
api:
  enabled: false
  listen: "127.0.0.1:7390"
  # token: "${PROXYCONF_API_TOKEN}"
  rate_limit:               # per client, for changes; 0 disables
    requests_per_second: 5
    burst: 10

# Prometheus metrics, served on the API listener
metrics:
  enabled: false
  path: /metrics

# Where the active proxy is advertised
publish:
  process_env: true         # http_proxy, https_proxy, sock_proxy
  system_proxy: false       # OS proxy settings (Windows only)
`
