package catalog

// BuiltinVersion identifies the catalog release compiled into the binary.
const BuiltinVersion = "2024.2"

// Builtin returns the role catalog compiled into the binary. Operators
// can layer additional or replacement roles on top via a catalog file
// (see Load), but the builtin set is always the base.
func Builtin() *Catalog {
	c, err := New(BuiltinVersion, builtinRoles())
	if err != nil {
		// The builtin table is validated by tests; a failure here is a
		// programming error, not an operator error.
		panic("catalog: invalid builtin role table: " + err.Error())
	}
	return c
}

func builtinRoles() []Role {
	return []Role{
		{
			Name:        "postgresql13",
			Description: "PostgreSQL 13 database server",
			Modules:     []string{"services/postgresql"},
			Options: map[string]any{
				"basalt.services.postgresql.enable":       true,
				"basalt.services.postgresql.majorVersion": "13",
			},
		},
		{
			Name:        "postgresql14",
			Description: "PostgreSQL 14 database server",
			Modules:     []string{"services/postgresql"},
			Options: map[string]any{
				"basalt.services.postgresql.enable":       true,
				"basalt.services.postgresql.majorVersion": "14",
			},
		},
		{
			Name:        "postgresql15",
			Description: "PostgreSQL 15 database server",
			Modules:     []string{"services/postgresql"},
			Options: map[string]any{
				"basalt.services.postgresql.enable":       true,
				"basalt.services.postgresql.majorVersion": "15",
			},
		},
		{
			Name:        "postgresql16",
			Description: "PostgreSQL 16 database server",
			Modules:     []string{"services/postgresql"},
			Options: map[string]any{
				"basalt.services.postgresql.enable":       true,
				"basalt.services.postgresql.majorVersion": "16",
			},
		},
		{
			Name:        "mysql",
			Description: "Percona MySQL database server",
			Modules:     []string{"services/mysql"},
			Options: map[string]any{
				"basalt.services.mysql.enable": true,
			},
		},
		{
			Name:        "redis",
			Description: "Redis in-memory data store",
			Modules:     []string{"services/redis"},
			Options: map[string]any{
				"basalt.services.redis.enable": true,
			},
		},
		{
			Name:        "memcached",
			Description: "Memcached object cache",
			Modules:     []string{"services/memcached"},
			Options: map[string]any{
				"basalt.services.memcached.enable": true,
			},
		},
		{
			Name:        "rabbitmq",
			Description: "RabbitMQ message broker",
			Modules:     []string{"services/rabbitmq"},
			Options: map[string]any{
				"basalt.services.rabbitmq.enable": true,
			},
		},
		{
			Name:        "webgateway",
			Description: "nginx/HAProxy web gateway",
			Modules:     []string{"services/nginx", "services/haproxy"},
			Options: map[string]any{
				"basalt.services.nginx.enable":   true,
				"basalt.services.haproxy.enable": true,
				"basalt.network.firewall.allowedTCPPorts": []any{80, 443},
			},
		},
		{
			Name:        "webproxy",
			Description: "Varnish caching reverse proxy",
			Modules:     []string{"services/varnish"},
			Options: map[string]any{
				"basalt.services.varnish.enable": true,
			},
		},
		{
			Name:        "loghost",
			Description: "Central log host (Graylog, Elasticsearch, MongoDB)",
			Modules: []string{
				"services/graylog",
				"services/elasticsearch",
				"services/mongodb",
			},
			Options: map[string]any{
				"basalt.services.graylog.enable": true,
				"basalt.network.firewall.allowedTCPPorts": []any{9000, 12201},
			},
		},
		{
			Name:        "statshost",
			Description: "Metrics host (Prometheus, Grafana)",
			Modules:     []string{"services/prometheus", "services/grafana"},
			Options: map[string]any{
				"basalt.services.prometheus.enable": true,
				"basalt.services.grafana.enable":    true,
			},
		},
		{
			Name:        "antivirus",
			Description: "ClamAV virus scanner",
			Modules:     []string{"services/clamav"},
			Options: map[string]any{
				"basalt.services.clamav.enable": true,
			},
		},
		{
			Name:        "backupserver",
			Description: "Backup server for client machines",
			Modules:     []string{"services/backy"},
			Options: map[string]any{
				"basalt.services.backy.enable": true,
			},
		},
		{
			// The Kubernetes roles freeze their module imports to a
			// known-good snapshot so the cluster stack upgrades on its
			// own cadence, independent of the platform release.
			Name:        "kubernetes-master",
			Description: "Kubernetes control plane (pinned k3s snapshot)",
			Modules:     []string{"services/kubernetes/master"},
			Snapshot:    "k3s-1.27",
			Options: map[string]any{
				"basalt.services.kubernetes.master.enable": true,
			},
		},
		{
			Name:        "kubernetes-node",
			Description: "Kubernetes worker node (pinned k3s snapshot)",
			Modules:     []string{"services/kubernetes/node"},
			Snapshot:    "k3s-1.27",
			Options: map[string]any{
				"basalt.services.kubernetes.node.enable": true,
			},
		},
	}
}
