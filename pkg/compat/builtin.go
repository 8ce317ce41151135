package compat

// Builtin returns the platform's compatibility table: every option
// rename and removal shipped with this release. Option retirements are
// declared here, next to the code that replaced them, so configuration
// written against older releases keeps working or fails with concrete
// migration guidance.
func Builtin() *Table {
	t, err := NewTable(builtinEntries())
	if err != nil {
		// The builtin table is validated by tests; a failure here is a
		// programming error, not an operator error.
		panic("compat: invalid builtin table: " + err.Error())
	}
	return t
}

func builtinEntries() []Entry {
	return []Entry{
		// 2021.1: per-service options moved out of the role namespace.
		{
			Path:   "basalt.roles.postgresql.dataDir",
			State:  LifecycleRenamed,
			Target: "basalt.services.postgresql.dataDir",
			Since:  "2021.1",
		},
		{
			Path:   "basalt.roles.redis.listenPort",
			State:  LifecycleRenamed,
			Target: "basalt.services.redis.port",
			Since:  "2021.1",
		},

		// 2022.2: the statshost role was split; the old global enable
		// went through an intermediate name before settling.
		{
			Path:   "basalt.roles.statshost.enable",
			State:  LifecycleRenamed,
			Target: "basalt.roles.statshost.globalEnable",
			Since:  "2022.2",
		},
		{
			Path:   "basalt.roles.statshost.globalEnable",
			State:  LifecycleRenamed,
			Target: "basalt.services.prometheus.enable",
			Since:  "2023.1",
		},

		// 2022.2: graylog heap size is derived from machine memory now.
		{
			Path:   "basalt.roles.loghost.heapSizeMB",
			State:  LifecycleRenamed,
			Target: "basalt.services.graylog.heapPercentage",
			Since:  "2022.2",
		},

		// 2020.2: managing the MySQL root password declaratively leaked
		// it into the world-readable store. Removed, not renamed.
		{
			Path:  "basalt.roles.mysql.rootPassword",
			State: LifecycleRemoved,
			Message: "Change the root password via the database client and " +
				"edit /etc/local/mysql/mysql.passwd directly; the password is " +
				"no longer managed through configuration options.",
			Since: "2020.2",
		},

		// 2021.2: memcached moved to a unix socket only setup.
		{
			Path:  "basalt.services.memcached.listenAddresses",
			State: LifecycleRemoved,
			Message: "memcached now listens on a local unix socket only. " +
				"Remove the option and point clients at " +
				"/run/memcached/memcached.sock.",
			Since: "2021.2",
		},

		// 2023.1: the docker role was retired in favor of the
		// kubernetes roles.
		{
			Path:  "basalt.roles.docker.enable",
			State: LifecycleRemoved,
			Message: "The docker role was removed. Use kubernetes-master " +
				"and kubernetes-node, or run containers under podman on a " +
				"generic machine.",
			Since: "2023.1",
		},
	}
}
