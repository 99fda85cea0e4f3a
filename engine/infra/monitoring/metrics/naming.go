package metrics

import "strings"

const prefix = "supervisor_"

// MetricName prefixes name with the service namespace unless already present.
func MetricName(name string) string {
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// MetricNameWithSubsystem builds "supervisor_<subsystem>_<name>".
func MetricNameWithSubsystem(subsystem, name string) string {
	subsystem = strings.Trim(subsystem, "_")
	if name == "" {
		return prefix + subsystem
	}
	if subsystem == "" {
		return MetricName(name)
	}
	return prefix + subsystem + "_" + name
}
