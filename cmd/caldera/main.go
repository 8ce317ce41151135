// Caldera Basalt is the coordination core of an infrastructure-as-code
// role system.
//
// It resolves a machine's active roles against a versioned role
// catalog, merges the module options each role imports, and keeps the
// machine serviceable through certificate gating, maintenance
// scheduling, and module channel syncing:
//   - Role catalog with snapshot-pinned module imports
//   - Option lifecycle management via a compatibility table
//   - Certificate issuing and startup gating
//   - Maintenance request spool with scheduled execution
//   - Build journal for configuration audit trails
//
// Usage:
//
//	# Build the machine configuration
//	caldera build
//
//	# Validate without writing output
//	caldera build --check
//
//	# Show the role catalog
//	caldera roles list
//
//	# Check option paths against the compatibility table
//	caldera options check basalt.webgateway.listen
//
//	# Wait for certificate artifacts before starting a service
//	caldera gate wait --dir /var/lib/basalt/certs --artifact web.pem
//
//	# Run the long-lived agent
//	caldera agent
//
// For complete documentation, see: https://github.com/caldera-hq/basalt
package main

func main() {
	Execute()
}
