// Package gate blocks a dependent service unit until every certificate
// artifact it needs exists on disk.
//
// A certificate generator and the unit that consumes its output are
// independent processes with no shared memory and no direct signaling.
// The filesystem is the only synchronization medium: the generator
// drops `<name>.pem` files into a directory, and the gate polls that
// directory until every expected name is present.
//
// The gate checks existence only. Validity, expiry, and content are the
// consumer's concern.
//
// # Usage
//
//	g, err := gate.New(&gate.Config{
//		Dir:       "/var/lib/basalt/certs",
//		Artifacts: []string{"webgateway", "loghost"},
//	}, logger)
//	if err != nil {
//		return err
//	}
//
//	if err := g.Wait(ctx); err != nil {
//		return err
//	}
//	// all artifacts present, start the unit
//
// When every artifact already exists Wait returns immediately without
// sleeping, so it is safe to run on every unit restart. By default the
// gate waits indefinitely; setting Config.Timeout bounds the wait and
// surfaces a *PreconditionTimeoutError naming the artifacts that never
// appeared.
//
// Each gate polls on its own and holds no lock shared with other gates,
// so any number of units may wait in parallel.
package gate
