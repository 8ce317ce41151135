// Package certs is the generator side of the certificate gate: a
// self-signed CA that issues the `<name>.pem` artifacts gated services
// wait for.
//
// The CA lives in the certificate directory as ca.pem and ca-key.pem
// and is created on first use. Each issued artifact bundles the leaf
// certificate and its private key in one PEM file and is written
// atomically, so a gate polling the directory never observes a partial
// bundle.
//
// # Usage
//
//	ca, err := certs.LoadOrCreateCA("/var/lib/basalt/certs", certs.IssueConfig{})
//	if err != nil {
//		return err
//	}
//
//	for _, name := range []string{"webgateway", "loghost"} {
//		if _, err := ca.Issue(name); err != nil {
//			return err
//		}
//	}
//
// Inspection helpers (ReadCertificate, Extract, Validate,
// CheckExpiration) back the operator diagnostics; the gate itself never
// looks inside an artifact.
package certs
