// Package msdsim is a machine state simulator. It impersonates three fixed
// production machines (Pilot, Cebit and MBB) towards a telemetry ingestion
// service, pushing a schema followed by a data snapshot whenever a machine's
// state changes.
//
// # Layout
//
//   - machine: identities, field specs, schemas, data snapshots and their wire messages.
//   - scenario: the three machine definitions, their state stores and derived fields.
//   - sink: HTTP client of the ingestion service.
//   - publisher: schema-then-data pushes with mismatch suppression.
//   - engine: one owner goroutine per scenario serializing mutations and pushes.
//   - action: the named actions accepted by the control surface.
//   - simulation: periodic randomised Cebit generators.
//   - bus: NATS JetStream bridge for machine data, process and startup events.
//   - control: the echo HTTP control surface and control page.
//   - telemetry: zap logging and the simulator's own OpenTelemetry signals.
//
// This package holds the service configuration. Values come from a YAML or
// JSON file, struct-tag defaults and environment variables:
//
//	cfg, err := msdsim.LoadConfig("msd-sim.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sink.BaseURL())
package msdsim
