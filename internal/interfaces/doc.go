// Package interfaces holds compile-time checks that the concrete types wired
// by the entrypoint satisfy the interfaces their consumers declare.
//
// # Extension Points
//
//   - exporters.CSVBuilder: turns a dataset and options into CSV text (csvbuild.Builder)
//   - exporters.Deliverer: hands text to a platform (delivery.Trigger)
//   - delivery.NativeSaver / delivery.Document: platform capabilities checked by the trigger
//   - exporters.Notifier: receives every outcome (audit, metrics, log)
//   - exporters.LoadingIndicator: toggled around each build
//   - csvbuild.Source: a dataset value or a function producing one
//
// A new delivery target implements NativeSaver when it can store bytes
// directly, or Document when it downloads through a transient link.
package interfaces
