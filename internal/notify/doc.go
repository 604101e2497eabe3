// Package notify implements dripbot's delivery pipeline: a provider error
// taxonomy, a bounded-retry policy, and a Service that pushes one reminder
// text through rate limiting + retry to the configured sender.
//
// The taxonomy splits failures into permanent misconfigurations
// (invalid credential, invalid destination) and transient faults
// (network, provider). Only transient faults are retried.
package notify
