// Package main hosts the llcqueue CLI entrypoint and command graph.
//
// Workers and operators on the cluster call these commands from shell scripts
// to enqueue items, claim work, report results, and refresh derived pending
// lists. Every mutating command runs one locked cycle against the shared
// status file through internal/queue, so concurrent invocations on different
// hosts stay consistent.
//
// Keep this package thin: behavior belongs in the internal packages, and the
// commands here only parse arguments and render results.
package main
