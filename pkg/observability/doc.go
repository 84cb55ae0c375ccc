/*
Package observability provides tools for monitoring the navigation engine.

It includes Prometheus collectors exposed as lifecycle hooks and as a cache observer,
and lifecycle hooks that write navigation events to a structured logger.
*/
package observability
