// Package handlers provides the HTTP handlers for dynamically rewritten pages and monitoring.
package handlers
