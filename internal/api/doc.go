// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts external clients to the internal
// application services: authentication, image analysis, and inference
// service status reporting.
package api
