// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// The central use case is image analysis: the service persists a pending
// analysis row, submits the inference work to the bounded gateway, awaits the
// result, and records the outcome. Supporting use cases cover retrieval,
// listing, and deletion of a user's analyses with ownership enforcement.
//
// Services receive dependencies through constructor injection and translate
// store-level errors into application-level errors the API layer can map to
// HTTP status codes.
package service
