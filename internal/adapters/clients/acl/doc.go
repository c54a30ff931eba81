// Package acl implements the anti-corruption layer for the QuoteHub
// upstream services. Each adapter translates between the upstream wire
// models (Mongo-flavored JSON) and domain types, and maps transport and
// HTTP failures to domain errors.
//
// The adapters enforce the read/mutate asymmetry: collection reads
// (top feeds, by-user) degrade to an empty slice and log the failure,
// while every mutation surfaces a precise domain error.
package acl
