// Package discord connects the bot to the Discord gateway and REST API.
//
// Gateway events are converted to domain types and handed to the app layer;
// outbound calls go through Client, which guards the REST API with a circuit
// breaker and maps Discord error codes to domain sentinels.
package discord
